package journal

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/cashclose/internal/model"
)

// mockAccounts implements AccountChecker for testing.
type mockAccounts struct {
	ids map[int]bool
}

func (m *mockAccounts) Exists(id int) bool {
	return m.ids[id]
}

func newMockAccounts(ids ...int) *mockAccounts {
	m := &mockAccounts{ids: make(map[int]bool)}
	for _, id := range ids {
		m.ids[id] = true
	}
	return m
}

func balancedEntry(seq int, debitAcct, creditAcct int, amount string) []model.Leg {
	entryID := fmt.Sprintf("2025-01-%03d", seq)
	return []model.Leg{
		{EntryID: entryID + "a", Date: date(2025, 1, 15), AccountID: debitAcct, Debit: dec(amount), Status: model.StatusAutoConfirmed},
		{EntryID: entryID + "b", Date: date(2025, 1, 15), AccountID: creditAcct, Credit: dec(amount), Status: model.StatusAutoConfirmed},
	}
}

var defaultAccounts = newMockAccounts(1010, 1011, 1020, 4010, 5010)

func rules(errs []ValidationError) []Rule {
	out := make([]Rule, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Rule)
	}
	return out
}

func TestValidateLegs(t *testing.T) {
	tests := []struct {
		name string
		legs func() []model.Leg
		dual bool
		want []Rule
	}{
		{
			name: "balanced",
			legs: func() []model.Leg { return balancedEntry(1, 1010, 4010, "100.00") },
		},
		{
			name: "multi-leg balanced",
			legs: func() []model.Leg {
				legs := balancedEntry(1, 1010, 4010, "100.00")
				legs[0].Debit = dec("60")
				extra := legs[0]
				extra.EntryID = "2025-01-001c"
				extra.AccountID = 1011
				extra.Debit = dec("40")
				return append(legs, extra)
			},
		},
		{
			name: "unbalanced",
			legs: func() []model.Leg {
				legs := balancedEntry(1, 1010, 4010, "100.00")
				legs[1].Credit = dec("99")
				return legs
			},
			want: []Rule{RuleBalanced},
		},
		{
			name: "both sides on one leg",
			legs: func() []model.Leg {
				legs := balancedEntry(1, 1010, 4010, "100.00")
				legs[0].Credit = dec("100")
				legs[1].Debit = dec("100")
				return legs
			},
			want: []Rule{RuleOneSided, RuleOneSided},
		},
		{
			name: "unknown account",
			legs: func() []model.Leg { return balancedEntry(1, 1010, 9999, "1.00") },
			want: []Rule{RuleAccount},
		},
		{
			name: "wrong month",
			legs: func() []model.Leg {
				legs := balancedEntry(1, 1010, 4010, "1.00")
				legs[0].Date = date(2025, 2, 1)
				return legs
			},
			want: []Rule{RuleMonth},
		},
		{
			name: "sequence gap",
			legs: func() []model.Leg {
				return append(balancedEntry(1, 1010, 4010, "1.00"), balancedEntry(3, 1010, 4010, "1.00")...)
			},
			want: []Rule{RuleSequence},
		},
		{
			name: "too many decimals",
			legs: func() []model.Leg { return balancedEntry(1, 1010, 4010, "10.123") },
			want: []Rule{RulePrecision, RulePrecision},
		},
		{
			name: "unknown status",
			legs: func() []model.Leg {
				legs := balancedEntry(1, 1010, 4010, "1.00")
				legs[0].Status = "posted"
				return legs
			},
			want: []Rule{RuleStatus},
		},
		{
			name: "alternate amounts balanced",
			dual: true,
			legs: func() []model.Leg {
				legs := balancedEntry(1, 1010, 4010, "365.00")
				legs[0].AltDebit = dec("10")
				legs[1].AltCredit = dec("10")
				return legs
			},
		},
		{
			name: "alternate amounts unbalanced",
			dual: true,
			legs: func() []model.Leg {
				legs := balancedEntry(1, 1010, 4010, "365.00")
				legs[0].AltDebit = dec("10")
				return legs
			},
			want: []Rule{RuleAltBalanced},
		},
		{
			name: "alternate amounts on single-currency ledger",
			legs: func() []model.Leg {
				legs := balancedEntry(1, 1010, 4010, "365.00")
				legs[0].AltDebit = dec("10")
				legs[1].AltCredit = dec("10")
				return legs
			},
			want: []Rule{RuleAltBalanced, RuleAltBalanced},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateLegs(tt.legs(), defaultAccounts, 2025, 1, tt.dual)
			if len(tt.want) == 0 {
				assert.Empty(t, errs)
				return
			}
			assert.ElementsMatch(t, tt.want, rules(errs))
		})
	}
}

func TestValidateLegs_Empty(t *testing.T) {
	assert.Empty(t, ValidateLegs(nil, defaultAccounts, 2025, 1, false))
}

func TestValidationErrorMessage(t *testing.T) {
	e := ValidationError{Rule: RuleAccount, EntryID: "2025-01-001a", Description: "unknown account 9"}
	assert.Equal(t, "account [2025-01-001a]: unknown account 9", e.Error())
}
