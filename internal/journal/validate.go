package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/id"
	"github.com/cleared-dev/cashclose/internal/model"
)

// Rule names a journal consistency rule.
type Rule string

const (
	RuleBalanced    Rule = "balanced"
	RuleOneSided    Rule = "one-sided"
	RuleAccount     Rule = "account"
	RuleMonth       Rule = "month"
	RuleSequence    Rule = "sequence"
	RulePrecision   Rule = "precision"
	RuleAltBalanced Rule = "alt-balanced"
	RuleStatus      Rule = "status"
)

// ValidationError describes a single rule violation.
type ValidationError struct {
	Rule        Rule
	EntryID     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.EntryID, e.Description)
}

// AccountChecker tests whether an account ID exists in the chart of accounts.
type AccountChecker interface {
	Exists(id int) bool
}

var hundred = decimal.NewFromInt(100)

// ValidateLegs checks the legs of one journal month. The balance engine
// trusts the journal, so a ledger that fails these checks produces
// meaningless closes. Alternate amounts are only checked when dual is set.
func ValidateLegs(legs []model.Leg, accounts AccountChecker, year, month int, dual bool) []ValidationError {
	var errs []ValidationError
	add := func(rule Rule, entryID, format string, args ...any) {
		errs = append(errs, ValidationError{Rule: rule, EntryID: entryID, Description: fmt.Sprintf(format, args...)})
	}

	groups := make(map[string][]model.Leg)
	var groupOrder []string
	for _, leg := range legs {
		g := leg.EntryGroup()
		if _, seen := groups[g]; !seen {
			groupOrder = append(groupOrder, g)
		}
		groups[g] = append(groups[g], leg)
	}

	for _, g := range groupOrder {
		var debit, credit, altDebit, altCredit decimal.Decimal
		for _, leg := range groups[g] {
			debit = debit.Add(leg.Debit)
			credit = credit.Add(leg.Credit)
			altDebit = altDebit.Add(leg.AltDebit)
			altCredit = altCredit.Add(leg.AltCredit)
		}
		if !debit.Equal(credit) {
			add(RuleBalanced, g, "debits (%s) != credits (%s)", debit.StringFixed(2), credit.StringFixed(2))
		}
		if dual && !altDebit.Equal(altCredit) {
			add(RuleAltBalanced, g, "alternate debits (%s) != alternate credits (%s)", altDebit.StringFixed(2), altCredit.StringFixed(2))
		}
	}

	for _, leg := range legs {
		if leg.Debit.IsZero() == leg.Credit.IsZero() {
			add(RuleOneSided, leg.EntryID, "leg must have exactly one of debit or credit")
		}
		if dual && !leg.AltDebit.IsZero() && !leg.AltCredit.IsZero() {
			add(RuleOneSided, leg.EntryID, "leg has both alternate debit and credit")
		}
		if !dual && (!leg.AltDebit.IsZero() || !leg.AltCredit.IsZero()) {
			add(RuleAltBalanced, leg.EntryID, "alternate amounts on a single-currency ledger")
		}
		if !accounts.Exists(leg.AccountID) {
			add(RuleAccount, leg.EntryID, "unknown account %d", leg.AccountID)
		}
		if leg.Date.Year() != year || int(leg.Date.Month()) != month {
			add(RuleMonth, leg.EntryID, "date %s not in %04d-%02d", leg.Date.Format(dateFormat), year, month)
		}
		if !validStatus(leg.Status) {
			add(RuleStatus, leg.EntryID, "unknown status %q", leg.Status)
		}
		for _, amt := range []struct {
			name string
			v    decimal.Decimal
		}{{"debit", leg.Debit}, {"credit", leg.Credit}, {"alt_debit", leg.AltDebit}, {"alt_credit", leg.AltCredit}} {
			if !amt.v.Mul(hundred).Equal(amt.v.Mul(hundred).Floor()) {
				add(RulePrecision, leg.EntryID, "%s %s has more than 2 decimal places", amt.name, amt.v)
			}
		}
	}

	// Sequences must be contiguous 1..N; legs of one entry share a sequence.
	seqSeen := make(map[int]bool)
	for _, leg := range legs {
		_, _, seq, err := id.ParseEntryID(leg.EntryID)
		if err != nil {
			add(RuleSequence, leg.EntryID, "invalid entry ID: %v", err)
			continue
		}
		seqSeen[seq] = true
	}
	for i := 1; i <= len(seqSeen); i++ {
		if !seqSeen[i] {
			add(RuleSequence, fmt.Sprintf("seq %d", i), "missing sequence %d in 1..%d", i, len(seqSeen))
		}
	}

	return errs
}

func validStatus(s model.EntryStatus) bool {
	switch s {
	case model.StatusAutoConfirmed, model.StatusPendingReview, model.StatusUserConfirmed,
		model.StatusUserCorrected, model.StatusVoided, model.StatusBootstrapConfirmed:
		return true
	}
	return false
}
