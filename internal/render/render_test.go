package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cashclose/internal/balance"
	"github.com/cleared-dev/cashclose/internal/batch"
	"github.com/cleared-dev/cashclose/internal/config"
	"github.com/cleared-dev/cashclose/internal/consolidated"
	"github.com/cleared-dev/cashclose/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func opts() Options {
	return Options{
		Variance:      config.Default().Variance,
		LocalCurrency: func(string) string { return "VES" },
	}
}

func TestAmount(t *testing.T) {
	tests := []struct {
		v        string
		currency string
		want     string
	}{
		{"130", "USD", "$130.00"},
		{"1234.5", "USD", "$1,234.50"},
		{"-5", "USD", "-$5.00"},
		{"20", "EUR", "€20.00"},
		{"0.005", "USD", "$0.01"},
		{"12.3", "", "12.30"},
		{"7", "XYZ", "7.00 XYZ"},
	}
	for _, tt := range tests {
		t.Run(tt.v+tt.currency, func(t *testing.T) {
			assert.Equal(t, tt.want, Amount(dec(tt.v), tt.currency))
		})
	}
}

func TestSigned(t *testing.T) {
	assert.Equal(t, "-", Signed(decimal.Zero, "USD"))
	assert.Equal(t, "+$5.00", Signed(dec("5"), "USD"))
	assert.Equal(t, "-$5.00", Signed(dec("-5"), "USD"))
}

func sampleClose() *model.Close {
	closedAt := time.Date(2025, 1, 10, 20, 0, 0, 0, time.UTC)
	return &model.Close{
		ID: "c1", Ref: "CASH/ACME/2025-01-10", Entity: "ACME", State: model.StateClosed,
		Date: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), ResponsibleUser: "maria", ClosedAt: &closedAt,
		Lines: []model.CloseLine{
			{
				AccountID: 1011, AccountName: "Drawer USD", Bucket: model.BucketUSD, Currency: "USD",
				InitialBalance: dec("100"), TotalIncome: dec("50"), TotalExpense: dec("20"),
				CountedAmount: dec("125"), Counted: true,
				Denominations: []model.DenominationLine{
					{DenominationID: 1, Value: dec("100"), Type: model.DenominationBill, Quantity: 1},
					{DenominationID: 2, Value: dec("50"), Type: model.DenominationBill},
					{DenominationID: 5, Value: dec("5"), Type: model.DenominationBill, Quantity: 1},
				},
				BadBills: []model.BadBill{{DenominationID: 3, Value: dec("20"), Quantity: 1, Condition: model.ConditionTorn, Notes: "taped"}},
			},
			{AccountID: 1010, AccountName: "Drawer", Bucket: model.BucketLocal, Currency: "VES", Counted: false},
		},
		BankLines: []model.BankLine{{AccountID: 1020, AccountName: "Bank", Currency: "VES", ClosingBalance: dec("1500")}},
	}
}

func TestCloseMarkdown(t *testing.T) {
	out := CloseMarkdown(sampleClose(), opts())

	assert.Contains(t, out, "# Cash close CASH/ACME/2025-01-10")
	assert.Contains(t, out, "State: closed")
	assert.Contains(t, out, "$130.00")
	assert.Contains(t, out, "-$5.00")
	assert.Contains(t, out, "warning", "a 5 difference is above the warning threshold")
	assert.Contains(t, out, "not counted")
	assert.Contains(t, out, "## Count 1011 Drawer USD")
	assert.Contains(t, out, "torn")
	assert.Contains(t, out, "taped")
	assert.Contains(t, out, "## Bank accounts")
	assert.Contains(t, out, "Bs.S1,500.00")
	assert.NotContains(t, out, "$50.00 bill", "zero quantities are left out")
}

func TestCloseMarkdownWithoutLines(t *testing.T) {
	c := sampleClose()
	c.Lines = nil
	assert.Contains(t, CloseMarkdown(c, opts()), "No lines generated yet.")
}

func TestClosesMarkdown(t *testing.T) {
	out := ClosesMarkdown([]*model.Close{sampleClose()})
	assert.Contains(t, out, "CASH/ACME/2025-01-10")
	assert.Contains(t, ClosesMarkdown(nil), "No closes found.")
}

func TestConsolidatedMarkdown(t *testing.T) {
	c := sampleClose()
	rows := []consolidated.Row{{Date: c.Date, Entity: c.Entity, CloseID: c.ID, State: c.State, Totals: c.Totals()}}
	out := ConsolidatedMarkdown(rows, opts())

	assert.Contains(t, out, "## Bucket usd")
	assert.Contains(t, out, "## Bucket local")
	assert.NotContains(t, out, "## Bucket eur")
	assert.Contains(t, out, "**Total**")
	assert.Contains(t, ConsolidatedMarkdown(nil, opts()), "No closes in range.")
}

func TestBadBillsMarkdown(t *testing.T) {
	s := consolidated.BadBillSummary{
		ByCondition: map[model.BillCondition]consolidated.BadBillGroup{model.ConditionTorn: {Quantity: 2, Total: dec("40")}},
		ByFace:      map[consolidated.FaceKey]consolidated.BadBillGroup{{Currency: "USD", Value: "20"}: {Quantity: 2, Total: dec("40")}},
		ByCurrency:  map[string]consolidated.BadBillGroup{"USD": {Quantity: 2, Total: dec("40")}},
		Entries:     []consolidated.BadBillEntry{{Entity: "ACME"}},
	}
	out := BadBillsMarkdown(s)
	assert.Contains(t, out, "torn")
	assert.Contains(t, out, "USD 20")
	assert.Contains(t, out, "$40.00")
	assert.Contains(t, BadBillsMarkdown(consolidated.BadBillSummary{}), "No bad bills recorded.")
}

func TestHistoryMarkdown(t *testing.T) {
	d := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	days := []balance.DayBalances{{Date: d, Balances: []balance.DayBalance{{AccountID: 1011, Bucket: model.BucketUSD, Final: dec("100")}}}}
	accounts := []model.Account{{ID: 1011, Name: "Drawer USD", CloseCurrency: "USD"}}
	out := HistoryMarkdown(days, accounts)
	assert.Contains(t, out, "1011 Drawer USD")
	assert.Contains(t, out, "2025-01-09")
	assert.Contains(t, out, "$100.00")
}

func TestMassMarkdown(t *testing.T) {
	c := sampleClose()
	out := MassCloseMarkdown(batch.MassCloseResult{
		Skipped: []*model.Close{c},
		Failed:  []batch.EntityError{{Entity: "BETA", Err: errors.New("no cash accounts")}},
	})
	assert.Contains(t, out, "0 created, 1 skipped, 1 failed")
	assert.Contains(t, out, "no cash accounts")

	out = MassConfirmMarkdown(batch.MassConfirmResult{Confirmed: []*model.Close{c}, Idle: []string{"BETA"}})
	assert.Contains(t, out, "nothing to confirm")
	assert.True(t, strings.Contains(out, "CASH/ACME/2025-01-10"))
}

func TestTerminalRaw(t *testing.T) {
	out, err := Terminal("# Title", true, 0)
	require.NoError(t, err)
	assert.Equal(t, "# Title", out)

	out, err = Terminal("# Title\n\nbody text", false, 80)
	require.NoError(t, err)
	assert.Contains(t, out, "body text")
}
