package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/model"
)

type totalsView struct {
	Accounts   int             `json:"accounts"`
	Initial    decimal.Decimal `json:"initial"`
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	Final      decimal.Decimal `json:"final"`
	Counted    decimal.Decimal `json:"counted"`
	Difference decimal.Decimal `json:"difference"`
}

func newTotalsView(t model.Totals) totalsView {
	return totalsView{
		Accounts: t.Accounts, Initial: t.Initial, Income: t.Income, Expense: t.Expense,
		Final: t.Final, Counted: t.Counted, Difference: t.Difference,
	}
}

type bucketTotalsView struct {
	Local totalsView `json:"local"`
	USD   totalsView `json:"usd"`
	EUR   totalsView `json:"eur"`
}

func newBucketTotalsView(b model.BucketTotals) bucketTotalsView {
	return bucketTotalsView{Local: newTotalsView(b.Local), USD: newTotalsView(b.USD), EUR: newTotalsView(b.EUR)}
}

type denominationView struct {
	DenominationID int             `json:"denomination_id"`
	Value          decimal.Decimal `json:"value"`
	Type           string          `json:"type,omitempty"`
	Quantity       int             `json:"quantity"`
	Total          decimal.Decimal `json:"total"`
}

type badBillView struct {
	DenominationID int             `json:"denomination_id"`
	Value          decimal.Decimal `json:"value"`
	Quantity       int             `json:"quantity"`
	Condition      string          `json:"condition"`
	Notes          string          `json:"notes,omitempty"`
	Total          decimal.Decimal `json:"total"`
}

type lineView struct {
	AccountID     int                `json:"account_id"`
	AccountName   string             `json:"account_name"`
	Bucket        string             `json:"bucket"`
	Currency      string             `json:"currency"`
	Initial       decimal.Decimal    `json:"initial_balance"`
	Income        decimal.Decimal    `json:"total_income"`
	Expense       decimal.Decimal    `json:"total_expense"`
	Final         decimal.Decimal    `json:"final_balance"`
	Counted       decimal.Decimal    `json:"counted_amount"`
	Difference    decimal.Decimal    `json:"difference"`
	IsCounted     bool               `json:"counted"`
	Notes         string             `json:"notes,omitempty"`
	Denominations []denominationView `json:"denominations,omitempty"`
	BadBills      []badBillView      `json:"bad_bills,omitempty"`
}

type bankLineView struct {
	AccountID      int             `json:"account_id"`
	AccountName    string          `json:"account_name"`
	Currency       string          `json:"currency"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Notes          string          `json:"notes,omitempty"`
}

type closeView struct {
	ID              string           `json:"id"`
	Ref             string           `json:"ref"`
	Date            string           `json:"date"`
	Entity          string           `json:"entity"`
	State           string           `json:"state"`
	ResponsibleUser string           `json:"responsible_user"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	ClosedAt        *time.Time       `json:"closed_at,omitempty"`
	Signed          bool             `json:"signed"`
	ConfirmedBy     string           `json:"confirmed_by,omitempty"`
	ConfirmedAt     *time.Time       `json:"confirmed_at,omitempty"`
	Totals          bucketTotalsView `json:"totals"`
	Lines           []lineView       `json:"lines,omitempty"`
	BankLines       []bankLineView   `json:"bank_lines,omitempty"`
}

// newCloseView projects a close. Lines are included when detail is set.
// Signature bytes are never exposed.
func newCloseView(c *model.Close, detail bool) closeView {
	v := closeView{
		ID: c.ID, Ref: c.Ref, Date: c.Date.Format(dateFormat), Entity: c.Entity,
		State: string(c.State), ResponsibleUser: c.ResponsibleUser, Notes: c.Notes,
		CreatedAt: c.CreatedAt, ClosedAt: c.ClosedAt, Signed: len(c.ClosedSignature) > 0,
		ConfirmedBy: c.ConfirmedBy, ConfirmedAt: c.ConfirmedAt,
		Totals: newBucketTotalsView(c.Totals()),
	}
	if !detail {
		return v
	}
	for _, l := range c.Lines {
		lv := lineView{
			AccountID: l.AccountID, AccountName: l.AccountName, Bucket: string(l.Bucket), Currency: l.Currency,
			Initial: l.InitialBalance, Income: l.TotalIncome, Expense: l.TotalExpense,
			Final: l.FinalBalance(), Counted: l.CountedAmount, Difference: l.Difference(),
			IsCounted: l.Counted, Notes: l.Notes,
		}
		for _, d := range l.Denominations {
			lv.Denominations = append(lv.Denominations, denominationView{
				DenominationID: d.DenominationID, Value: d.Value, Type: string(d.Type), Quantity: d.Quantity, Total: d.Total(),
			})
		}
		for _, b := range l.BadBills {
			lv.BadBills = append(lv.BadBills, badBillView{
				DenominationID: b.DenominationID, Value: b.Value, Quantity: b.Quantity,
				Condition: string(b.Condition), Notes: b.Notes, Total: b.Total(),
			})
		}
		v.Lines = append(v.Lines, lv)
	}
	for _, b := range c.BankLines {
		v.BankLines = append(v.BankLines, bankLineView{
			AccountID: b.AccountID, AccountName: b.AccountName, Currency: b.Currency,
			ClosingBalance: b.ClosingBalance, Notes: b.Notes,
		})
	}
	return v
}
