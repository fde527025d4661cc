package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/model"
)

// Movement is one ledger line of the close date, signed from the point of
// view of the cash account.
type Movement struct {
	Date         time.Time
	EntryID      string
	Description  string
	Reference    string
	Counterparty string
	// Amount is debit - credit in the bucket's slot; positive is income.
	Amount decimal.Decimal
}

// Kind returns "income" or "expense".
func (m Movement) Kind() string {
	if m.Amount.IsNegative() {
		return "expense"
	}
	return "income"
}

// Movements lists the lines of an account on a date, ordered by date then
// entry ID. Lines with no amount in the bucket's slot are left out.
func (e *Engine) Movements(ctx context.Context, accountID int, bucket model.Bucket, date time.Time) ([]Movement, error) {
	slot := bucket.Slot()
	if slot == model.SlotAlternate && !e.src.HasAlternate() {
		return nil, nil
	}
	lines, err := e.src.Lines(ctx, accountID, date, date)
	if err != nil {
		return nil, fmt.Errorf("reading ledger for account %d: %w", accountID, err)
	}

	out := make([]Movement, 0, len(lines))
	for _, l := range lines {
		debit, credit := l.Amounts(slot)
		amount := debit.Sub(credit)
		if debit.IsZero() && credit.IsZero() {
			continue
		}
		out = append(out, Movement{
			Date:         l.Date,
			EntryID:      l.EntryID,
			Description:  l.Description,
			Reference:    l.Reference,
			Counterparty: l.Counterparty,
			Amount:       amount,
		})
	}
	return out, nil
}

// DayBalance is the final balance of one account on one day.
type DayBalance struct {
	AccountID int
	Bucket    model.Bucket
	Final     decimal.Decimal
}

// DayBalances are the balances of a set of accounts on one day.
type DayBalances struct {
	Date     time.Time
	Balances []DayBalance
}

// History returns, for each of the last days days up to and including
// date, the final balance of every account in its own bucket. Days are
// returned oldest first.
func (e *Engine) History(ctx context.Context, accounts []model.Account, date time.Time, days int) ([]DayBalances, error) {
	if days <= 0 {
		return nil, nil
	}
	end := truncate(date)
	start := end.AddDate(0, 0, -(days - 1))

	out := make([]DayBalances, days)
	for i := range out {
		out[i].Date = start.AddDate(0, 0, i)
	}

	for _, a := range accounts {
		lines, err := e.src.Lines(ctx, a.ID, time.Time{}, end)
		if err != nil {
			return nil, fmt.Errorf("reading ledger for account %d: %w", a.ID, err)
		}
		slot := a.Bucket.Slot()
		if slot == model.SlotAlternate && !e.src.HasAlternate() {
			lines = nil
		}
		for i := range out {
			t := accumulate(lines, out[i].Date, slot)
			out[i].Balances = append(out[i].Balances, DayBalance{AccountID: a.ID, Bucket: a.Bucket, Final: t.Final()})
		}
	}
	return out, nil
}
