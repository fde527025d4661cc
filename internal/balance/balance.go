// Package balance computes per-account opening, income, expense and final
// balances from posted ledger lines.
package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/model"
)

// Source is the ledger query adapter the engine reads from.
type Source interface {
	// Lines returns the posted lines of an account dated within [from, to].
	// A zero from means the start of the ledger.
	Lines(ctx context.Context, accountID int, from, to time.Time) ([]model.LedgerLine, error)
	// HasAlternate reports whether lines expose the alternate-currency slot.
	HasAlternate() bool
}

// Triple holds the balance components of one bucket.
type Triple struct {
	Initial decimal.Decimal
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Final is initial + income - expense.
func (t Triple) Final() decimal.Decimal {
	return t.Initial.Add(t.Income).Sub(t.Expense)
}

// Balances are the computed triples of an account on a date.
type Balances struct {
	Local Triple
	USD   Triple
	EUR   Triple
}

// For returns the triple of a bucket.
func (b Balances) For(bucket model.Bucket) Triple {
	switch bucket {
	case model.BucketUSD:
		return b.USD
	case model.BucketEUR:
		return b.EUR
	default:
		return b.Local
	}
}

// Engine computes balances from a ledger Source.
type Engine struct {
	src Source
}

// NewEngine creates an Engine.
func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// Compute returns the balances of an account on a date. The native slot
// always fills Local. When the ledger exposes the alternate slot its values
// fill USD and EUR: for a USD or EUR account they are the account's own
// balances, for a local account they are reference values. Without the
// alternate slot USD and EUR stay zero.
func (e *Engine) Compute(ctx context.Context, account model.Account, date time.Time) (Balances, error) {
	lines, err := e.src.Lines(ctx, account.ID, time.Time{}, date)
	if err != nil {
		return Balances{}, fmt.Errorf("reading ledger for account %d: %w", account.ID, err)
	}

	var b Balances
	b.Local = accumulate(lines, date, model.SlotNative)
	if e.src.HasAlternate() {
		alt := accumulate(lines, date, model.SlotAlternate)
		b.USD, b.EUR = alt, alt
	}
	return b, nil
}

// Triple returns the triple the bucket of an account selects.
func (e *Engine) Triple(ctx context.Context, account model.Account, bucket model.Bucket, date time.Time) (Triple, error) {
	b, err := e.Compute(ctx, account, date)
	if err != nil {
		return Triple{}, err
	}
	return b.For(bucket), nil
}

func accumulate(lines []model.LedgerLine, date time.Time, slot model.Slot) Triple {
	day := truncate(date)
	t := Triple{Initial: decimal.Zero, Income: decimal.Zero, Expense: decimal.Zero}
	for _, l := range lines {
		debit, credit := l.Amounts(slot)
		switch d := truncate(l.Date); {
		case d.Before(day):
			t.Initial = t.Initial.Add(debit).Sub(credit)
		case d.Equal(day):
			t.Income = t.Income.Add(debit)
			t.Expense = t.Expense.Add(credit)
		}
	}
	return t
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
