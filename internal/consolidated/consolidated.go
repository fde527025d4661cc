// Package consolidated projects stored closes into cross-entity reporting
// rows. Every amount comes from the close lines; nothing is recomputed from
// the ledger.
package consolidated

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/closing"
	"github.com/cleared-dev/cashclose/internal/model"
)

// Finder returns stored closes.
type Finder interface {
	Find(ctx context.Context, q closing.Query) ([]*model.Close, error)
}

// Filter narrows the closes included in a report. Cancelled closes are
// always left out.
type Filter struct {
	From     time.Time
	To       time.Time
	Entities []string
	States   []model.CloseState
}

func (f Filter) query() closing.Query {
	return closing.Query{
		Entities:         f.Entities,
		From:             f.From,
		To:               f.To,
		States:           f.States,
		ExcludeCancelled: true,
	}
}

func find(ctx context.Context, finder Finder, f Filter) ([]*model.Close, error) {
	cs, err := finder.Find(ctx, f.query())
	if err != nil {
		return nil, fmt.Errorf("finding closes: %w", err)
	}
	return cs, nil
}

// Row is one close summarized per bucket.
type Row struct {
	Date    time.Time
	Entity  string
	CloseID string
	Ref     string
	State   model.CloseState
	Totals  model.BucketTotals
}

// Rows returns one row per (date, entity) close.
func Rows(ctx context.Context, finder Finder, f Filter) ([]Row, error) {
	cs, err := find(ctx, finder, f)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(cs))
	for i, c := range cs {
		rows[i] = Row{
			Date:    c.Date,
			Entity:  c.Entity,
			CloseID: c.ID,
			Ref:     c.Ref,
			State:   c.State,
			Totals:  c.Totals(),
		}
	}
	return rows, nil
}

// GrandTotals sums rows per bucket.
func GrandTotals(rows []Row) model.BucketTotals {
	var t model.BucketTotals
	for _, r := range rows {
		t = t.Plus(r.Totals)
	}
	return t
}

// LineRow is one close line with its close context.
type LineRow struct {
	Date        time.Time
	Entity      string
	CloseID     string
	State       model.CloseState
	AccountID   int
	AccountName string
	Bucket      model.Bucket
	Currency    string
	Initial     decimal.Decimal
	Income      decimal.Decimal
	Expense     decimal.Decimal
	Final       decimal.Decimal
	Counted     decimal.Decimal
	Difference  decimal.Decimal
	IsCounted   bool
}

// Lines returns one row per close line.
func Lines(ctx context.Context, finder Finder, f Filter) ([]LineRow, error) {
	cs, err := find(ctx, finder, f)
	if err != nil {
		return nil, err
	}
	var out []LineRow
	for _, c := range cs {
		for _, l := range c.Lines {
			out = append(out, LineRow{
				Date:        c.Date,
				Entity:      c.Entity,
				CloseID:     c.ID,
				State:       c.State,
				AccountID:   l.AccountID,
				AccountName: l.AccountName,
				Bucket:      l.Bucket,
				Currency:    l.Currency,
				Initial:     l.InitialBalance,
				Income:      l.TotalIncome,
				Expense:     l.TotalExpense,
				Final:       l.FinalBalance(),
				Counted:     l.CountedAmount,
				Difference:  l.Difference(),
				IsCounted:   l.Counted,
			})
		}
	}
	return out, nil
}
