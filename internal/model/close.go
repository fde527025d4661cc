package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CloseState is the lifecycle state of a cash close.
type CloseState string

const (
	StateDraft      CloseState = "draft"
	StateInProgress CloseState = "in_progress"
	StateClosed     CloseState = "closed"
	StateConfirmed  CloseState = "confirmed"
	StateCancelled  CloseState = "cancelled"
)

// Valid reports whether s is a known state.
func (s CloseState) Valid() bool {
	switch s {
	case StateDraft, StateInProgress, StateClosed, StateConfirmed, StateCancelled:
		return true
	}
	return false
}

// Finished reports whether the close has been closed or confirmed.
func (s CloseState) Finished() bool {
	return s == StateClosed || s == StateConfirmed
}

// Close is the daily reconciliation record for one entity and one date.
type Close struct {
	ID              string
	Ref             string
	Date            time.Time
	Entity          string
	ResponsibleUser string
	State           CloseState
	Notes           string
	CreatedAt       time.Time

	ClosedSignature    []byte
	ClosedAt           *time.Time
	ConfirmedBy        string
	ConfirmedSignature []byte
	ConfirmedAt        *time.Time

	Lines     []CloseLine
	BankLines []BankLine
}

// Line returns the line for an account, or nil.
func (c *Close) Line(accountID int) *CloseLine {
	for i := range c.Lines {
		if c.Lines[i].AccountID == accountID {
			return &c.Lines[i]
		}
	}
	return nil
}

// PendingLine returns the first line with a non-zero final balance that has
// not been counted, or nil.
func (c *Close) PendingLine() *CloseLine {
	for i := range c.Lines {
		l := &c.Lines[i]
		if !l.Counted && !l.FinalBalance().IsZero() {
			return l
		}
	}
	return nil
}

// Totals sums the lines per bucket.
func (c *Close) Totals() BucketTotals {
	var t BucketTotals
	for _, l := range c.Lines {
		t.add(l)
	}
	return t
}

// Clone returns a deep copy of the close.
func (c *Close) Clone() *Close {
	out := *c
	out.ClosedSignature = cloneBytes(c.ClosedSignature)
	out.ConfirmedSignature = cloneBytes(c.ConfirmedSignature)
	out.ClosedAt = cloneTime(c.ClosedAt)
	out.ConfirmedAt = cloneTime(c.ConfirmedAt)
	out.Lines = make([]CloseLine, len(c.Lines))
	for i, l := range c.Lines {
		l.Denominations = append([]DenominationLine(nil), l.Denominations...)
		l.BadBills = append([]BadBill(nil), l.BadBills...)
		out.Lines[i] = l
	}
	out.BankLines = append([]BankLine(nil), c.BankLines...)
	return &out
}

// CloseLine is the per-account row of a close.
type CloseLine struct {
	AccountID      int
	AccountName    string
	Bucket         Bucket
	Currency       string
	InitialBalance decimal.Decimal
	TotalIncome    decimal.Decimal
	TotalExpense   decimal.Decimal
	CountedAmount  decimal.Decimal
	Counted        bool
	Notes          string

	Denominations []DenominationLine
	BadBills      []BadBill
}

// FinalBalance is initial + income - expense.
func (l CloseLine) FinalBalance() decimal.Decimal {
	return l.InitialBalance.Add(l.TotalIncome).Sub(l.TotalExpense)
}

// Difference is counted - final balance.
func (l CloseLine) Difference() decimal.Decimal {
	return l.CountedAmount.Sub(l.FinalBalance())
}

// DenominationTotal sums the denomination rows.
func (l CloseLine) DenominationTotal() decimal.Decimal {
	total := decimal.Zero
	for _, d := range l.Denominations {
		total = total.Add(d.Total())
	}
	return total
}

// BadBillTotal sums the bad-bill rows.
func (l CloseLine) BadBillTotal() decimal.Decimal {
	total := decimal.Zero
	for _, b := range l.BadBills {
		total = total.Add(b.Total())
	}
	return total
}

// PhysicalTotal is what a count confirmation would record.
func (l CloseLine) PhysicalTotal() decimal.Decimal {
	return l.DenominationTotal().Add(l.BadBillTotal())
}

// DenominationLine is one counted denomination of a line.
type DenominationLine struct {
	DenominationID int // 0 for legacy rows known only by value
	Value          decimal.Decimal
	Type           DenominationType
	Quantity       int
}

// Total is value x quantity.
func (d DenominationLine) Total() decimal.Decimal {
	return d.Value.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// BillCondition describes why a bill was set aside.
type BillCondition string

const (
	ConditionDamaged     BillCondition = "damaged"
	ConditionTorn        BillCondition = "torn"
	ConditionWorn        BillCondition = "worn"
	ConditionCounterfeit BillCondition = "counterfeit"
	ConditionOther       BillCondition = "other"
)

// Valid reports whether c is a known condition.
func (c BillCondition) Valid() bool {
	switch c {
	case ConditionDamaged, ConditionTorn, ConditionWorn, ConditionCounterfeit, ConditionOther:
		return true
	}
	return false
}

// BadBill is a counted bill kept out of the regular denomination rows.
type BadBill struct {
	DenominationID int // 0 for legacy rows known only by value
	Value          decimal.Decimal
	Quantity       int
	Condition      BillCondition
	Notes          string
}

// Total is value x quantity.
func (b BadBill) Total() decimal.Decimal {
	return b.Value.Mul(decimal.NewFromInt(int64(b.Quantity)))
}

// BankLine records a user-entered bank closing balance.
type BankLine struct {
	AccountID      int
	AccountName    string
	Currency       string
	ClosingBalance decimal.Decimal
	Notes          string
}

// Totals are the summed amounts of a set of lines.
type Totals struct {
	Initial    decimal.Decimal
	Income     decimal.Decimal
	Expense    decimal.Decimal
	Final      decimal.Decimal
	Counted    decimal.Decimal
	Difference decimal.Decimal
	Accounts   int
}

func (t *Totals) add(l CloseLine) {
	t.Initial = t.Initial.Add(l.InitialBalance)
	t.Income = t.Income.Add(l.TotalIncome)
	t.Expense = t.Expense.Add(l.TotalExpense)
	t.Final = t.Final.Add(l.FinalBalance())
	t.Counted = t.Counted.Add(l.CountedAmount)
	t.Difference = t.Difference.Add(l.Difference())
	t.Accounts++
}

// Plus returns the sum of t and u.
func (t Totals) Plus(u Totals) Totals {
	return Totals{
		Initial:    t.Initial.Add(u.Initial),
		Income:     t.Income.Add(u.Income),
		Expense:    t.Expense.Add(u.Expense),
		Final:      t.Final.Add(u.Final),
		Counted:    t.Counted.Add(u.Counted),
		Difference: t.Difference.Add(u.Difference),
		Accounts:   t.Accounts + u.Accounts,
	}
}

// BucketTotals holds totals per currency bucket.
type BucketTotals struct {
	Local Totals
	USD   Totals
	EUR   Totals
}

// For returns the totals of a bucket.
func (b BucketTotals) For(bucket Bucket) Totals {
	switch bucket {
	case BucketUSD:
		return b.USD
	case BucketEUR:
		return b.EUR
	default:
		return b.Local
	}
}

// Accounts is the number of lines across all buckets.
func (b BucketTotals) Accounts() int {
	return b.Local.Accounts + b.USD.Accounts + b.EUR.Accounts
}

// Plus returns the bucket-wise sum.
func (b BucketTotals) Plus(o BucketTotals) BucketTotals {
	return BucketTotals{
		Local: b.Local.Plus(o.Local),
		USD:   b.USD.Plus(o.USD),
		EUR:   b.EUR.Plus(o.EUR),
	}
}

func (b *BucketTotals) add(l CloseLine) {
	switch l.Bucket {
	case BucketUSD:
		b.USD.add(l)
	case BucketEUR:
		b.EUR.add(l)
	default:
		b.Local.add(l)
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
