package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus represents the lifecycle state of a journal entry.
type EntryStatus string

const (
	StatusAutoConfirmed      EntryStatus = "auto-confirmed"
	StatusPendingReview      EntryStatus = "pending-review"
	StatusUserConfirmed      EntryStatus = "user-confirmed"
	StatusUserCorrected      EntryStatus = "user-corrected"
	StatusVoided             EntryStatus = "voided"
	StatusBootstrapConfirmed EntryStatus = "bootstrap-confirmed"
)

// Posted reports whether entries in this status are visible to balance
// computations. Pending and voided entries are not.
func (s EntryStatus) Posted() bool {
	switch s {
	case StatusAutoConfirmed, StatusUserConfirmed, StatusUserCorrected, StatusBootstrapConfirmed:
		return true
	}
	return false
}

// Leg is a single row in journal.csv (one side of a double-entry).
type Leg struct {
	EntryID      string          // "YYYY-MM-NNNx" where x = a,b,c...
	Date         time.Time       //nolint:revive // plain field name is clearest
	AccountID    int             //nolint:revive
	Description  string          //nolint:revive
	Debit        decimal.Decimal // zero if credit side
	Credit       decimal.Decimal // zero if debit side
	AltDebit     decimal.Decimal // alternate-currency debit, zero if absent
	AltCredit    decimal.Decimal // alternate-currency credit, zero if absent
	Counterparty string
	Reference    string
	Status       EntryStatus
	Notes        string
}

// EntryGroup returns the base entry ID (without leg suffix).
// "2025-01-001a" -> "2025-01-001"
func (l Leg) EntryGroup() string {
	id := l.EntryID
	i := len(id)
	for i > 0 && id[i-1] >= 'a' && id[i-1] <= 'z' {
		i--
	}
	return id[:i]
}

// AltAmount is the alternate-currency debit/credit pair of a ledger line.
type AltAmount struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// LedgerLine is a posted ledger line as seen by the balance engine.
type LedgerLine struct {
	EntryID      string
	Date         time.Time
	AccountID    int
	Description  string
	Reference    string
	Counterparty string
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	// Alt is nil when the ledger does not expose alternate amounts.
	Alt *AltAmount
}

// Native returns the native debit/credit pair.
func (l LedgerLine) Native() (debit, credit decimal.Decimal) {
	return l.Debit, l.Credit
}

// Amounts returns the debit/credit pair stored in the given slot. A missing
// alternate pair reads as zero.
func (l LedgerLine) Amounts(slot Slot) (debit, credit decimal.Decimal) {
	if slot == SlotAlternate {
		if l.Alt == nil {
			return decimal.Zero, decimal.Zero
		}
		return l.Alt.Debit, l.Alt.Credit
	}
	return l.Debit, l.Credit
}
