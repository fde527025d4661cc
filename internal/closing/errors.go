package closing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/cashclose/internal/model"
)

// Error categories. Every error returned by the service for a rejected
// operation unwraps to exactly one of these.
var (
	// ErrValidation marks guard violations; the caller has to change input
	// or state before retrying.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing setup such as cash accounts or
	// denominations. The operation had no side effects.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks missing records.
	ErrNotFound = errors.New("not found")
)

const dateFormat = "2006-01-02"

// InvalidStateError is returned when an operation is not allowed in the
// close's current state.
type InvalidStateError struct {
	CloseID string
	Op      string
	State   model.CloseState
	Allowed []model.CloseState
}

func (e *InvalidStateError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("close %s: cannot %s in state %s (allowed: %s)", e.CloseID, e.Op, e.State, strings.Join(allowed, ", "))
}

func (e *InvalidStateError) Unwrap() error { return ErrValidation }

// AlreadyClosedError is returned when an operation would alter a close that
// has been closed or confirmed.
type AlreadyClosedError struct {
	CloseID string
	Op      string
	State   model.CloseState
}

func (e *AlreadyClosedError) Error() string {
	return fmt.Sprintf("close %s is already %s: cannot %s", e.CloseID, e.State, e.Op)
}

func (e *AlreadyClosedError) Unwrap() error { return ErrValidation }

// IncompleteCountError names the first line with a non-zero balance that
// has not been counted.
type IncompleteCountError struct {
	CloseID     string
	AccountID   int
	AccountName string
}

func (e *IncompleteCountError) Error() string {
	return fmt.Sprintf("close %s: account %d %s has not been counted", e.CloseID, e.AccountID, e.AccountName)
}

func (e *IncompleteCountError) Unwrap() error { return ErrValidation }

// DuplicateCloseError is returned when a non-cancelled close already exists
// for the entity and date.
type DuplicateCloseError struct {
	Entity     string
	Date       time.Time
	ExistingID string
}

func (e *DuplicateCloseError) Error() string {
	msg := fmt.Sprintf("entity %s already has a close for %s", e.Entity, e.Date.Format(dateFormat))
	if e.ExistingID != "" {
		msg += " (" + e.ExistingID + ")"
	}
	return msg
}

func (e *DuplicateCloseError) Unwrap() error { return ErrValidation }

// NoCashAccountsError is returned when an entity has no cash accounts.
type NoCashAccountsError struct {
	Entity string
}

func (e *NoCashAccountsError) Error() string {
	return fmt.Sprintf("entity %s has no cash accounts configured", e.Entity)
}

func (e *NoCashAccountsError) Unwrap() error { return ErrConfiguration }

// NoDenominationsConfiguredError is returned when a line's currency has no
// active denominations.
type NoDenominationsConfiguredError struct {
	Currency  string
	AccountID int
}

func (e *NoDenominationsConfiguredError) Error() string {
	return fmt.Sprintf("account %d: no active denominations configured for %s", e.AccountID, e.Currency)
}

func (e *NoDenominationsConfiguredError) Unwrap() error { return ErrConfiguration }

// MixedAlternateBucketsError is returned when one entity has cash accounts
// in both the USD and EUR buckets. Both read the single alternate ledger
// slot, so their balances could not be told apart.
type MixedAlternateBucketsError struct {
	Entity string
	USD    []int
	EUR    []int
}

func (e *MixedAlternateBucketsError) Error() string {
	return fmt.Sprintf("entity %s has both USD cash accounts %v and EUR cash accounts %v; they share one alternate ledger slot", e.Entity, e.USD, e.EUR)
}

func (e *MixedAlternateBucketsError) Unwrap() error { return ErrConfiguration }

// NoPriorCloseError is returned by copy-from-previous when no earlier
// closed or confirmed close has a line for the account.
type NoPriorCloseError struct {
	Entity    string
	AccountID int
	Date      time.Time
}

func (e *NoPriorCloseError) Error() string {
	return fmt.Sprintf("no closed or confirmed close before %s for entity %s and account %d", e.Date.Format(dateFormat), e.Entity, e.AccountID)
}

func (e *NoPriorCloseError) Unwrap() error { return ErrNotFound }

// CloseNotFoundError is returned for an unknown close ID.
type CloseNotFoundError struct {
	ID string
}

func (e *CloseNotFoundError) Error() string {
	return fmt.Sprintf("close %s not found", e.ID)
}

func (e *CloseNotFoundError) Unwrap() error { return ErrNotFound }

// LineNotFoundError is returned when a close has no line for an account.
type LineNotFoundError struct {
	CloseID   string
	AccountID int
}

func (e *LineNotFoundError) Error() string {
	return fmt.Sprintf("close %s has no line for account %d", e.CloseID, e.AccountID)
}

func (e *LineNotFoundError) Unwrap() error { return ErrNotFound }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// stateError reports an operation attempted outside its allowed states.
// Closed and confirmed closes get AlreadyClosedError.
func stateError(c *model.Close, op string, allowed ...model.CloseState) error {
	if c.State.Finished() {
		return &AlreadyClosedError{CloseID: c.ID, Op: op, State: c.State}
	}
	return &InvalidStateError{CloseID: c.ID, Op: op, State: c.State, Allowed: allowed}
}

func requireState(c *model.Close, op string, allowed ...model.CloseState) error {
	for _, s := range allowed {
		if c.State == s {
			return nil
		}
	}
	return stateError(c, op, allowed...)
}
