// Package batch runs close operations across several entities. Each entity
// is its own unit of work; one entity failing never stops the others.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/cashclose/internal/closing"
	"github.com/cleared-dev/cashclose/internal/model"
)

// Closes is the part of closing.Service the runner drives.
type Closes interface {
	Create(ctx context.Context, p closing.CreateParams) (*model.Close, error)
	FindOpen(ctx context.Context, entity string, date time.Time) (*model.Close, error)
	Find(ctx context.Context, q closing.Query) ([]*model.Close, error)
	Confirm(ctx context.Context, closeID, user string) (*model.Close, error)
}

// Entities lists configured entities.
type Entities interface {
	EntityCodes() []string
	Entity(code string) (model.Entity, bool)
}

// CashAccounts lists the cash accounts of an entity.
type CashAccounts interface {
	CashAccounts(entity string) []model.Account
}

// EntityError is a failure of one entity within a batch.
type EntityError struct {
	Entity  string
	CloseID string
	Err     error
}

func (e EntityError) Error() string {
	if e.CloseID != "" {
		return fmt.Sprintf("%s (close %s): %v", e.Entity, e.CloseID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Entity, e.Err)
}

func (e EntityError) Unwrap() error { return e.Err }

// Runner executes batch operations.
type Runner struct {
	closes   Closes
	entities Entities
	accounts CashAccounts
	log      zerolog.Logger
}

// NewRunner creates a Runner.
func NewRunner(closes Closes, entities Entities, accounts CashAccounts, log zerolog.Logger) *Runner {
	return &Runner{closes: closes, entities: entities, accounts: accounts, log: log}
}

// entityList normalizes the requested entities. Empty means every
// configured entity. Unknown codes are kept so they are reported per entity.
func (r *Runner) entityList(requested []string) []string {
	if len(requested) == 0 {
		return r.entities.EntityCodes()
	}
	seen := make(map[string]bool, len(requested))
	out := make([]string, 0, len(requested))
	for _, e := range requested {
		code := strings.ToUpper(strings.TrimSpace(e))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

// MassCloseParams holds parameters for MassClose.
type MassCloseParams struct {
	Date          time.Time
	Entities      []string
	SkipExisting  bool
	GenerateLines bool
	User          string
}

// MassCloseResult is the per-entity outcome of MassClose.
type MassCloseResult struct {
	Created []*model.Close
	// Skipped holds the existing closes, untouched.
	Skipped []*model.Close
	Failed  []EntityError
}

// Summary returns a one-line description of the outcome.
func (r MassCloseResult) Summary() string {
	return fmt.Sprintf("%d created, %d skipped, %d failed", len(r.Created), len(r.Skipped), len(r.Failed))
}

// MassClose creates a close for every entity on a date.
func (r *Runner) MassClose(ctx context.Context, p MassCloseParams) (MassCloseResult, error) {
	var res MassCloseResult
	if p.Date.IsZero() {
		return res, fmt.Errorf("%w: close date is required", closing.ErrValidation)
	}
	if p.User == "" {
		return res, fmt.Errorf("%w: user is required", closing.ErrValidation)
	}

	for _, code := range r.entityList(p.Entities) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if p.SkipExisting {
			existing, err := r.closes.FindOpen(ctx, code, p.Date)
			if err != nil {
				res.Failed = append(res.Failed, r.fail(code, "", err))
				continue
			}
			if existing != nil {
				res.Skipped = append(res.Skipped, existing)
				continue
			}
		}
		c, err := r.closes.Create(ctx, closing.CreateParams{
			Date:          p.Date,
			Entity:        code,
			User:          p.User,
			GenerateLines: p.GenerateLines,
		})
		if err != nil {
			res.Failed = append(res.Failed, r.fail(code, "", err))
			continue
		}
		res.Created = append(res.Created, c)
	}

	r.log.Info().
		Str("date", p.Date.Format(time.DateOnly)).
		Int("created", len(res.Created)).
		Int("skipped", len(res.Skipped)).
		Int("failed", len(res.Failed)).
		Msg("mass close")
	return res, nil
}

// MassConfirmParams holds parameters for MassConfirm.
type MassConfirmParams struct {
	From     time.Time
	To       time.Time
	Entities []string
	User     string
}

// MassConfirmResult is the outcome of MassConfirm.
type MassConfirmResult struct {
	Confirmed []*model.Close
	// Idle lists entities that had no closed close in the range.
	Idle   []string
	Failed []EntityError
}

// Summary returns a one-line description of the outcome.
func (r MassConfirmResult) Summary() string {
	return fmt.Sprintf("%d confirmed, %d idle, %d failed", len(r.Confirmed), len(r.Idle), len(r.Failed))
}

// MassConfirm confirms every closed close in the date range.
func (r *Runner) MassConfirm(ctx context.Context, p MassConfirmParams) (MassConfirmResult, error) {
	var res MassConfirmResult
	if p.User == "" {
		return res, fmt.Errorf("%w: user is required", closing.ErrValidation)
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.To.Before(p.From) {
		return res, fmt.Errorf("%w: range ends before it starts", closing.ErrValidation)
	}

	for _, code := range r.entityList(p.Entities) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		cs, err := r.closes.Find(ctx, closing.Query{
			Entities: []string{code},
			From:     p.From,
			To:       p.To,
			States:   []model.CloseState{model.StateClosed},
		})
		if err != nil {
			res.Failed = append(res.Failed, r.fail(code, "", err))
			continue
		}
		if len(cs) == 0 {
			res.Idle = append(res.Idle, code)
			continue
		}
		for _, c := range cs {
			confirmed, err := r.closes.Confirm(ctx, c.ID, p.User)
			if err != nil {
				res.Failed = append(res.Failed, r.fail(code, c.ID, err))
				continue
			}
			res.Confirmed = append(res.Confirmed, confirmed)
		}
	}

	r.log.Info().
		Int("confirmed", len(res.Confirmed)).
		Int("idle", len(res.Idle)).
		Int("failed", len(res.Failed)).
		Msg("mass confirm")
	return res, nil
}

func (r *Runner) fail(entity, closeID string, err error) EntityError {
	r.log.Warn().Err(err).Str("entity", entity).Str("close_id", closeID).Msg("batch entity failed")
	return EntityError{Entity: entity, CloseID: closeID, Err: err}
}

// Errors joins the failures of a batch, or returns nil.
func Errors(failed []EntityError) error {
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, len(failed))
	for i, f := range failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}
