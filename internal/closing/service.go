// Package closing runs the daily cash close: line generation from ledger
// balances, physical counts, and the draft, in_progress, closed, confirmed
// lifecycle with cancel and reopen.
package closing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/balance"
	"github.com/cleared-dev/cashclose/internal/id"
	"github.com/cleared-dev/cashclose/internal/model"
)

// Entities resolves configured entities.
type Entities interface {
	Entity(code string) (model.Entity, bool)
}

// Accounts is the cash account registry.
type Accounts interface {
	Get(id int) (model.Account, bool)
	CashAccounts(entity string) []model.Account
	BankAccounts(entity string) []model.Account
}

// Balances computes ledger balances and movements.
type Balances interface {
	Compute(ctx context.Context, account model.Account, date time.Time) (balance.Balances, error)
	Movements(ctx context.Context, accountID int, bucket model.Bucket, date time.Time) ([]balance.Movement, error)
}

// Denominations is the denomination catalog.
type Denominations interface {
	Active(currency string) []model.Denomination
	Get(id int) (model.Denomination, bool)
	Lookup(value decimal.Decimal, currency string, typ model.DenominationType) (model.Denomination, bool)
}

// SignatureSource returns the stored signature of a user. A user without a
// signature yields nil bytes and no error. Signatures are opaque.
type SignatureSource interface {
	Signature(ctx context.Context, user string) ([]byte, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Store         Store
	Entities      Entities
	Accounts      Accounts
	Balances      Balances
	Denominations Denominations
	Signatures    SignatureSource
	Log           zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service implements the close state machine and line reconciliation.
type Service struct {
	Deps
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{Deps: d}
}

// CreateParams holds parameters for creating a close.
type CreateParams struct {
	Date   time.Time
	Entity string
	User   string
	Notes  string
	// GenerateLines builds the lines before the close is stored, so the
	// close is created directly in in_progress.
	GenerateLines bool
}

// Create stores a new close for an entity and date.
func (s *Service) Create(ctx context.Context, p CreateParams) (*model.Close, error) {
	entity, ok := s.Entities.Entity(p.Entity)
	if !ok {
		return nil, fmt.Errorf("%w: unknown entity %q", ErrNotFound, p.Entity)
	}
	if p.Date.IsZero() {
		return nil, invalidf("close date is required")
	}
	if p.User == "" {
		return nil, invalidf("responsible user is required")
	}

	date := day(p.Date)
	c := &model.Close{
		ID:              id.NewCloseID(),
		Ref:             id.CloseRef(entity.Code, date),
		Date:            date,
		Entity:          entity.Code,
		ResponsibleUser: p.User,
		State:           model.StateDraft,
		Notes:           p.Notes,
		CreatedAt:       s.Now().UTC(),
	}

	if p.GenerateLines {
		lines, err := s.buildLines(ctx, entity, date)
		if err != nil {
			return nil, err
		}
		c.Lines = lines
		c.State = model.StateInProgress
	}

	if err := s.Store.Insert(ctx, c); err != nil {
		return nil, err
	}
	s.logClose(c).Int("lines", len(c.Lines)).Msg("close created")
	return c, nil
}

// Get returns a close by ID.
func (s *Service) Get(ctx context.Context, closeID string) (*model.Close, error) {
	return s.Store.Get(ctx, closeID)
}

// Find returns the closes matching q.
func (s *Service) Find(ctx context.Context, q Query) ([]*model.Close, error) {
	return s.Store.Find(ctx, q)
}

// FindOpen returns the non-cancelled close of an entity on a date, or nil.
func (s *Service) FindOpen(ctx context.Context, entity string, date time.Time) (*model.Close, error) {
	cs, err := s.Store.Find(ctx, Query{Entities: []string{entity}, From: date, To: date, ExcludeCancelled: true})
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, nil
	}
	return cs[0], nil
}

// GenerateLines replaces the lines of a draft close with freshly computed
// ones and moves it to in_progress.
func (s *Service) GenerateLines(ctx context.Context, closeID string) (*model.Close, error) {
	c, err := s.Store.Get(ctx, closeID)
	if err != nil {
		return nil, err
	}
	if err := requireState(c, "generate lines", model.StateDraft); err != nil {
		return nil, err
	}
	entity, ok := s.Entities.Entity(c.Entity)
	if !ok {
		return nil, fmt.Errorf("%w: unknown entity %q", ErrNotFound, c.Entity)
	}

	lines, err := s.buildLines(ctx, entity, c.Date)
	if err != nil {
		return nil, err
	}

	c, err = s.Store.Update(ctx, closeID, func(c *model.Close) error {
		if err := requireState(c, "generate lines", model.StateDraft); err != nil {
			return err
		}
		c.Lines = lines
		c.State = model.StateInProgress
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logClose(c).Int("lines", len(c.Lines)).Msg("lines generated")
	return c, nil
}

// buildLines computes one line per cash account of the entity.
func (s *Service) buildLines(ctx context.Context, entity model.Entity, date time.Time) ([]model.CloseLine, error) {
	accounts := s.Accounts.CashAccounts(entity.Code)
	if len(accounts) == 0 {
		return nil, &NoCashAccountsError{Entity: entity.Code}
	}

	var usd, eur []int
	for _, a := range accounts {
		switch a.Bucket {
		case model.BucketUSD:
			usd = append(usd, a.ID)
		case model.BucketEUR:
			eur = append(eur, a.ID)
		}
	}
	if len(usd) > 0 && len(eur) > 0 {
		return nil, &MixedAlternateBucketsError{Entity: entity.Code, USD: usd, EUR: eur}
	}

	lines := make([]model.CloseLine, 0, len(accounts))
	for _, a := range accounts {
		b, err := s.Balances.Compute(ctx, a, date)
		if err != nil {
			return nil, fmt.Errorf("computing balance of account %d for %s on %s: %w", a.ID, entity.Code, date.Format(dateFormat), err)
		}
		t := b.For(a.Bucket)
		currency := a.CloseCurrency
		if currency == "" {
			currency = entity.LocalCurrency
		}
		lines = append(lines, model.CloseLine{
			AccountID:      a.ID,
			AccountName:    a.Name,
			Bucket:         a.Bucket,
			Currency:       currency,
			InitialBalance: t.Initial,
			TotalIncome:    t.Income,
			TotalExpense:   t.Expense,
			CountedAmount:  decimal.Zero,
		})
	}
	return lines, nil
}

// Close moves an in_progress close to closed. Lines with a zero final
// balance are marked counted at zero; any other uncounted line blocks the
// transition. The responsible user's signature is captured.
func (s *Service) Close(ctx context.Context, closeID string) (*model.Close, error) {
	c, err := s.Store.Get(ctx, closeID)
	if err != nil {
		return nil, err
	}
	if err := requireState(c, "close", model.StateInProgress); err != nil {
		return nil, err
	}
	sig, err := s.signature(ctx, c.ResponsibleUser)
	if err != nil {
		return nil, err
	}

	c, err = s.Store.Update(ctx, closeID, func(c *model.Close) error {
		if err := requireState(c, "close", model.StateInProgress); err != nil {
			return err
		}
		for i := range c.Lines {
			l := &c.Lines[i]
			if !l.Counted && l.FinalBalance().IsZero() {
				l.CountedAmount = decimal.Zero
				l.Counted = true
			}
		}
		if l := c.PendingLine(); l != nil {
			return &IncompleteCountError{CloseID: c.ID, AccountID: l.AccountID, AccountName: l.AccountName}
		}
		now := s.Now().UTC()
		c.State = model.StateClosed
		c.ClosedSignature = sig
		c.ClosedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logClose(c).Bool("signed", len(sig) > 0).Msg("close closed")
	return c, nil
}

// Confirm moves a closed close to confirmed on behalf of user.
func (s *Service) Confirm(ctx context.Context, closeID, user string) (*model.Close, error) {
	if user == "" {
		return nil, invalidf("confirming user is required")
	}
	sig, err := s.signature(ctx, user)
	if err != nil {
		return nil, err
	}
	c, err := s.Store.Update(ctx, closeID, func(c *model.Close) error {
		if c.State != model.StateClosed {
			return &InvalidStateError{CloseID: c.ID, Op: "confirm", State: c.State, Allowed: []model.CloseState{model.StateClosed}}
		}
		now := s.Now().UTC()
		c.State = model.StateConfirmed
		c.ConfirmedBy = user
		c.ConfirmedSignature = sig
		c.ConfirmedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logClose(c).Str("user", user).Msg("close confirmed")
	return c, nil
}

// Cancel cancels a draft or in_progress close. Cancelled closes release the
// entity and date for a new close.
func (s *Service) Cancel(ctx context.Context, closeID string) (*model.Close, error) {
	c, err := s.Store.Update(ctx, closeID, func(c *model.Close) error {
		if err := requireState(c, "cancel", model.StateDraft, model.StateInProgress); err != nil {
			return err
		}
		c.State = model.StateCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logClose(c).Msg("close cancelled")
	return c, nil
}

// Reopen returns an in_progress close to draft so its lines can be
// regenerated. Lines are kept until then.
func (s *Service) Reopen(ctx context.Context, closeID string) (*model.Close, error) {
	c, err := s.Store.Update(ctx, closeID, func(c *model.Close) error {
		if err := requireState(c, "reopen", model.StateDraft, model.StateInProgress); err != nil {
			return err
		}
		c.State = model.StateDraft
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logClose(c).Msg("close reopened")
	return c, nil
}

// BankLineParams holds a user-entered bank closing balance.
type BankLineParams struct {
	AccountID      int
	ClosingBalance decimal.Decimal
	Notes          string
}

// SetBankLine records the closing balance of one of the entity's bank
// accounts. It is not reconciled against the ledger.
func (s *Service) SetBankLine(ctx context.Context, closeID string, p BankLineParams) (*model.Close, error) {
	c, err := s.Store.Update(ctx, closeID, func(c *model.Close) error {
		if err := requireState(c, "set bank line", model.StateDraft, model.StateInProgress); err != nil {
			return err
		}
		var acct *model.Account
		for _, a := range s.Accounts.BankAccounts(c.Entity) {
			if a.ID == p.AccountID {
				acct = &a
				break
			}
		}
		if acct == nil {
			return invalidf("account %d is not a bank account of entity %s", p.AccountID, c.Entity)
		}
		currency := acct.CloseCurrency
		if currency == "" {
			if e, ok := s.Entities.Entity(c.Entity); ok {
				currency = e.LocalCurrency
			}
		}
		line := model.BankLine{
			AccountID:      acct.ID,
			AccountName:    acct.Name,
			Currency:       currency,
			ClosingBalance: p.ClosingBalance,
			Notes:          p.Notes,
		}
		for i := range c.BankLines {
			if c.BankLines[i].AccountID == acct.ID {
				c.BankLines[i] = line
				return nil
			}
		}
		c.BankLines = append(c.BankLines, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logClose(c).Int("account", p.AccountID).Msg("bank line set")
	return c, nil
}

// Movements lists the ledger movements behind a line, signed in the line's
// bucket.
func (s *Service) Movements(ctx context.Context, closeID string, accountID int) ([]balance.Movement, error) {
	c, err := s.Store.Get(ctx, closeID)
	if err != nil {
		return nil, err
	}
	l := c.Line(accountID)
	if l == nil {
		return nil, &LineNotFoundError{CloseID: c.ID, AccountID: accountID}
	}
	return s.Balances.Movements(ctx, accountID, l.Bucket, c.Date)
}

func (s *Service) signature(ctx context.Context, user string) ([]byte, error) {
	if s.Signatures == nil {
		return nil, nil
	}
	sig, err := s.Signatures.Signature(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("loading signature of %s: %w", user, err)
	}
	return sig, nil
}

func (s *Service) logClose(c *model.Close) *zerolog.Event {
	return s.Log.Info().
		Str("close_id", c.ID).
		Str("entity", c.Entity).
		Str("date", c.Date.Format(dateFormat)).
		Str("state", string(c.State))
}
