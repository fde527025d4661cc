package closing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/model"
)

// updateLine applies fn to one line of an in_progress close as a single
// unit of work.
func (s *Service) updateLine(ctx context.Context, closeID string, accountID int, op string, fn func(c *model.Close, l *model.CloseLine) error) (*model.Close, error) {
	c, err := s.Store.Update(ctx, closeID, func(c *model.Close) error {
		if err := requireState(c, op, model.StateInProgress); err != nil {
			return err
		}
		l := c.Line(accountID)
		if l == nil {
			return &LineNotFoundError{CloseID: c.ID, AccountID: accountID}
		}
		return fn(c, l)
	})
	if err != nil {
		return nil, err
	}
	s.logClose(c).Int("account", accountID).Msg(op)
	return c, nil
}

// LoadDenominations replaces the count rows of a line with one zero row per
// active denomination of the line's currency, highest value first.
func (s *Service) LoadDenominations(ctx context.Context, closeID string, accountID int) (*model.Close, error) {
	return s.updateLine(ctx, closeID, accountID, "load denominations", func(_ *model.Close, l *model.CloseLine) error {
		return s.loadDenominations(l)
	})
}

func (s *Service) loadDenominations(l *model.CloseLine) error {
	active := s.Denominations.Active(l.Currency)
	if len(active) == 0 {
		return &NoDenominationsConfiguredError{Currency: l.Currency, AccountID: l.AccountID}
	}
	rows := make([]model.DenominationLine, len(active))
	for i, d := range active {
		rows[i] = model.DenominationLine{DenominationID: d.ID, Value: d.Value, Type: d.Type}
	}
	l.Denominations = rows
	l.Counted = false
	return nil
}

// SetQuantity sets the counted quantity of one denomination on a line.
// Rows are loaded first when the line has none. Editing a count clears the
// line's counted flag until the count is confirmed again.
func (s *Service) SetQuantity(ctx context.Context, closeID string, accountID, denominationID, quantity int) (*model.Close, error) {
	if quantity < 0 {
		return nil, invalidf("quantity must not be negative, got %d", quantity)
	}
	return s.updateLine(ctx, closeID, accountID, "set quantity", func(_ *model.Close, l *model.CloseLine) error {
		if len(l.Denominations) == 0 {
			if err := s.loadDenominations(l); err != nil {
				return err
			}
		}
		l.Counted = false
		for i := range l.Denominations {
			if l.Denominations[i].DenominationID == denominationID {
				l.Denominations[i].Quantity = quantity
				return nil
			}
		}
		d, err := s.denominationFor(l, denominationID)
		if err != nil {
			return err
		}
		l.Denominations = append(l.Denominations, model.DenominationLine{
			DenominationID: d.ID, Value: d.Value, Type: d.Type, Quantity: quantity,
		})
		return nil
	})
}

func (s *Service) denominationFor(l *model.CloseLine, denominationID int) (model.Denomination, error) {
	d, ok := s.Denominations.Get(denominationID)
	if !ok {
		return model.Denomination{}, invalidf("denomination %d does not exist", denominationID)
	}
	if d.Currency != l.Currency {
		return model.Denomination{}, invalidf("denomination %d is %s, line %d counts %s", d.ID, d.Currency, l.AccountID, l.Currency)
	}
	if !d.Active {
		return model.Denomination{}, invalidf("denomination %d (%s) is inactive", d.ID, d.Name())
	}
	return d, nil
}

// BadBillParams describes a set-aside bill.
type BadBillParams struct {
	DenominationID int
	Quantity       int
	Condition      model.BillCondition
	Notes          string
}

// AddBadBill records bills set aside from the regular count. Only bills can
// be bad bills.
func (s *Service) AddBadBill(ctx context.Context, closeID string, accountID int, p BadBillParams) (*model.Close, error) {
	if p.Quantity <= 0 {
		return nil, invalidf("bad bill quantity must be positive, got %d", p.Quantity)
	}
	if !p.Condition.Valid() {
		return nil, invalidf("unknown bill condition %q", p.Condition)
	}
	return s.updateLine(ctx, closeID, accountID, "add bad bill", func(_ *model.Close, l *model.CloseLine) error {
		d, err := s.denominationFor(l, p.DenominationID)
		if err != nil {
			return err
		}
		if d.Type != model.DenominationBill {
			return invalidf("denomination %d is a coin; bad bills must be bills", d.ID)
		}
		l.BadBills = append(l.BadBills, model.BadBill{
			DenominationID: d.ID,
			Value:          d.Value,
			Quantity:       p.Quantity,
			Condition:      p.Condition,
			Notes:          p.Notes,
		})
		l.Counted = false
		return nil
	})
}

// RemoveBadBill deletes the bad-bill entry at index (zero-based, in entry
// order).
func (s *Service) RemoveBadBill(ctx context.Context, closeID string, accountID, index int) (*model.Close, error) {
	return s.updateLine(ctx, closeID, accountID, "remove bad bill", func(_ *model.Close, l *model.CloseLine) error {
		if index < 0 || index >= len(l.BadBills) {
			return invalidf("line %d has no bad bill #%d", l.AccountID, index+1)
		}
		l.BadBills = append(l.BadBills[:index], l.BadBills[index+1:]...)
		l.Counted = false
		return nil
	})
}

// ConfirmCount sets the counted amount of a line to its denomination total
// plus its bad-bill total and marks it counted.
func (s *Service) ConfirmCount(ctx context.Context, closeID string, accountID int) (*model.Close, error) {
	return s.updateLine(ctx, closeID, accountID, "confirm count", func(_ *model.Close, l *model.CloseLine) error {
		l.CountedAmount = l.PhysicalTotal()
		l.Counted = true
		return nil
	})
}

// SetLineNotes replaces the free-text notes of a line.
func (s *Service) SetLineNotes(ctx context.Context, closeID string, accountID int, notes string) (*model.Close, error) {
	return s.updateLine(ctx, closeID, accountID, "set line notes", func(_ *model.Close, l *model.CloseLine) error {
		l.Notes = notes
		return nil
	})
}

// CopyFromPrevious copies the count of the most recent earlier closed or
// confirmed close of the same entity into a line. Quantities are matched by
// denomination; rows that predate denomination IDs are matched by value and
// currency. Current quantities without a match are kept. Bad bills are
// replaced by the earlier ones that resolve to a denomination of the line's
// currency. Nothing changes when there is no earlier close.
func (s *Service) CopyFromPrevious(ctx context.Context, closeID string, accountID int) (*model.Close, error) {
	cur, err := s.Store.Get(ctx, closeID)
	if err != nil {
		return nil, err
	}
	if err := requireState(cur, "copy previous count", model.StateInProgress); err != nil {
		return nil, err
	}
	if cur.Line(accountID) == nil {
		return nil, &LineNotFoundError{CloseID: cur.ID, AccountID: accountID}
	}

	prior, err := s.previousLine(ctx, cur, accountID)
	if err != nil {
		return nil, err
	}

	return s.updateLine(ctx, closeID, accountID, "copy previous count", func(_ *model.Close, l *model.CloseLine) error {
		if len(l.Denominations) == 0 {
			if err := s.loadDenominations(l); err != nil {
				return err
			}
		}
		for _, p := range prior.Denominations {
			if p.Quantity == 0 {
				continue
			}
			denomID := s.resolveLegacy(p.DenominationID, p.Value, prior.Currency, p.Type)
			if denomID == 0 {
				continue
			}
			for i := range l.Denominations {
				if l.Denominations[i].DenominationID == denomID {
					l.Denominations[i].Quantity = p.Quantity
					break
				}
			}
		}

		bills := make([]model.BadBill, 0, len(prior.BadBills))
		for _, b := range prior.BadBills {
			d, ok := s.Denominations.Get(s.resolveLegacy(b.DenominationID, b.Value, prior.Currency, model.DenominationBill))
			if !ok || d.Currency != l.Currency {
				continue
			}
			b.DenominationID = d.ID
			b.Value = d.Value
			bills = append(bills, b)
		}
		l.BadBills = bills
		l.Counted = false
		return nil
	})
}

func (s *Service) previousLine(ctx context.Context, cur *model.Close, accountID int) (model.CloseLine, error) {
	cs, err := s.Store.Find(ctx, Query{
		Entities:  []string{cur.Entity},
		To:        cur.Date.AddDate(0, 0, -1),
		States:    []model.CloseState{model.StateClosed, model.StateConfirmed},
		AccountID: accountID,
	})
	if err != nil {
		return model.CloseLine{}, err
	}
	if len(cs) == 0 {
		return model.CloseLine{}, &NoPriorCloseError{Entity: cur.Entity, AccountID: accountID, Date: cur.Date}
	}
	// Find orders by date, so the last one is the most recent.
	return *cs[len(cs)-1].Line(accountID), nil
}

// resolveLegacy returns the denomination ID of a stored row, looking it up
// by face when the row has no ID.
func (s *Service) resolveLegacy(denominationID int, value decimal.Decimal, currency string, typ model.DenominationType) int {
	if denominationID != 0 {
		return denominationID
	}
	if typ == "" {
		typ = model.DenominationBill
	}
	if d, ok := s.Denominations.Lookup(value, currency, typ); ok {
		return d.ID
	}
	return 0
}
