package batch

import (
	"context"
	"time"

	"github.com/cleared-dev/cashclose/internal/closing"
	"github.com/cleared-dev/cashclose/internal/model"
)

// Preview statuses.
const (
	StatusReady         = "ready"
	StatusExists        = "exists"
	StatusNoCash        = "no cash accounts"
	StatusUnknownEntity = "unknown entity"
)

// ClosePreview describes what MassClose would do for one entity.
type ClosePreview struct {
	Entity       string
	CashAccounts int
	Existing     *model.Close
	Status       string
}

// PreviewMassClose reports, per entity, whether MassClose would create a
// close. Nothing is written.
func (r *Runner) PreviewMassClose(ctx context.Context, date time.Time, entities []string) ([]ClosePreview, error) {
	codes := r.entityList(entities)
	out := make([]ClosePreview, 0, len(codes))
	for _, code := range codes {
		p := ClosePreview{Entity: code}
		if _, ok := r.entities.Entity(code); !ok {
			p.Status = StatusUnknownEntity
			out = append(out, p)
			continue
		}
		p.CashAccounts = len(r.accounts.CashAccounts(code))
		existing, err := r.closes.FindOpen(ctx, code, date)
		if err != nil {
			return nil, err
		}
		p.Existing = existing
		switch {
		case existing != nil:
			p.Status = StatusExists
		case p.CashAccounts == 0:
			p.Status = StatusNoCash
		default:
			p.Status = StatusReady
		}
		out = append(out, p)
	}
	return out, nil
}

// ConfirmPreview counts the closes MassConfirm would touch for one entity.
type ConfirmPreview struct {
	Entity           string
	ToConfirm        int
	AlreadyConfirmed int
}

// PreviewMassConfirm reports per entity how many closes are waiting for
// confirmation in the range and how many are already confirmed.
func (r *Runner) PreviewMassConfirm(ctx context.Context, from, to time.Time, entities []string) ([]ConfirmPreview, error) {
	codes := r.entityList(entities)
	out := make([]ConfirmPreview, 0, len(codes))
	for _, code := range codes {
		cs, err := r.closes.Find(ctx, closing.Query{
			Entities: []string{code},
			From:     from,
			To:       to,
			States:   []model.CloseState{model.StateClosed, model.StateConfirmed},
		})
		if err != nil {
			return nil, err
		}
		p := ConfirmPreview{Entity: code}
		for _, c := range cs {
			if c.State == model.StateClosed {
				p.ToConfirm++
			} else {
				p.AlreadyConfirmed++
			}
		}
		out = append(out, p)
	}
	return out, nil
}
