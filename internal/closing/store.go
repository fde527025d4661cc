package closing

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/cleared-dev/cashclose/internal/model"
)

// Store persists closes. Each call is one unit of work on one close.
type Store interface {
	// Insert stores a new close. It fails with DuplicateCloseError when a
	// non-cancelled close exists for the same entity and date.
	Insert(ctx context.Context, c *model.Close) error
	// Get returns a close or CloseNotFoundError.
	Get(ctx context.Context, id string) (*model.Close, error)
	// Update loads a close, applies fn to it and stores the result. When fn
	// returns an error nothing is written and the error is returned as is.
	Update(ctx context.Context, id string, fn func(*model.Close) error) (*model.Close, error)
	// Find returns the closes matching q ordered by date, entity and
	// creation time.
	Find(ctx context.Context, q Query) ([]*model.Close, error)
}

// Query selects closes. Zero fields do not filter.
type Query struct {
	Entities         []string
	From             time.Time
	To               time.Time
	States           []model.CloseState
	ExcludeCancelled bool
	// AccountID keeps only closes that have a line for the account.
	AccountID int
}

// Match reports whether c satisfies the query. Stores that cannot push a
// filter down use it to finish the job.
func (q Query) Match(c *model.Close) bool {
	if len(q.Entities) > 0 && !slices.ContainsFunc(q.Entities, func(e string) bool { return strings.EqualFold(e, c.Entity) }) {
		return false
	}
	if !q.From.IsZero() && c.Date.Before(day(q.From)) {
		return false
	}
	if !q.To.IsZero() && c.Date.After(day(q.To)) {
		return false
	}
	if len(q.States) > 0 && !slices.Contains(q.States, c.State) {
		return false
	}
	if q.ExcludeCancelled && c.State == model.StateCancelled {
		return false
	}
	if q.AccountID != 0 && c.Line(q.AccountID) == nil {
		return false
	}
	return true
}

// SortCloses orders closes by date, entity and creation time.
func SortCloses(cs []*model.Close) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Entity != b.Entity {
			return a.Entity < b.Entity
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to a UTC calendar day, the form close dates are stored in.
func Day(t time.Time) time.Time { return day(t) }
