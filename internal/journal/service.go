package journal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/cleared-dev/cashclose/internal/model"
)

// Service reads the monthly journal files of the external ledger and
// exposes them as posted ledger lines. It never posts entries.
type Service struct {
	repoRoot     string
	accounts     AccountChecker
	dualCurrency bool
}

// NewService creates a journal Service. dualCurrency reports whether the
// ledger populates the alternate-currency columns.
func NewService(repoRoot string, accounts AccountChecker, dualCurrency bool) *Service {
	return &Service{repoRoot: repoRoot, accounts: accounts, dualCurrency: dualCurrency}
}

// HasAlternate reports whether ledger lines carry the alternate slot.
func (s *Service) HasAlternate() bool {
	return s.dualCurrency
}

// Month identifies one journal file.
type Month struct {
	Year  int
	Month int
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

func (m Month) before(t time.Time) bool {
	return m.Year < t.Year() || (m.Year == t.Year() && m.Month < int(t.Month()))
}

func (m Month) after(t time.Time) bool {
	return m.Year > t.Year() || (m.Year == t.Year() && m.Month > int(t.Month()))
}

// Months lists the months that have a journal file, oldest first.
func (s *Service) Months() ([]Month, error) {
	matches, err := filepath.Glob(filepath.Join(s.repoRoot, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", "journal.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing journals: %w", err)
	}
	months := make([]Month, 0, len(matches))
	for _, m := range matches {
		monthDir := filepath.Dir(m)
		year, _ := strconv.Atoi(filepath.Base(filepath.Dir(monthDir)))
		month, _ := strconv.Atoi(filepath.Base(monthDir))
		if month < 1 || month > 12 {
			continue
		}
		months = append(months, Month{Year: year, Month: month})
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year < months[j].Year
		}
		return months[i].Month < months[j].Month
	})
	return months, nil
}

// ReadMonth reads all legs for a given year/month. A missing file is an
// empty month.
func (s *Service) ReadMonth(year, month int) ([]model.Leg, error) {
	path := s.monthPath(year, month)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer f.Close()

	legs, err := ReadLegs(f)
	if err != nil {
		return nil, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return legs, nil
}

// WriteMonth replaces the journal file of a month.
func (s *Service) WriteMonth(year, month int, legs []model.Leg) error {
	path := s.monthPath(year, month)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating journal dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating journal %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteLegs(f, legs); err != nil {
		return fmt.Errorf("writing journal %s: %w", path, err)
	}
	return nil
}

// Lines returns the posted lines of an account dated within [from, to],
// both inclusive and compared by calendar day. A zero from reads from the
// first journal month. Lines are ordered by date, then entry ID.
func (s *Service) Lines(ctx context.Context, accountID int, from, to time.Time) ([]model.LedgerLine, error) {
	months, err := s.Months()
	if err != nil {
		return nil, err
	}

	fromDay, toDay := day(from), day(to)
	var lines []model.LedgerLine
	for _, m := range months {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if (!from.IsZero() && m.before(fromDay)) || m.after(toDay) {
			continue
		}
		legs, err := s.ReadMonth(m.Year, m.Month)
		if err != nil {
			return nil, err
		}
		for _, leg := range legs {
			if leg.AccountID != accountID || !leg.Status.Posted() {
				continue
			}
			d := day(leg.Date)
			if (!from.IsZero() && d.Before(fromDay)) || d.After(toDay) {
				continue
			}
			lines = append(lines, s.toLine(leg))
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if !lines[i].Date.Equal(lines[j].Date) {
			return lines[i].Date.Before(lines[j].Date)
		}
		return lines[i].EntryID < lines[j].EntryID
	})
	return lines, nil
}

func (s *Service) toLine(leg model.Leg) model.LedgerLine {
	line := model.LedgerLine{
		EntryID:      leg.EntryID,
		Date:         leg.Date,
		AccountID:    leg.AccountID,
		Description:  leg.Description,
		Reference:    leg.Reference,
		Counterparty: leg.Counterparty,
		Debit:        leg.Debit,
		Credit:       leg.Credit,
	}
	if s.dualCurrency {
		line.Alt = &model.AltAmount{Debit: leg.AltDebit, Credit: leg.AltCredit}
	}
	return line
}

// Check validates every journal month and returns the violations found,
// keyed by month.
func (s *Service) Check() (map[Month][]ValidationError, error) {
	months, err := s.Months()
	if err != nil {
		return nil, err
	}
	out := make(map[Month][]ValidationError)
	for _, m := range months {
		legs, err := s.ReadMonth(m.Year, m.Month)
		if err != nil {
			return nil, err
		}
		if verrs := ValidateLegs(legs, s.accounts, m.Year, m.Month, s.dualCurrency); len(verrs) > 0 {
			out[m] = verrs
		}
	}
	return out, nil
}

func (s *Service) monthPath(year, month int) string {
	return filepath.Join(s.repoRoot, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), "journal.csv")
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
