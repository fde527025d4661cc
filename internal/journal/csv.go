package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/model"
)

// Header is the CSV header written for journal.csv. The alt_debit and
// alt_credit pair holds the single alternate-currency slot; it is blank on
// ledgers that are not dual-currency.
//
// Files are read by column name, so journals written before the alternate
// columns existed, or with columns in another order, still load.
const Header = "entry_id,date,account_id,description,debit,credit,alt_debit,alt_credit,counterparty,reference,status,notes"

const dateFormat = "2006-01-02"

var (
	columns  = strings.Split(Header, ",")
	required = []string{"entry_id", "date", "account_id", "debit", "credit", "status"}

	// standard is the layout of files written by WriteLegs.
	standard = mustLayout(columns)
)

// layout maps column names to their position in a row.
type layout struct {
	index map[string]int
	width int
}

func newLayout(header []string) (layout, error) {
	l := layout{index: make(map[string]int, len(header)), width: len(header)}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := l.index[name]; dup {
			return layout{}, fmt.Errorf("duplicate column %q", name)
		}
		l.index[name] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := l.index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return layout{}, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return l, nil
}

func mustLayout(header []string) layout {
	l, err := newLayout(header)
	if err != nil {
		panic(err)
	}
	return l
}

// get returns the named field, or "" for a column the file does not have.
func (l layout) get(record []string, name string) string {
	i, ok := l.index[name]
	if !ok {
		return ""
	}
	return record[i]
}

// ReadLegs reads all legs from a journal.csv reader.
func ReadLegs(r io.Reader) ([]model.Leg, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading journal header: %w", err)
	}
	l, err := newLayout(header)
	if err != nil {
		return nil, fmt.Errorf("journal header: %w", err)
	}
	cr.FieldsPerRecord = l.width

	var legs []model.Leg
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading journal CSV: %w", err)
		}
		leg, err := l.unmarshal(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

// WriteLegs writes legs with the standard header.
func WriteLegs(w io.Writer, legs []model.Leg) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, leg := range legs {
		if err := cw.Write(MarshalLeg(leg)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalLeg converts a Leg to a row in the standard layout. Zero amounts
// are left blank.
func MarshalLeg(leg model.Leg) []string {
	fields := map[string]string{
		"entry_id":     leg.EntryID,
		"date":         leg.Date.Format(dateFormat),
		"account_id":   strconv.Itoa(leg.AccountID),
		"description":  leg.Description,
		"debit":        marshalAmount(leg.Debit),
		"credit":       marshalAmount(leg.Credit),
		"alt_debit":    marshalAmount(leg.AltDebit),
		"alt_credit":   marshalAmount(leg.AltCredit),
		"counterparty": leg.Counterparty,
		"reference":    leg.Reference,
		"status":       string(leg.Status),
		"notes":        leg.Notes,
	}
	row := make([]string, len(columns))
	for i, name := range columns {
		row[i] = fields[name]
	}
	return row
}

// UnmarshalLeg converts a row in the standard layout to a Leg.
func UnmarshalLeg(record []string) (model.Leg, error) {
	return standard.unmarshal(record)
}

func (l layout) unmarshal(record []string) (model.Leg, error) {
	if len(record) != l.width {
		return model.Leg{}, fmt.Errorf("expected %d fields, got %d", l.width, len(record))
	}

	date, err := time.Parse(dateFormat, l.get(record, "date"))
	if err != nil {
		return model.Leg{}, fmt.Errorf("parsing date %q: %w", l.get(record, "date"), err)
	}
	accountID, err := strconv.Atoi(l.get(record, "account_id"))
	if err != nil {
		return model.Leg{}, fmt.Errorf("parsing account_id %q: %w", l.get(record, "account_id"), err)
	}

	leg := model.Leg{
		EntryID:      l.get(record, "entry_id"),
		Date:         date,
		AccountID:    accountID,
		Description:  l.get(record, "description"),
		Counterparty: l.get(record, "counterparty"),
		Reference:    l.get(record, "reference"),
		Status:       model.EntryStatus(l.get(record, "status")),
		Notes:        l.get(record, "notes"),
	}

	for _, a := range []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"debit", &leg.Debit},
		{"credit", &leg.Credit},
		{"alt_debit", &leg.AltDebit},
		{"alt_credit", &leg.AltCredit},
	} {
		s := strings.TrimSpace(l.get(record, a.name))
		if s == "" {
			continue
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return model.Leg{}, fmt.Errorf("parsing %s %q: %w", a.name, s, err)
		}
		*a.dst = v
	}
	return leg, nil
}

func marshalAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}
