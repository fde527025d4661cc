package denominations

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/model"
)

const (
	numFields   = 5
	colID       = 0
	colValue    = 1
	colCurrency = 2
	colType     = 3
	colActive   = 4
)

var header = []string{"denomination_id", "value", "currency", "type", "active"}

// Read reads denominations.csv.
func Read(r io.Reader) ([]model.Denomination, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading denominations CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var out []model.Denomination
	for i, rec := range records[1:] {
		d, err := Unmarshal(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Write writes denominations.csv.
func Write(w io.Writer, denoms []model.Denomination) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, d := range denoms {
		if err := cw.Write(Marshal(d)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// Marshal converts a Denomination to a CSV row.
func Marshal(d model.Denomination) []string {
	return []string{
		strconv.Itoa(d.ID),
		d.Value.String(),
		d.Currency,
		string(d.Type),
		strconv.FormatBool(d.Active),
	}
}

// Unmarshal converts a CSV row to a Denomination.
func Unmarshal(record []string) (model.Denomination, error) {
	if len(record) != numFields {
		return model.Denomination{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	id, err := strconv.Atoi(record[colID])
	if err != nil {
		return model.Denomination{}, fmt.Errorf("parsing denomination_id %q: %w", record[colID], err)
	}
	value, err := decimal.NewFromString(record[colValue])
	if err != nil {
		return model.Denomination{}, fmt.Errorf("parsing value %q: %w", record[colValue], err)
	}
	typ := model.DenominationType(record[colType])
	if typ != model.DenominationBill && typ != model.DenominationCoin {
		return model.Denomination{}, fmt.Errorf("unknown type %q", record[colType])
	}
	active, err := strconv.ParseBool(record[colActive])
	if err != nil {
		return model.Denomination{}, fmt.Errorf("parsing active %q: %w", record[colActive], err)
	}
	return model.Denomination{
		ID:       id,
		Value:    value,
		Currency: strings.ToUpper(record[colCurrency]),
		Type:     typ,
		Active:   active,
	}, nil
}
