package filestore

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/model"
)

// closeDoc is the YAML form of a close. Amounts are strings so they keep
// their exact decimal representation.
type closeDoc struct {
	ID                 string        `yaml:"id"`
	Ref                string        `yaml:"ref"`
	Date               string        `yaml:"date"`
	Entity             string        `yaml:"entity"`
	ResponsibleUser    string        `yaml:"responsible_user"`
	State              string        `yaml:"state"`
	Notes              string        `yaml:"notes,omitempty"`
	CreatedAt          time.Time     `yaml:"created_at"`
	ClosedSignature    string        `yaml:"closed_signature,omitempty"`
	ClosedAt           *time.Time    `yaml:"closed_at,omitempty"`
	ConfirmedBy        string        `yaml:"confirmed_by,omitempty"`
	ConfirmedSignature string        `yaml:"confirmed_signature,omitempty"`
	ConfirmedAt        *time.Time    `yaml:"confirmed_at,omitempty"`
	Lines              []lineDoc     `yaml:"lines,omitempty"`
	BankLines          []bankLineDoc `yaml:"bank_lines,omitempty"`
}

type lineDoc struct {
	AccountID      int            `yaml:"account_id"`
	AccountName    string         `yaml:"account_name"`
	Bucket         string         `yaml:"bucket"`
	Currency       string         `yaml:"currency"`
	InitialBalance string         `yaml:"initial_balance"`
	TotalIncome    string         `yaml:"total_income"`
	TotalExpense   string         `yaml:"total_expense"`
	CountedAmount  string         `yaml:"counted_amount"`
	Counted        bool           `yaml:"counted"`
	Notes          string         `yaml:"notes,omitempty"`
	Denominations  []denomLineDoc `yaml:"denominations,omitempty"`
	BadBills       []badBillDoc   `yaml:"bad_bills,omitempty"`
}

type denomLineDoc struct {
	DenominationID int    `yaml:"denomination_id,omitempty"`
	Value          string `yaml:"value"`
	Type           string `yaml:"type,omitempty"`
	Quantity       int    `yaml:"quantity"`
}

type badBillDoc struct {
	DenominationID int    `yaml:"denomination_id,omitempty"`
	Value          string `yaml:"value"`
	Quantity       int    `yaml:"quantity"`
	Condition      string `yaml:"condition"`
	Notes          string `yaml:"notes,omitempty"`
}

type bankLineDoc struct {
	AccountID      int    `yaml:"account_id"`
	AccountName    string `yaml:"account_name"`
	Currency       string `yaml:"currency"`
	ClosingBalance string `yaml:"closing_balance"`
	Notes          string `yaml:"notes,omitempty"`
}

const dateFormat = "2006-01-02"

func marshalClose(c *model.Close) closeDoc {
	doc := closeDoc{
		ID:                 c.ID,
		Ref:                c.Ref,
		Date:               c.Date.Format(dateFormat),
		Entity:             c.Entity,
		ResponsibleUser:    c.ResponsibleUser,
		State:              string(c.State),
		Notes:              c.Notes,
		CreatedAt:          c.CreatedAt,
		ClosedSignature:    encodeSig(c.ClosedSignature),
		ClosedAt:           c.ClosedAt,
		ConfirmedBy:        c.ConfirmedBy,
		ConfirmedSignature: encodeSig(c.ConfirmedSignature),
		ConfirmedAt:        c.ConfirmedAt,
	}
	for _, l := range c.Lines {
		ld := lineDoc{
			AccountID:      l.AccountID,
			AccountName:    l.AccountName,
			Bucket:         string(l.Bucket),
			Currency:       l.Currency,
			InitialBalance: l.InitialBalance.String(),
			TotalIncome:    l.TotalIncome.String(),
			TotalExpense:   l.TotalExpense.String(),
			CountedAmount:  l.CountedAmount.String(),
			Counted:        l.Counted,
			Notes:          l.Notes,
		}
		for _, d := range l.Denominations {
			ld.Denominations = append(ld.Denominations, denomLineDoc{
				DenominationID: d.DenominationID, Value: d.Value.String(), Type: string(d.Type), Quantity: d.Quantity,
			})
		}
		for _, b := range l.BadBills {
			ld.BadBills = append(ld.BadBills, badBillDoc{
				DenominationID: b.DenominationID, Value: b.Value.String(), Quantity: b.Quantity, Condition: string(b.Condition), Notes: b.Notes,
			})
		}
		doc.Lines = append(doc.Lines, ld)
	}
	for _, b := range c.BankLines {
		doc.BankLines = append(doc.BankLines, bankLineDoc{
			AccountID: b.AccountID, AccountName: b.AccountName, Currency: b.Currency,
			ClosingBalance: b.ClosingBalance.String(), Notes: b.Notes,
		})
	}
	return doc
}

func unmarshalClose(doc closeDoc) (*model.Close, error) {
	date, err := time.Parse(dateFormat, doc.Date)
	if err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", doc.Date, err)
	}
	state := model.CloseState(doc.State)
	if !state.Valid() {
		return nil, fmt.Errorf("unknown state %q", doc.State)
	}
	closedSig, err := decodeSig(doc.ClosedSignature)
	if err != nil {
		return nil, fmt.Errorf("decoding closed_signature: %w", err)
	}
	confirmedSig, err := decodeSig(doc.ConfirmedSignature)
	if err != nil {
		return nil, fmt.Errorf("decoding confirmed_signature: %w", err)
	}

	c := &model.Close{
		ID:                 doc.ID,
		Ref:                doc.Ref,
		Date:               date,
		Entity:             doc.Entity,
		ResponsibleUser:    doc.ResponsibleUser,
		State:              state,
		Notes:              doc.Notes,
		CreatedAt:          doc.CreatedAt,
		ClosedSignature:    closedSig,
		ClosedAt:           doc.ClosedAt,
		ConfirmedBy:        doc.ConfirmedBy,
		ConfirmedSignature: confirmedSig,
		ConfirmedAt:        doc.ConfirmedAt,
	}

	for _, ld := range doc.Lines {
		l := model.CloseLine{
			AccountID:   ld.AccountID,
			AccountName: ld.AccountName,
			Bucket:      model.Bucket(ld.Bucket),
			Currency:    ld.Currency,
			Counted:     ld.Counted,
			Notes:       ld.Notes,
		}
		if !l.Bucket.Valid() {
			return nil, fmt.Errorf("line %d: unknown bucket %q", ld.AccountID, ld.Bucket)
		}
		amounts := []struct {
			name string
			s    string
			dst  *decimal.Decimal
		}{
			{"initial_balance", ld.InitialBalance, &l.InitialBalance},
			{"total_income", ld.TotalIncome, &l.TotalIncome},
			{"total_expense", ld.TotalExpense, &l.TotalExpense},
			{"counted_amount", ld.CountedAmount, &l.CountedAmount},
		}
		for _, a := range amounts {
			if *a.dst, err = parseAmount(a.s); err != nil {
				return nil, fmt.Errorf("line %d: parsing %s: %w", ld.AccountID, a.name, err)
			}
		}
		for _, dd := range ld.Denominations {
			v, err := parseAmount(dd.Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing denomination value: %w", ld.AccountID, err)
			}
			l.Denominations = append(l.Denominations, model.DenominationLine{
				DenominationID: dd.DenominationID, Value: v, Type: model.DenominationType(dd.Type), Quantity: dd.Quantity,
			})
		}
		for _, bd := range ld.BadBills {
			v, err := parseAmount(bd.Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing bad bill value: %w", ld.AccountID, err)
			}
			l.BadBills = append(l.BadBills, model.BadBill{
				DenominationID: bd.DenominationID, Value: v, Quantity: bd.Quantity,
				Condition: model.BillCondition(bd.Condition), Notes: bd.Notes,
			})
		}
		c.Lines = append(c.Lines, l)
	}

	for _, bd := range doc.BankLines {
		v, err := parseAmount(bd.ClosingBalance)
		if err != nil {
			return nil, fmt.Errorf("bank line %d: parsing closing_balance: %w", bd.AccountID, err)
		}
		c.BankLines = append(c.BankLines, model.BankLine{
			AccountID: bd.AccountID, AccountName: bd.AccountName, Currency: bd.Currency,
			ClosingBalance: v, Notes: bd.Notes,
		})
	}
	return c, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func encodeSig(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

func decodeSig(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(s)
}
