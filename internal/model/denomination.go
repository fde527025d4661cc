package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DenominationType distinguishes bills from coins.
type DenominationType string

const (
	DenominationBill DenominationType = "bill"
	DenominationCoin DenominationType = "coin"
)

// Denomination is a bill or coin face value in a currency.
type Denomination struct {
	ID       int
	Value    decimal.Decimal
	Currency string
	Type     DenominationType
	Active   bool
}

// Name returns a label such as "USD 100 bill".
func (d Denomination) Name() string {
	return fmt.Sprintf("%s %s %s", d.Currency, d.Value.String(), d.Type)
}

// SameFace reports whether d has the given value, currency and type.
func (d Denomination) SameFace(value decimal.Decimal, currency string, typ DenominationType) bool {
	return d.Value.Equal(value) && d.Currency == currency && d.Type == typ
}
