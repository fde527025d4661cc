package denominations

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/model"
)

type face struct {
	value string
	typ   model.DenominationType
}

var standardFaces = map[string][]face{
	"USD": {
		{"100", model.DenominationBill}, {"50", model.DenominationBill}, {"20", model.DenominationBill},
		{"10", model.DenominationBill}, {"5", model.DenominationBill}, {"2", model.DenominationBill},
		{"1", model.DenominationBill}, {"1", model.DenominationCoin}, {"0.5", model.DenominationCoin},
		{"0.25", model.DenominationCoin}, {"0.1", model.DenominationCoin}, {"0.05", model.DenominationCoin},
		{"0.01", model.DenominationCoin},
	},
	"EUR": {
		{"500", model.DenominationBill}, {"200", model.DenominationBill}, {"100", model.DenominationBill},
		{"50", model.DenominationBill}, {"20", model.DenominationBill}, {"10", model.DenominationBill},
		{"5", model.DenominationBill}, {"2", model.DenominationCoin}, {"1", model.DenominationCoin},
		{"0.5", model.DenominationCoin}, {"0.2", model.DenominationCoin}, {"0.1", model.DenominationCoin},
		{"0.05", model.DenominationCoin}, {"0.02", model.DenominationCoin}, {"0.01", model.DenominationCoin},
	},
	"VES": {
		{"500", model.DenominationBill}, {"200", model.DenominationBill}, {"100", model.DenominationBill},
		{"50", model.DenominationBill}, {"20", model.DenominationBill}, {"10", model.DenominationBill},
		{"5", model.DenominationBill}, {"1", model.DenominationCoin}, {"0.5", model.DenominationCoin},
	},
}

// Default returns a catalog seeded with the standard faces of the given
// currencies. Currencies without a standard set are skipped; their faces
// have to be added by hand.
func Default(currencies ...string) *Catalog {
	c := &Catalog{byID: make(map[int]int)}
	seen := make(map[string]bool)
	for _, cur := range currencies {
		cur = strings.ToUpper(cur)
		if seen[cur] {
			continue
		}
		seen[cur] = true
		for _, f := range standardFaces[cur] {
			// Faces are distinct per currency, so Add cannot fail here.
			_, _ = c.Add(decimal.RequireFromString(f.value), cur, f.typ)
		}
	}
	return c
}
