package consolidated

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/model"
)

// BadBillGroup is the quantity and value of bad bills sharing a key.
type BadBillGroup struct {
	Quantity int
	Total    decimal.Decimal
}

func (g BadBillGroup) add(b model.BadBill) BadBillGroup {
	return BadBillGroup{Quantity: g.Quantity + b.Quantity, Total: g.Total.Add(b.Total())}
}

// FaceKey identifies a bill face.
type FaceKey struct {
	Currency string
	Value    string
}

// BadBillSummary groups the bad bills of a set of closes.
type BadBillSummary struct {
	ByCondition map[model.BillCondition]BadBillGroup
	ByFace      map[FaceKey]BadBillGroup
	ByCurrency  map[string]BadBillGroup
	Entries     []BadBillEntry
}

// BadBillEntry is one recorded bad bill with its close context.
type BadBillEntry struct {
	Entity    string
	CloseID   string
	AccountID int
	Currency  string
	Bill      model.BadBill
}

// Faces returns the keys of ByFace ordered by currency then value
// descending.
func (s BadBillSummary) Faces() []FaceKey {
	keys := make([]FaceKey, 0, len(s.ByFace))
	for k := range s.ByFace {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Currency != keys[j].Currency {
			return keys[i].Currency < keys[j].Currency
		}
		vi, _ := decimal.NewFromString(keys[i].Value)
		vj, _ := decimal.NewFromString(keys[j].Value)
		return vi.GreaterThan(vj)
	})
	return keys
}

// BadBills summarizes the bad bills recorded on matching closes.
func BadBills(ctx context.Context, finder Finder, f Filter) (BadBillSummary, error) {
	s := BadBillSummary{
		ByCondition: make(map[model.BillCondition]BadBillGroup),
		ByFace:      make(map[FaceKey]BadBillGroup),
		ByCurrency:  make(map[string]BadBillGroup),
	}
	cs, err := find(ctx, finder, f)
	if err != nil {
		return s, err
	}
	for _, c := range cs {
		for _, l := range c.Lines {
			for _, b := range l.BadBills {
				face := FaceKey{Currency: l.Currency, Value: b.Value.String()}
				s.ByCondition[b.Condition] = s.ByCondition[b.Condition].add(b)
				s.ByFace[face] = s.ByFace[face].add(b)
				s.ByCurrency[l.Currency] = s.ByCurrency[l.Currency].add(b)
				s.Entries = append(s.Entries, BadBillEntry{
					Entity: c.Entity, CloseID: c.ID, AccountID: l.AccountID, Currency: l.Currency, Bill: b,
				})
			}
		}
	}
	return s, nil
}
