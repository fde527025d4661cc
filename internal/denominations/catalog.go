// Package denominations is the master list of bill and coin face values.
// Entries are unique per (value, currency, type) and are deactivated rather
// than deleted, since historical counts refer to them.
package denominations

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/model"
)

// Catalog provides lookup and mutation over the denomination list.
type Catalog struct {
	denoms []model.Denomination
	byID   map[int]int
}

// New creates a Catalog. Duplicate faces or IDs are rejected.
func New(denoms []model.Denomination) (*Catalog, error) {
	c := &Catalog{byID: make(map[int]int, len(denoms))}
	for _, d := range denoms {
		if err := c.insert(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) insert(d model.Denomination) error {
	if d.ID <= 0 {
		return fmt.Errorf("denomination %s: id must be positive", d.Name())
	}
	if _, ok := c.byID[d.ID]; ok {
		return fmt.Errorf("denomination %d: duplicate id", d.ID)
	}
	if !d.Value.IsPositive() {
		return fmt.Errorf("denomination %s: value must be positive", d.Name())
	}
	if existing, ok := c.Lookup(d.Value, d.Currency, d.Type); ok {
		return fmt.Errorf("denomination %s already exists as %d", d.Name(), existing.ID)
	}
	c.byID[d.ID] = len(c.denoms)
	c.denoms = append(c.denoms, d)
	return nil
}

// Path returns the catalog path inside a repo.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, "denominations", "denominations.csv")
}

// Load reads the catalog from a repo root.
func Load(repoRoot string) (*Catalog, error) {
	f, err := os.Open(Path(repoRoot))
	if err != nil {
		return nil, fmt.Errorf("opening denominations: %w", err)
	}
	defer f.Close()

	denoms, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading denominations: %w", err)
	}
	return New(denoms)
}

// Save writes the catalog to a repo root.
func (c *Catalog) Save(repoRoot string) error {
	if err := os.MkdirAll(filepath.Dir(Path(repoRoot)), 0o755); err != nil {
		return fmt.Errorf("creating denominations dir: %w", err)
	}
	f, err := os.Create(Path(repoRoot))
	if err != nil {
		return fmt.Errorf("creating denominations file: %w", err)
	}
	defer f.Close()

	if err := Write(f, c.denoms); err != nil {
		return fmt.Errorf("writing denominations: %w", err)
	}
	return nil
}

// All returns every denomination, including inactive ones.
func (c *Catalog) All() []model.Denomination {
	return c.denoms
}

// Get returns a denomination by ID, active or not.
func (c *Catalog) Get(id int) (model.Denomination, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.Denomination{}, false
	}
	return c.denoms[i], true
}

// Lookup finds a denomination by face.
func (c *Catalog) Lookup(value decimal.Decimal, currency string, typ model.DenominationType) (model.Denomination, bool) {
	currency = strings.ToUpper(currency)
	for _, d := range c.denoms {
		if d.SameFace(value, currency, typ) {
			return d, true
		}
	}
	return model.Denomination{}, false
}

// Active returns the active denominations of a currency ordered by value
// descending, bills before coins of the same value.
func (c *Catalog) Active(currency string) []model.Denomination {
	currency = strings.ToUpper(currency)
	var out []model.Denomination
	for _, d := range c.denoms {
		if d.Active && d.Currency == currency {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if cmp := out[i].Value.Cmp(out[j].Value); cmp != 0 {
			return cmp > 0
		}
		return out[i].Type == model.DenominationBill && out[j].Type == model.DenominationCoin
	})
	return out
}

// Currencies returns the currencies that have at least one denomination.
func (c *Catalog) Currencies() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range c.denoms {
		if !seen[d.Currency] {
			seen[d.Currency] = true
			out = append(out, d.Currency)
		}
	}
	sort.Strings(out)
	return out
}

// Add appends a new active denomination and returns it with its ID.
func (c *Catalog) Add(value decimal.Decimal, currency string, typ model.DenominationType) (model.Denomination, error) {
	if typ != model.DenominationBill && typ != model.DenominationCoin {
		return model.Denomination{}, fmt.Errorf("unknown denomination type %q", typ)
	}
	maxID := 0
	for _, d := range c.denoms {
		maxID = max(maxID, d.ID)
	}
	d := model.Denomination{
		ID:       maxID + 1,
		Value:    value,
		Currency: strings.ToUpper(strings.TrimSpace(currency)),
		Type:     typ,
		Active:   true,
	}
	if d.Currency == "" {
		return model.Denomination{}, fmt.Errorf("denomination currency is required")
	}
	if err := c.insert(d); err != nil {
		return model.Denomination{}, err
	}
	return d, nil
}

// SetActive activates or deactivates a denomination. Historical counts keep
// their snapshotted value either way.
func (c *Catalog) SetActive(id int, active bool) error {
	i, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("denomination %d not found", id)
	}
	c.denoms[i].Active = active
	return nil
}
