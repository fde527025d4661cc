package accounts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/cashclose/internal/model"
)

// Service provides in-memory lookup over the chart of accounts and the
// cash-close annotations carried on it.
type Service struct {
	accounts []model.Account
	byID     map[int]int
}

// NewService creates a Service from a slice of accounts. Buckets are
// resolved from each account's close currency.
func NewService(accounts []model.Account) *Service {
	s := &Service{accounts: accounts}
	s.index()
	return s
}

func (s *Service) index() {
	s.byID = make(map[int]int, len(s.accounts))
	for i, a := range s.accounts {
		s.accounts[i].Bucket = model.ResolveBucket(a.CloseCurrency)
		s.byID[a.ID] = i
	}
}

// Path returns the chart-of-accounts path inside a repo.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, "accounts", "chart-of-accounts.csv")
}

// Load reads chart-of-accounts.csv from a repo root and returns a Service.
func Load(repoRoot string) (*Service, error) {
	f, err := os.Open(Path(repoRoot))
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by ID.
func (s *Service) Get(id int) (model.Account, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.Account{}, false
	}
	return s.accounts[i], true
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id int) bool {
	_, ok := s.byID[id]
	return ok
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// CashAccounts returns the non-deprecated cash accounts of an entity,
// ordered by account ID.
func (s *Service) CashAccounts(entity string) []model.Account {
	return s.filter(entity, func(a model.Account) bool { return a.Cash })
}

// BankAccounts returns the non-deprecated bank accounts of an entity,
// ordered by account ID.
func (s *Service) BankAccounts(entity string) []model.Account {
	return s.filter(entity, func(a model.Account) bool { return a.Bank })
}

func (s *Service) filter(entity string, keep func(model.Account) bool) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Deprecated || !strings.EqualFold(a.Entity, entity) || !keep(a) {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Flags are the cash-close annotations of an account. Nil fields are left
// unchanged by Set.
type Flags struct {
	Entity        *string
	Cash          *bool
	Bank          *bool
	CloseCurrency *string
	Deprecated    *bool
}

// Set updates the cash-close annotations of an existing account. Accounts
// are never created here; the chart belongs to the ledger.
func (s *Service) Set(id int, f Flags) (model.Account, error) {
	i, ok := s.byID[id]
	if !ok {
		return model.Account{}, fmt.Errorf("account %d not found", id)
	}
	a := s.accounts[i]
	if f.Entity != nil {
		a.Entity = strings.ToUpper(strings.TrimSpace(*f.Entity))
	}
	if f.Cash != nil {
		a.Cash = *f.Cash
	}
	if f.Bank != nil {
		a.Bank = *f.Bank
	}
	if f.CloseCurrency != nil {
		a.CloseCurrency = strings.ToUpper(strings.TrimSpace(*f.CloseCurrency))
		a.Bucket = model.ResolveBucket(a.CloseCurrency)
	}
	if f.Deprecated != nil {
		a.Deprecated = *f.Deprecated
	}
	if a.Cash && a.Bank {
		return model.Account{}, fmt.Errorf("account %d cannot be both cash and bank", id)
	}
	if (a.Cash || a.Bank) && a.Entity == "" {
		return model.Account{}, fmt.Errorf("account %d: cash and bank accounts need an entity", id)
	}
	s.accounts[i] = a
	return a, nil
}

// Save writes the chart of accounts to accounts/chart-of-accounts.csv.
func (s *Service) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, "accounts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(Path(repoRoot))
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
