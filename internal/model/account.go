package model

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Account represents a row in chart-of-accounts.csv, annotated with the
// cash-close flags of the owning entity.
type Account struct {
	ID          int
	Name        string
	Type        AccountType
	ParentID    int // 0 = top-level
	TaxLine     string
	Description string

	Entity string
	Cash   bool
	Bank   bool
	// CloseCurrency is the currency counted at close time. Empty means the
	// entity's local currency. It is independent of the ledger currency.
	CloseCurrency string
	// Bucket is resolved from CloseCurrency when the account is loaded.
	Bucket     Bucket
	Deprecated bool
}

// DisplayName returns "<id> <name>".
func (a Account) DisplayName() string {
	if a.Name == "" {
		return itoa(a.ID)
	}
	return itoa(a.ID) + " " + a.Name
}

// Entity is an independently reconciled business unit.
type Entity struct {
	Code          string
	Name          string
	LocalCurrency string
}
