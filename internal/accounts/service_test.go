package accounts

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cashclose/internal/model"
)

func testChart() []model.Account {
	chart := DefaultChart(model.Entity{Code: "ACME"}, 1000)
	chart = append(chart, DefaultChart(model.Entity{Code: "BETA"}, 2000)...)
	chart = append(chart, model.Account{ID: 1012, Name: "Old Drawer", Type: model.AccountTypeAsset, Entity: "ACME", Cash: true, Deprecated: true})
	return chart
}

func TestGetExists(t *testing.T) {
	svc := NewService(testChart())

	acct, ok := svc.Get(1010)
	assert.True(t, ok)
	assert.Equal(t, "Cash Drawer", acct.Name)

	_, ok = svc.Get(9999)
	assert.False(t, ok)

	assert.True(t, svc.Exists(2010))
	assert.False(t, svc.Exists(9999))
}

func TestByType(t *testing.T) {
	svc := NewService(testChart())

	revenue := svc.ByType(model.AccountTypeRevenue)
	assert.Len(t, revenue, 2)
	for _, a := range revenue {
		assert.Equal(t, model.AccountTypeRevenue, a.Type)
	}
}

func TestCashAccountsPerEntity(t *testing.T) {
	svc := NewService(testChart())

	acme := svc.CashAccounts("ACME")
	require.Len(t, acme, 2, "deprecated drawer excluded")
	assert.Equal(t, 1010, acme[0].ID)
	assert.Equal(t, 1011, acme[1].ID)

	assert.Len(t, svc.CashAccounts("beta"), 2, "entity match is case-insensitive")
	assert.Empty(t, svc.CashAccounts("NOPE"))

	bank := svc.BankAccounts("ACME")
	require.Len(t, bank, 1)
	assert.Equal(t, 1020, bank[0].ID)
}

func TestSetFlags(t *testing.T) {
	svc := NewService(testChart())

	eur := "eur"
	acct, err := svc.Set(1011, Flags{CloseCurrency: &eur})
	require.NoError(t, err)
	assert.Equal(t, "EUR", acct.CloseCurrency)
	assert.Equal(t, model.BucketEUR, acct.Bucket)

	got, _ := svc.Get(1011)
	assert.Equal(t, model.BucketEUR, got.Bucket)

	no := false
	_, err = svc.Set(1010, Flags{Cash: &no})
	require.NoError(t, err)
	assert.Len(t, svc.CashAccounts("ACME"), 1)
}

func TestSetRejectsInvalidFlags(t *testing.T) {
	svc := NewService(testChart())

	yes := true
	_, err := svc.Set(1010, Flags{Bank: &yes})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both cash and bank")

	// The failed update leaves the account untouched.
	got, _ := svc.Get(1010)
	assert.False(t, got.Bank)

	_, err = svc.Set(9999, Flags{Cash: &yes})
	require.Error(t, err)

	_, err = svc.Set(1040, Flags{Cash: &yes, Entity: new(string)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need an entity")
}

func TestSaveRoundTrip(t *testing.T) {
	chart := testChart()
	svc := NewService(chart)

	dir := t.TempDir()
	require.NoError(t, svc.Save(dir))

	_, err := os.Stat(Path(dir))
	require.NoError(t, err)

	svc2, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, svc2.All(), len(chart))

	for _, orig := range chart {
		got, ok := svc2.Get(orig.ID)
		require.True(t, ok, "account %d should exist", orig.ID)
		assert.Equal(t, orig.Name, got.Name)
		assert.Equal(t, orig.Cash, got.Cash)
		assert.Equal(t, orig.Deprecated, got.Deprecated)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening chart of accounts")
}
