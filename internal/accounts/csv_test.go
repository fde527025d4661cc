package accounts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cashclose/internal/model"
)

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{ID: 1010, Name: "Cash Drawer", Type: model.AccountTypeAsset, Entity: "ACME", Cash: true, Description: "Main register"},
		{ID: 1011, Name: "Cash Drawer USD", Type: model.AccountTypeAsset, Entity: "ACME", Cash: true, CloseCurrency: "USD"},
		{ID: 1020, Name: "Operating Bank", Type: model.AccountTypeAsset, Entity: "ACME", Bank: true, Deprecated: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Cash Drawer", got[0].Name)
	assert.True(t, got[0].Cash)
	assert.Equal(t, model.BucketLocal, got[0].Bucket)
	assert.Equal(t, "Main register", got[0].Description)

	assert.Equal(t, "USD", got[1].CloseCurrency)
	assert.Equal(t, model.BucketUSD, got[1].Bucket)

	assert.True(t, got[2].Bank)
	assert.False(t, got[2].Cash)
	assert.True(t, got[2].Deprecated)
}

func TestParentID(t *testing.T) {
	accounts := []model.Account{
		{ID: 1010, Name: "Cash", Type: model.AccountTypeAsset},
		{ID: 1011, Name: "Sub-drawer", Type: model.AccountTypeAsset, ParentID: 1010},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 0, got[0].ParentID)
	assert.Equal(t, 1010, got[1].ParentID)
}

func TestCloseCurrencyResolvedOnLoad(t *testing.T) {
	csv := strings.Join([]string{
		strings.Join(header, ","),
		"1010,Drawer,asset,,,,ACME,true,,eur,",
		"1011,Drawer,asset,,,,ACME,1,,VES,",
	}, "\n") + "\n"

	got, err := ReadAccounts(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "EUR", got[0].CloseCurrency)
	assert.Equal(t, model.BucketEUR, got[0].Bucket)
	assert.True(t, got[1].Cash)
	assert.Equal(t, model.BucketLocal, got[1].Bucket)
}

func TestReadAccountsBadFlag(t *testing.T) {
	csv := strings.Join(header, ",") + "\n1010,Drawer,asset,,,,ACME,maybe,,,\n"
	_, err := ReadAccounts(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "cash")
}

func TestDefaultChart(t *testing.T) {
	chart := DefaultChart(model.Entity{Code: "acme", LocalCurrency: "VES"}, 1000)
	require.NotEmpty(t, chart)

	var cash, bank int
	for _, acct := range chart {
		assert.Equal(t, "ACME", acct.Entity)
		assert.NotEmpty(t, acct.Name, "account %d missing name", acct.ID)
		assert.NotEmpty(t, acct.Type, "account %d missing type", acct.ID)
		if acct.Cash {
			cash++
		}
		if acct.Bank {
			bank++
		}
	}
	assert.Equal(t, 2, cash)
	assert.Equal(t, 1, bank)
}

func TestDefaultChartRoundTrip(t *testing.T) {
	chart := DefaultChart(model.Entity{Code: "ACME"}, 1000)

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, chart))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(chart))

	for i := range chart {
		assert.Equal(t, chart[i].ID, got[i].ID)
		assert.Equal(t, chart[i].Name, got[i].Name)
		assert.Equal(t, chart[i].Type, got[i].Type)
		assert.Equal(t, chart[i].Cash, got[i].Cash)
		assert.Equal(t, chart[i].Bank, got[i].Bank)
		assert.Equal(t, chart[i].Bucket, got[i].Bucket)
	}
}
