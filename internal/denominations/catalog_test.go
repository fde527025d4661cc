package denominations

import (
	"bytes"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cashclose/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNewRejectsDuplicateFace(t *testing.T) {
	_, err := New([]model.Denomination{
		{ID: 1, Value: dec("20"), Currency: "USD", Type: model.DenominationBill, Active: true},
		{ID: 2, Value: dec("20.00"), Currency: "USD", Type: model.DenominationBill},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// Same value as a coin is a different face.
	_, err = New([]model.Denomination{
		{ID: 1, Value: dec("1"), Currency: "USD", Type: model.DenominationBill},
		{ID: 2, Value: dec("1"), Currency: "USD", Type: model.DenominationCoin},
	})
	require.NoError(t, err)
}

func TestNewRejectsBadEntries(t *testing.T) {
	_, err := New([]model.Denomination{{ID: 0, Value: dec("1"), Currency: "USD", Type: model.DenominationBill}})
	require.Error(t, err)

	_, err = New([]model.Denomination{
		{ID: 1, Value: dec("1"), Currency: "USD", Type: model.DenominationBill},
		{ID: 1, Value: dec("2"), Currency: "USD", Type: model.DenominationBill},
	})
	require.Error(t, err)

	_, err = New([]model.Denomination{{ID: 1, Value: dec("-5"), Currency: "USD", Type: model.DenominationBill}})
	require.Error(t, err)
}

func TestActiveOrderedByValueDescending(t *testing.T) {
	c, err := New([]model.Denomination{
		{ID: 1, Value: dec("1"), Currency: "USD", Type: model.DenominationCoin, Active: true},
		{ID: 2, Value: dec("20"), Currency: "USD", Type: model.DenominationBill, Active: true},
		{ID: 3, Value: dec("100"), Currency: "USD", Type: model.DenominationBill, Active: true},
		{ID: 4, Value: dec("1"), Currency: "USD", Type: model.DenominationBill, Active: true},
		{ID: 5, Value: dec("50"), Currency: "USD", Type: model.DenominationBill, Active: false},
		{ID: 6, Value: dec("10"), Currency: "EUR", Type: model.DenominationBill, Active: true},
	})
	require.NoError(t, err)

	active := c.Active("usd")
	ids := make([]int, len(active))
	for i, d := range active {
		ids[i] = d.ID
	}
	assert.Equal(t, []int{3, 2, 4, 1}, ids)
	assert.Empty(t, c.Active("GBP"))
}

func TestAddAndDeactivate(t *testing.T) {
	c := Default("USD")
	n := len(c.All())

	d, err := c.Add(dec("1000"), "usd", model.DenominationBill)
	require.NoError(t, err)
	assert.Equal(t, n+1, d.ID)
	assert.Equal(t, "USD", d.Currency)
	assert.True(t, d.Active)

	_, err = c.Add(dec("1000"), "USD", model.DenominationBill)
	require.Error(t, err, "duplicate face")

	_, err = c.Add(dec("3"), "USD", "token")
	require.Error(t, err)

	require.NoError(t, c.SetActive(d.ID, false))
	got, ok := c.Get(d.ID)
	require.True(t, ok)
	assert.False(t, got.Active, "deactivated, not deleted")
	for _, a := range c.Active("USD") {
		assert.NotEqual(t, d.ID, a.ID)
	}

	require.Error(t, c.SetActive(9999, false))
}

func TestLookup(t *testing.T) {
	c := Default("USD", "EUR")
	d, ok := c.Lookup(dec("20.00"), "usd", model.DenominationBill)
	require.True(t, ok)
	assert.Equal(t, "USD 20 bill", d.Name())

	_, ok = c.Lookup(dec("20"), "USD", model.DenominationCoin)
	assert.False(t, ok)
}

func TestDefaultCurrencies(t *testing.T) {
	c := Default("ves", "USD", "VES", "XYZ")
	assert.Equal(t, []string{"USD", "VES"}, c.Currencies())
	assert.NotEmpty(t, c.Active("VES"))
}

func TestCSVRoundTrip(t *testing.T) {
	c := Default("EUR")
	require.NoError(t, c.SetActive(1, false))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, c.All()))
	got, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(c.All()))
	assert.False(t, got[0].Active)
	assert.True(t, got[0].Value.Equal(dec("500")))
	assert.Equal(t, model.DenominationCoin, got[len(got)-1].Type)
}

func TestUnmarshalErrors(t *testing.T) {
	_, err := Unmarshal([]string{"x", "1", "USD", "bill", "true"})
	require.Error(t, err)
	_, err = Unmarshal([]string{"1", "one", "USD", "bill", "true"})
	require.Error(t, err)
	_, err = Unmarshal([]string{"1", "1", "USD", "note", "true"})
	require.Error(t, err)
	_, err = Unmarshal([]string{"1", "1", "USD", "bill", "yes"})
	require.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	c := Default("USD")
	require.NoError(t, c.Save(dir))

	_, err := os.Stat(Path(dir))
	require.NoError(t, err)

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, got.All(), len(c.All()))
}
