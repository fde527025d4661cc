package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLegEntryGroup(t *testing.T) {
	tests := []struct {
		entryID string
		want    string
	}{
		{"2025-01-001a", "2025-01-001"},
		{"2025-01-001b", "2025-01-001"},
		{"2025-01-001", "2025-01-001"},
		{"2025-12-099abc", "2025-12-099"},
		{"", ""},
	}
	for _, tt := range tests {
		leg := Leg{EntryID: tt.entryID}
		assert.Equal(t, tt.want, leg.EntryGroup(), "EntryGroup(%q)", tt.entryID)
	}
}

func TestEntryStatusPosted(t *testing.T) {
	assert.True(t, StatusAutoConfirmed.Posted())
	assert.True(t, StatusUserConfirmed.Posted())
	assert.True(t, StatusUserCorrected.Posted())
	assert.True(t, StatusBootstrapConfirmed.Posted())
	assert.False(t, StatusPendingReview.Posted())
	assert.False(t, StatusVoided.Posted())
	assert.False(t, EntryStatus("").Posted())
}

func TestLedgerLineAmounts(t *testing.T) {
	line := LedgerLine{
		Debit:  decimal.RequireFromString("500"),
		Credit: decimal.Zero,
		Alt:    &AltAmount{Debit: decimal.RequireFromString("12.5")},
	}

	d, c := line.Amounts(SlotNative)
	assert.True(t, d.Equal(decimal.RequireFromString("500")))
	assert.True(t, c.IsZero())

	d, c = line.Amounts(SlotAlternate)
	assert.True(t, d.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, c.IsZero())

	line.Alt = nil
	d, c = line.Amounts(SlotAlternate)
	assert.True(t, d.IsZero())
	assert.True(t, c.IsZero())
}

func TestResolveBucket(t *testing.T) {
	assert.Equal(t, BucketUSD, ResolveBucket("USD"))
	assert.Equal(t, BucketUSD, ResolveBucket(" usd "))
	assert.Equal(t, BucketEUR, ResolveBucket("EUR"))
	assert.Equal(t, BucketLocal, ResolveBucket(""))
	assert.Equal(t, BucketLocal, ResolveBucket("VES"))

	assert.Equal(t, SlotAlternate, BucketUSD.Slot())
	assert.Equal(t, SlotAlternate, BucketEUR.Slot())
	assert.Equal(t, SlotNative, BucketLocal.Slot())
}
