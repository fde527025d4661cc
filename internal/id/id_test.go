package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCloseID(t *testing.T) {
	a, b := NewCloseID(), NewCloseID()
	assert.NotEqual(t, a, b)
	assert.True(t, ValidCloseID(a))
	assert.False(t, ValidCloseID("CASH/ACME/2025-01-15"))
}

func TestCloseRef(t *testing.T) {
	d := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	ref := CloseRef("acme", d)
	assert.Equal(t, "CASH/ACME/2025-01-15", ref)

	entity, got, err := ParseCloseRef(ref)
	require.NoError(t, err)
	assert.Equal(t, "ACME", entity)
	assert.True(t, got.Equal(d))
}

func TestParseCloseRef_Invalid(t *testing.T) {
	for _, ref := range []string{"", "CASH/ACME", "BANK/ACME/2025-01-15", "CASH//2025-01-15", "CASH/ACME/15-01-2025"} {
		_, _, err := ParseCloseRef(ref)
		assert.Error(t, err, "ref %q", ref)
	}
}

func TestParseEntryID(t *testing.T) {
	tests := []struct {
		id                     string
		wantYear, wantMonth, s int
	}{
		{"2025-01-001", 2025, 1, 1},
		{"2025-01-001a", 2025, 1, 1},
		{"2025-12-099b", 2025, 12, 99},
	}
	for _, tt := range tests {
		y, m, s, err := ParseEntryID(tt.id)
		require.NoError(t, err, tt.id)
		assert.Equal(t, tt.wantYear, y)
		assert.Equal(t, tt.wantMonth, m)
		assert.Equal(t, tt.s, s)
	}
}

func TestParseEntryID_Invalid(t *testing.T) {
	for _, id := range []string{"", "2025-01", "abcd-01-001", "2025-xx-001", "2025-01-zzz1"} {
		_, _, _, err := ParseEntryID(id)
		assert.Error(t, err, "id %q", id)
	}
}

func TestEntryGroup(t *testing.T) {
	assert.Equal(t, "2025-01-001", EntryGroup("2025-01-001a"))
	assert.Equal(t, "2025-01-001", EntryGroup("2025-01-001"))
	assert.Equal(t, "", EntryGroup(""))
}
