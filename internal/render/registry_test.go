package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/cashclose/internal/journal"
	"github.com/cleared-dev/cashclose/internal/model"
)

func TestAccountsMarkdown(t *testing.T) {
	out := AccountsMarkdown([]model.Account{
		{ID: 1010, Name: "Cash Drawer", Type: model.AccountTypeAsset, Entity: "ACME", Cash: true, Bucket: model.BucketLocal},
		{ID: 1020, Name: "Operating Bank", Type: model.AccountTypeAsset, Entity: "ACME", Bank: true, Deprecated: true},
	})
	assert.Contains(t, out, "Cash Drawer")
	assert.Contains(t, out, "| cash")
	assert.Contains(t, out, "bank (deprecated)")

	assert.Contains(t, AccountsMarkdown(nil), "No accounts.")
}

func TestDenominationsMarkdown(t *testing.T) {
	out := DenominationsMarkdown([]model.Denomination{
		{ID: 1, Value: dec("100"), Currency: "USD", Type: model.DenominationBill, Active: true},
		{ID: 2, Value: dec("0.25"), Currency: "USD", Type: model.DenominationCoin},
	})
	assert.Contains(t, out, "0.25")
	assert.Contains(t, out, "| no")
}

func TestLedgerCheckMarkdown(t *testing.T) {
	assert.Contains(t, LedgerCheckMarkdown(nil), "consistent")

	out := LedgerCheckMarkdown(map[journal.Month][]journal.ValidationError{
		{Year: 2025, Month: 2}: {{Rule: journal.RuleBalanced, EntryID: "2025-02-001", Description: "debits 10 != credits 9"}},
		{Year: 2025, Month: 1}: {{Rule: journal.RuleAccount, EntryID: "2025-01-003a", Description: "unknown account 9999"}},
	})
	assert.Less(t, strings.Index(out, "2025-01"), strings.Index(out, "2025-02"))
	assert.Contains(t, out, "unknown account 9999")
}

