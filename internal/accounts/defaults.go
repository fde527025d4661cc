package accounts

import (
	"strings"

	"github.com/cleared-dev/cashclose/internal/model"
)

// DefaultChart returns a starter chart of accounts for an entity: a local
// cash drawer, a USD cash drawer, an operating bank account and the usual
// revenue/expense accounts. Account IDs are prefixed per entity so several
// entities can share one chart.
func DefaultChart(entity model.Entity, base int) []model.Account {
	code := strings.ToUpper(entity.Code)
	chart := []model.Account{
		{ID: base + 10, Name: "Cash Drawer", Type: model.AccountTypeAsset, Entity: code, Cash: true, Description: "Main register, local currency"},
		{ID: base + 11, Name: "Cash Drawer USD", Type: model.AccountTypeAsset, Entity: code, Cash: true, CloseCurrency: "USD", Description: "Foreign currency register"},
		{ID: base + 20, Name: "Operating Bank", Type: model.AccountTypeAsset, Entity: code, Bank: true, Description: "Primary bank account"},
		{ID: base + 40, Name: "Sales", Type: model.AccountTypeRevenue, Entity: code},
		{ID: base + 50, Name: "Petty Expenses", Type: model.AccountTypeExpense, Entity: code},
	}
	for i := range chart {
		chart[i].Bucket = model.ResolveBucket(chart[i].CloseCurrency)
	}
	return chart
}
