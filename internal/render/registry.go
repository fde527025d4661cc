package render

import (
	"bytes"
	"sort"
	"strconv"

	md "github.com/nao1215/markdown"

	"github.com/cleared-dev/cashclose/internal/journal"
	"github.com/cleared-dev/cashclose/internal/model"
)

// AccountsMarkdown renders the chart of accounts with its cash-close flags.
func AccountsMarkdown(accts []model.Account) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Accounts")
	if len(accts) == 0 {
		doc.PlainText("No accounts.")
		return doc.String()
	}
	table := md.TableSet{
		Header:    []string{"ID", "Name", "Type", "Entity", "Role", "Close currency", "Bucket"},
		Alignment: []md.TableAlignment{md.AlignRight, md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft},
		Rows:      [][]string{},
	}
	for _, a := range accts {
		role := ""
		switch {
		case a.Cash:
			role = "cash"
		case a.Bank:
			role = "bank"
		}
		if a.Deprecated {
			role += " (deprecated)"
		}
		bucket := ""
		if a.Cash {
			bucket = string(a.Bucket)
		}
		table.Rows = append(table.Rows, []string{
			strconv.Itoa(a.ID), a.Name, string(a.Type), a.Entity, role, a.CloseCurrency, bucket,
		})
	}
	doc.Table(table)
	return doc.String()
}

// DenominationsMarkdown renders the denomination catalog.
func DenominationsMarkdown(denoms []model.Denomination) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Denominations")
	if len(denoms) == 0 {
		doc.PlainText("No denominations configured.")
		return doc.String()
	}
	table := md.TableSet{
		Header:    []string{"ID", "Currency", "Value", "Type", "Active"},
		Alignment: []md.TableAlignment{md.AlignRight, md.AlignLeft, md.AlignRight, md.AlignLeft, md.AlignLeft},
		Rows:      [][]string{},
	}
	for _, d := range denoms {
		active := "yes"
		if !d.Active {
			active = "no"
		}
		table.Rows = append(table.Rows, []string{
			strconv.Itoa(d.ID), d.Currency, d.Value.String(), string(d.Type), active,
		})
	}
	doc.Table(table)
	return doc.String()
}

// LedgerCheckMarkdown renders journal violations grouped by month.
func LedgerCheckMarkdown(problems map[journal.Month][]journal.ValidationError) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Ledger check")
	if len(problems) == 0 {
		doc.PlainText("All journal months are consistent.")
		return doc.String()
	}
	months := make([]journal.Month, 0, len(problems))
	for m := range problems {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].String() < months[j].String() })
	for _, m := range months {
		doc.H2(m.String())
		items := make([]string, 0, len(problems[m]))
		for _, e := range problems[m] {
			items = append(items, e.Error())
		}
		doc.BulletList(items...)
	}
	return doc.String()
}
