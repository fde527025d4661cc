package render

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	md "github.com/nao1215/markdown"

	"github.com/cleared-dev/cashclose/internal/balance"
	"github.com/cleared-dev/cashclose/internal/batch"
	"github.com/cleared-dev/cashclose/internal/consolidated"
	"github.com/cleared-dev/cashclose/internal/model"
)

// ConsolidatedMarkdown renders one table per bucket with a row per close
// and a grand total.
func ConsolidatedMarkdown(rows []consolidated.Row, opts Options) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Consolidated cash close")
	if len(rows) == 0 {
		doc.PlainText("No closes in range.")
		return doc.String()
	}

	grand := consolidated.GrandTotals(rows)
	for _, b := range model.Buckets {
		if grand.For(b).Accounts == 0 {
			continue
		}
		doc.H2(fmt.Sprintf("Bucket %s", b))
		table := md.TableSet{
			Header: []string{"Date", "Entity", "State", "Accounts", "Initial", "Income", "Expense", "Final", "Counted", "Difference"},
			Alignment: []md.TableAlignment{
				md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight,
				md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight,
			},
			Rows: [][]string{},
		}
		for _, r := range rows {
			t := r.Totals.For(b)
			if t.Accounts == 0 {
				continue
			}
			cur := opts.currency(r.Entity, b)
			table.Rows = append(table.Rows, []string{
				r.Date.Format(dateFormat), r.Entity, string(r.State), strconv.Itoa(t.Accounts),
				Amount(t.Initial, cur), Amount(t.Income, cur), Amount(t.Expense, cur),
				Amount(t.Final, cur), Amount(t.Counted, cur), Signed(t.Difference, cur),
			})
		}
		// Local totals across entities may mix currencies, so they are
		// shown as plain numbers.
		cur := ""
		if b != model.BucketLocal {
			cur = opts.currency("", b)
		}
		t := grand.For(b)
		table.Rows = append(table.Rows, []string{
			md.Bold("Total"), "", "", strconv.Itoa(t.Accounts),
			Amount(t.Initial, cur), Amount(t.Income, cur), Amount(t.Expense, cur),
			Amount(t.Final, cur), Amount(t.Counted, cur), Signed(t.Difference, cur),
		})
		doc.Table(table)
	}
	return doc.String()
}

// LinesMarkdown renders one row per close line.
func LinesMarkdown(lines []consolidated.LineRow, opts Options) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Close lines")
	if len(lines) == 0 {
		doc.PlainText("No lines in range.")
		return doc.String()
	}
	table := md.TableSet{
		Header: []string{"Date", "Entity", "Account", "Bucket", "Final", "Counted", "Difference", "Status"},
		Alignment: []md.TableAlignment{
			md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft,
			md.AlignRight, md.AlignRight, md.AlignRight, md.AlignLeft,
		},
		Rows: [][]string{},
	}
	for _, l := range lines {
		status := "not counted"
		if l.IsCounted {
			status = opts.Variance.Classify(l.Difference)
		}
		table.Rows = append(table.Rows, []string{
			l.Date.Format(dateFormat), l.Entity, fmt.Sprintf("%d %s", l.AccountID, l.AccountName), string(l.Bucket),
			Amount(l.Final, l.Currency), Amount(l.Counted, l.Currency), Signed(l.Difference, l.Currency), status,
		})
	}
	doc.Table(table)
	return doc.String()
}

// BadBillsMarkdown renders a bad-bill summary.
func BadBillsMarkdown(s consolidated.BadBillSummary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Bad bills")
	if len(s.Entries) == 0 {
		doc.PlainText("No bad bills recorded.")
		return doc.String()
	}

	doc.H2("By condition")
	conditions := make([]string, 0, len(s.ByCondition))
	for c := range s.ByCondition {
		conditions = append(conditions, string(c))
	}
	sort.Strings(conditions)
	byCond := md.TableSet{
		Header:    []string{"Condition", "Quantity"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Rows:      [][]string{},
	}
	for _, c := range conditions {
		byCond.Rows = append(byCond.Rows, []string{c, strconv.Itoa(s.ByCondition[model.BillCondition(c)].Quantity)})
	}
	doc.Table(byCond)

	doc.H2("By bill")
	byFace := md.TableSet{
		Header:    []string{"Bill", "Quantity", "Total"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Rows:      [][]string{},
	}
	for _, k := range s.Faces() {
		g := s.ByFace[k]
		byFace.Rows = append(byFace.Rows, []string{k.Currency + " " + k.Value, strconv.Itoa(g.Quantity), Amount(g.Total, k.Currency)})
	}
	doc.Table(byFace)

	doc.H2("By currency")
	currencies := make([]string, 0, len(s.ByCurrency))
	for c := range s.ByCurrency {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	byCur := md.TableSet{
		Header:    []string{"Currency", "Quantity", "Total"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Rows:      [][]string{},
	}
	for _, c := range currencies {
		g := s.ByCurrency[c]
		byCur.Rows = append(byCur.Rows, []string{c, strconv.Itoa(g.Quantity), Amount(g.Total, c)})
	}
	doc.Table(byCur)
	return doc.String()
}

// HistoryMarkdown renders final balances per day, one column per account.
func HistoryMarkdown(days []balance.DayBalances, accounts []model.Account) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Cash balance history")
	if len(days) == 0 || len(accounts) == 0 {
		doc.PlainText("No balances.")
		return doc.String()
	}
	header := []string{"Date"}
	align := []md.TableAlignment{md.AlignLeft}
	for _, a := range accounts {
		header = append(header, a.DisplayName())
		align = append(align, md.AlignRight)
	}
	table := md.TableSet{Header: header, Alignment: align, Rows: [][]string{}}
	for _, d := range days {
		row := []string{d.Date.Format(dateFormat)}
		for _, a := range accounts {
			v := ""
			for _, b := range d.Balances {
				if b.AccountID == a.ID {
					v = Amount(b.Final, a.CloseCurrency)
					break
				}
			}
			row = append(row, v)
		}
		table.Rows = append(table.Rows, row)
	}
	doc.Table(table)
	return doc.String()
}

// MassCloseMarkdown renders the outcome of a mass close.
func MassCloseMarkdown(res batch.MassCloseResult) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Mass close")
	doc.PlainText(res.Summary())
	table := md.TableSet{
		Header:    []string{"Entity", "Outcome", "Close", "Detail"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft},
		Rows:      [][]string{},
	}
	for _, c := range res.Created {
		table.Rows = append(table.Rows, []string{c.Entity, "created", c.Ref, string(c.State)})
	}
	for _, c := range res.Skipped {
		table.Rows = append(table.Rows, []string{c.Entity, "skipped", c.Ref, "already exists (" + string(c.State) + ")"})
	}
	for _, f := range res.Failed {
		table.Rows = append(table.Rows, []string{f.Entity, "failed", "", f.Err.Error()})
	}
	doc.Table(table)
	return doc.String()
}

// MassConfirmMarkdown renders the outcome of a mass confirm.
func MassConfirmMarkdown(res batch.MassConfirmResult) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Mass confirm")
	doc.PlainText(res.Summary())
	table := md.TableSet{
		Header:    []string{"Entity", "Outcome", "Close", "Detail"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft},
		Rows:      [][]string{},
	}
	for _, c := range res.Confirmed {
		table.Rows = append(table.Rows, []string{c.Entity, "confirmed", c.Ref, ""})
	}
	for _, e := range res.Idle {
		table.Rows = append(table.Rows, []string{e, "nothing to confirm", "", ""})
	}
	for _, f := range res.Failed {
		table.Rows = append(table.Rows, []string{f.Entity, "failed", f.CloseID, f.Err.Error()})
	}
	doc.Table(table)
	return doc.String()
}

// ClosePreviewMarkdown renders a mass close preview.
func ClosePreviewMarkdown(date string, preview []batch.ClosePreview) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Mass close preview for " + date)
	table := md.TableSet{
		Header:    []string{"Entity", "Cash accounts", "Existing", "Status"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignLeft, md.AlignLeft},
		Rows:      [][]string{},
	}
	for _, p := range preview {
		existing := ""
		if p.Existing != nil {
			existing = p.Existing.Ref + " (" + string(p.Existing.State) + ")"
		}
		table.Rows = append(table.Rows, []string{p.Entity, strconv.Itoa(p.CashAccounts), existing, p.Status})
	}
	doc.Table(table)
	return doc.String()
}

// ConfirmPreviewMarkdown renders a mass confirm preview.
func ConfirmPreviewMarkdown(preview []batch.ConfirmPreview) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Mass confirm preview")
	table := md.TableSet{
		Header:    []string{"Entity", "To confirm", "Already confirmed"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Rows:      [][]string{},
	}
	for _, p := range preview {
		table.Rows = append(table.Rows, []string{p.Entity, strconv.Itoa(p.ToConfirm), strconv.Itoa(p.AlreadyConfirmed)})
	}
	doc.Table(table)
	return doc.String()
}
