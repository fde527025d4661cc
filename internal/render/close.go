package render

import (
	"bytes"
	"fmt"
	"strconv"

	md "github.com/nao1215/markdown"

	"github.com/cleared-dev/cashclose/internal/balance"
	"github.com/cleared-dev/cashclose/internal/model"
)

const dateFormat = "2006-01-02"

// lineStatus is "not counted" or the variance level of the difference.
func (o Options) lineStatus(l model.CloseLine) string {
	if !l.Counted {
		return "not counted"
	}
	return o.Variance.Classify(l.Difference())
}

// CloseMarkdown renders one close with its lines, counts and bank lines.
func CloseMarkdown(c *model.Close, opts Options) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Cash close %s", c.Ref))
	meta := []string{
		"ID: " + c.ID,
		"Entity: " + c.Entity,
		"Date: " + c.Date.Format(dateFormat),
		"State: " + string(c.State),
		"Responsible: " + c.ResponsibleUser,
	}
	if c.ClosedAt != nil {
		meta = append(meta, "Closed at: "+c.ClosedAt.Format("2006-01-02 15:04"))
	}
	if c.ConfirmedAt != nil {
		meta = append(meta, fmt.Sprintf("Confirmed by: %s at %s", c.ConfirmedBy, c.ConfirmedAt.Format("2006-01-02 15:04")))
	}
	if c.Notes != "" {
		meta = append(meta, "Notes: "+c.Notes)
	}
	doc.BulletList(meta...)

	if len(c.Lines) == 0 {
		doc.PlainText("No lines generated yet.")
		return doc.String()
	}

	doc.H2("Lines")
	lines := md.TableSet{
		Header: []string{"Account", "Currency", "Initial", "Income", "Expense", "Final", "Counted", "Difference", "Status"},
		Alignment: []md.TableAlignment{
			md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight,
			md.AlignRight, md.AlignRight, md.AlignRight, md.AlignLeft,
		},
		Rows: [][]string{},
	}
	for _, l := range c.Lines {
		lines.Rows = append(lines.Rows, []string{
			fmt.Sprintf("%d %s", l.AccountID, l.AccountName),
			l.Currency,
			Amount(l.InitialBalance, l.Currency),
			Amount(l.TotalIncome, l.Currency),
			Amount(l.TotalExpense, l.Currency),
			Amount(l.FinalBalance(), l.Currency),
			Amount(l.CountedAmount, l.Currency),
			Signed(l.Difference(), l.Currency),
			opts.lineStatus(l),
		})
	}
	doc.Table(lines)

	totals := c.Totals()
	doc.H2("Totals")
	tt := md.TableSet{
		Header:    []string{"Bucket", "Accounts", "Final", "Counted", "Difference"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
		Rows:      [][]string{},
	}
	for _, b := range model.Buckets {
		t := totals.For(b)
		if t.Accounts == 0 {
			continue
		}
		cur := opts.currency(c.Entity, b)
		tt.Rows = append(tt.Rows, []string{
			string(b), strconv.Itoa(t.Accounts), Amount(t.Final, cur), Amount(t.Counted, cur), Signed(t.Difference, cur),
		})
	}
	doc.Table(tt)

	for _, l := range c.Lines {
		if l.DenominationTotal().IsZero() && len(l.BadBills) == 0 {
			continue
		}
		doc.H2(fmt.Sprintf("Count %d %s", l.AccountID, l.AccountName))
		if !l.DenominationTotal().IsZero() {
			count := md.TableSet{
				Header:    []string{"Denomination", "Quantity", "Total"},
				Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
				Rows:      [][]string{},
			}
			for _, d := range l.Denominations {
				if d.Quantity == 0 {
					continue
				}
				count.Rows = append(count.Rows, []string{
					fmt.Sprintf("%s %s", Amount(d.Value, l.Currency), d.Type),
					strconv.Itoa(d.Quantity),
					Amount(d.Total(), l.Currency),
				})
			}
			doc.Table(count)
		}
		if len(l.BadBills) > 0 {
			bad := md.TableSet{
				Header:    []string{"#", "Bill", "Quantity", "Condition", "Total", "Notes"},
				Alignment: []md.TableAlignment{md.AlignRight, md.AlignLeft, md.AlignRight, md.AlignLeft, md.AlignRight, md.AlignLeft},
				Rows:      [][]string{},
			}
			for i, b := range l.BadBills {
				bad.Rows = append(bad.Rows, []string{
					strconv.Itoa(i + 1),
					Amount(b.Value, l.Currency),
					strconv.Itoa(b.Quantity),
					string(b.Condition),
					Amount(b.Total(), l.Currency),
					b.Notes,
				})
			}
			doc.Table(bad)
		}
	}

	if len(c.BankLines) > 0 {
		doc.H2("Bank accounts")
		bank := md.TableSet{
			Header:    []string{"Account", "Closing balance", "Notes"},
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignLeft},
			Rows:      [][]string{},
		}
		for _, b := range c.BankLines {
			bank.Rows = append(bank.Rows, []string{
				fmt.Sprintf("%d %s", b.AccountID, b.AccountName),
				Amount(b.ClosingBalance, b.Currency),
				b.Notes,
			})
		}
		doc.Table(bank)
	}
	return doc.String()
}

// ClosesMarkdown renders a list of closes.
func ClosesMarkdown(cs []*model.Close) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Cash closes")
	if len(cs) == 0 {
		doc.PlainText("No closes found.")
		return doc.String()
	}
	table := md.TableSet{
		Header:    []string{"Ref", "ID", "State", "Responsible", "Lines", "Counted"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight},
		Rows:      [][]string{},
	}
	for _, c := range cs {
		counted := 0
		for _, l := range c.Lines {
			if l.Counted {
				counted++
			}
		}
		table.Rows = append(table.Rows, []string{
			c.Ref, c.ID, string(c.State), c.ResponsibleUser, strconv.Itoa(len(c.Lines)), strconv.Itoa(counted),
		})
	}
	doc.Table(table)
	return doc.String()
}

// MovementsMarkdown renders the ledger movements behind a line.
func MovementsMarkdown(title, currency string, moves []balance.Movement) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(title)
	if len(moves) == 0 {
		doc.PlainText("No movements.")
		return doc.String()
	}
	table := md.TableSet{
		Header:    []string{"Date", "Entry", "Kind", "Description", "Counterparty", "Amount"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignRight},
		Rows:      [][]string{},
	}
	for _, m := range moves {
		table.Rows = append(table.Rows, []string{
			m.Date.Format(dateFormat), m.EntryID, m.Kind(), m.Description, m.Counterparty, Signed(m.Amount, currency),
		})
	}
	doc.Table(table)
	return doc.String()
}
