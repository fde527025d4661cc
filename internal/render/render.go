// Package render turns closes and reports into markdown, and markdown into
// terminal output.
package render

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/config"
	"github.com/cleared-dev/cashclose/internal/model"
)

// Options controls report rendering.
type Options struct {
	Variance config.VarianceConfig
	// LocalCurrency returns the local currency of an entity. Nil renders
	// local amounts as plain numbers.
	LocalCurrency func(entity string) string
}

func (o Options) currency(entity string, bucket model.Bucket) string {
	switch bucket {
	case model.BucketUSD:
		return "USD"
	case model.BucketEUR:
		return "EUR"
	}
	if o.LocalCurrency == nil {
		return ""
	}
	return o.LocalCurrency(entity)
}

// Amount formats v in currency, e.g. "$1,234.50". Unknown or empty
// currencies fall back to a fixed two-decimal number.
func Amount(v decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		if currency == "" {
			return v.StringFixed(2)
		}
		return v.StringFixed(2) + " " + currency
	}
	minor := v.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}

// Signed formats a difference with an explicit sign. Zero renders as "-".
func Signed(v decimal.Decimal, currency string) string {
	if v.IsZero() {
		return "-"
	}
	if v.IsPositive() {
		return "+" + Amount(v, currency)
	}
	return Amount(v, currency)
}

// Terminal renders markdown for a terminal. With raw set the markdown is
// returned unchanged.
func Terminal(markdown string, raw bool, width int) (string, error) {
	if raw {
		return markdown, nil
	}
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
