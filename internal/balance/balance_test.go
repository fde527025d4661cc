package balance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cashclose/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

// fakeSource serves fixed lines, filtered by account and range.
type fakeSource struct {
	lines []model.LedgerLine
	alt   bool
	err   error
}

func (f *fakeSource) Lines(_ context.Context, accountID int, from, to time.Time) ([]model.LedgerLine, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.LedgerLine
	for _, l := range f.lines {
		if l.AccountID != accountID || l.Date.After(to) || (!from.IsZero() && l.Date.Before(from)) {
			continue
		}
		if !f.alt {
			l.Alt = nil
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeSource) HasAlternate() bool { return f.alt }

func line(entry string, d int, account int, debit, credit, altDebit, altCredit string) model.LedgerLine {
	return model.LedgerLine{
		EntryID:   entry,
		Date:      day(d),
		AccountID: account,
		Debit:     dec(debit),
		Credit:    dec(credit),
		Alt:       &model.AltAmount{Debit: dec(altDebit), Credit: dec(altCredit)},
	}
}

// scenarioLines gives account 1011 a USD history of initial 100, income 50
// and expense 20 on day 10, with native amounts at a 36.5 rate.
func scenarioLines() []model.LedgerLine {
	return []model.LedgerLine{
		line("2025-01-001a", 5, 1011, "3650", "0", "100", "0"),
		line("2025-01-002a", 10, 1011, "1825", "0", "50", "0"),
		line("2025-01-003a", 10, 1011, "0", "730", "0", "20"),
		line("2025-01-004a", 11, 1011, "365", "0", "10", "0"),
		line("2025-01-005a", 10, 1010, "500", "0", "0", "0"),
	}
}

var usdDrawer = model.Account{ID: 1011, Name: "Drawer USD", Cash: true, CloseCurrency: "USD", Bucket: model.BucketUSD}

func TestComputeUSDAccount(t *testing.T) {
	e := NewEngine(&fakeSource{lines: scenarioLines(), alt: true})

	b, err := e.Compute(context.Background(), usdDrawer, day(10))
	require.NoError(t, err)

	usd := b.For(model.BucketUSD)
	assert.True(t, usd.Initial.Equal(dec("100")))
	assert.True(t, usd.Income.Equal(dec("50")))
	assert.True(t, usd.Expense.Equal(dec("20")))
	assert.True(t, usd.Final().Equal(dec("130")))

	// The local triple carries the native reference values.
	assert.True(t, b.Local.Initial.Equal(dec("3650")))
	assert.True(t, b.Local.Final().Equal(dec("4745")))

	// EUR reads the same single alternate slot.
	assert.Equal(t, b.USD, b.EUR)
}

func TestComputeWithoutAlternateSlot(t *testing.T) {
	e := NewEngine(&fakeSource{lines: scenarioLines(), alt: false})

	b, err := e.Compute(context.Background(), usdDrawer, day(10))
	require.NoError(t, err)
	assert.True(t, b.USD.Final().IsZero())
	assert.True(t, b.EUR.Final().IsZero())
	assert.True(t, b.Local.Final().Equal(dec("4745")))
}

func TestComputeLocalAccount(t *testing.T) {
	e := NewEngine(&fakeSource{lines: scenarioLines(), alt: true})
	local := model.Account{ID: 1010, Cash: true, Bucket: model.BucketLocal}

	tr, err := e.Triple(context.Background(), local, model.BucketLocal, day(10))
	require.NoError(t, err)
	assert.True(t, tr.Initial.IsZero())
	assert.True(t, tr.Income.Equal(dec("500")))
	assert.True(t, tr.Final().Equal(dec("500")))
}

func TestComputeNoData(t *testing.T) {
	e := NewEngine(&fakeSource{alt: true})
	b, err := e.Compute(context.Background(), usdDrawer, day(10))
	require.NoError(t, err)
	assert.True(t, b.Local.Final().IsZero())
	assert.True(t, b.USD.Final().IsZero())
}

func TestComputeSourceError(t *testing.T) {
	boom := errors.New("disk on fire")
	e := NewEngine(&fakeSource{err: boom})
	_, err := e.Compute(context.Background(), usdDrawer, day(10))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "account 1011")
}

func TestFinalIdentity(t *testing.T) {
	e := NewEngine(&fakeSource{lines: scenarioLines(), alt: true})
	for d := 1; d <= 12; d++ {
		b, err := e.Compute(context.Background(), usdDrawer, day(d))
		require.NoError(t, err)
		for _, bucket := range model.Buckets {
			tr := b.For(bucket)
			assert.True(t, tr.Final().Equal(tr.Initial.Add(tr.Income).Sub(tr.Expense)))
		}
		// Tomorrow's initial is today's final.
		next, err := e.Compute(context.Background(), usdDrawer, day(d+1))
		require.NoError(t, err)
		assert.True(t, next.USD.Initial.Equal(b.USD.Final()), "day %d", d)
	}
}

func TestMovements(t *testing.T) {
	e := NewEngine(&fakeSource{lines: scenarioLines(), alt: true})

	moves, err := e.Movements(context.Background(), 1011, model.BucketUSD, day(10))
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, "2025-01-002a", moves[0].EntryID)
	assert.True(t, moves[0].Amount.Equal(dec("50")))
	assert.Equal(t, "income", moves[0].Kind())
	assert.True(t, moves[1].Amount.Equal(dec("-20")))
	assert.Equal(t, "expense", moves[1].Kind())

	local, err := e.Movements(context.Background(), 1010, model.BucketUSD, day(10))
	require.NoError(t, err)
	assert.Empty(t, local, "no alternate amount on the local sale")

	single := NewEngine(&fakeSource{lines: scenarioLines(), alt: false})
	none, err := single.Movements(context.Background(), 1011, model.BucketUSD, day(10))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHistory(t *testing.T) {
	e := NewEngine(&fakeSource{lines: scenarioLines(), alt: true})
	accounts := []model.Account{usdDrawer, {ID: 1010, Bucket: model.BucketLocal}}

	hist, err := e.History(context.Background(), accounts, day(11), 3)
	require.NoError(t, err)
	require.Len(t, hist, 3)

	assert.True(t, hist[0].Date.Equal(day(9)))
	assert.True(t, hist[2].Date.Equal(day(11)))

	require.Len(t, hist[0].Balances, 2)
	assert.True(t, hist[0].Balances[0].Final.Equal(dec("100")))
	assert.True(t, hist[1].Balances[0].Final.Equal(dec("130")))
	assert.True(t, hist[2].Balances[0].Final.Equal(dec("140")))
	assert.True(t, hist[1].Balances[1].Final.Equal(dec("500")))

	empty, err := e.History(context.Background(), accounts, day(11), 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
