package batch_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cashclose/internal/accounts"
	"github.com/cleared-dev/cashclose/internal/balance"
	"github.com/cleared-dev/cashclose/internal/batch"
	"github.com/cleared-dev/cashclose/internal/closing"
	"github.com/cleared-dev/cashclose/internal/closing/filestore"
	"github.com/cleared-dev/cashclose/internal/config"
	"github.com/cleared-dev/cashclose/internal/denominations"
	"github.com/cleared-dev/cashclose/internal/model"
)

// emptyLedger has no lines, so every balance is zero.
type emptyLedger struct{}

func (emptyLedger) Lines(context.Context, int, time.Time, time.Time) ([]model.LedgerLine, error) {
	return nil, nil
}

func (emptyLedger) HasAlternate() bool { return false }

func day(d int) time.Time { return time.Date(2025, 2, d, 0, 0, 0, 0, time.UTC) }

type fixture struct {
	svc    *closing.Service
	runner *batch.Runner
	logs   *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default(
		config.EntityConfig{Code: "X", Name: "Shop X", LocalCurrency: "VES"},
		config.EntityConfig{Code: "Y", Name: "Shop Y", LocalCurrency: "VES"},
		config.EntityConfig{Code: "Z", Name: "Office Z", LocalCurrency: "VES"},
	)
	chart := accounts.NewService(append(
		accounts.DefaultChart(model.Entity{Code: "X"}, 1000),
		accounts.DefaultChart(model.Entity{Code: "Y"}, 2000)...,
	))
	logs := &bytes.Buffer{}
	log := zerolog.New(logs)
	svc := closing.NewService(closing.Deps{
		Store:         filestore.New(t.TempDir()),
		Entities:      cfg,
		Accounts:      chart,
		Balances:      balance.NewEngine(emptyLedger{}),
		Denominations: denominations.Default("USD", "VES"),
		Log:           log,
	})
	return &fixture{svc: svc, runner: batch.NewRunner(svc, cfg, chart, log), logs: logs}
}

// Scenario E: an existing close is skipped and left untouched.
func TestMassCloseSkipsExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing, err := f.svc.Create(ctx, closing.CreateParams{Date: day(3), Entity: "X", User: "maria", Notes: "by hand"})
	require.NoError(t, err)

	res, err := f.runner.MassClose(ctx, batch.MassCloseParams{Date: day(3), Entities: []string{"x", "Y"}, SkipExisting: true, User: "boss"})
	require.NoError(t, err)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, existing.ID, res.Skipped[0].ID)
	require.Len(t, res.Created, 1)
	assert.Equal(t, "Y", res.Created[0].Entity)
	assert.Equal(t, model.StateDraft, res.Created[0].State)
	assert.Empty(t, res.Failed)
	assert.Equal(t, "1 created, 1 skipped, 0 failed", res.Summary())

	got, err := f.svc.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "maria", got.ResponsibleUser)
	assert.Equal(t, model.StateDraft, got.State)

	// Running again creates nothing new.
	res, err = f.runner.MassClose(ctx, batch.MassCloseParams{Date: day(3), Entities: []string{"X", "Y"}, SkipExisting: true, User: "boss"})
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Len(t, res.Skipped, 2)
}

func TestMassCloseWithoutSkipReportsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, closing.CreateParams{Date: day(3), Entity: "X", User: "maria"})
	require.NoError(t, err)

	res, err := f.runner.MassClose(ctx, batch.MassCloseParams{Date: day(3), Entities: []string{"X", "Y"}, User: "boss"})
	require.NoError(t, err)
	require.Len(t, res.Failed, 1)
	var dup *closing.DuplicateCloseError
	assert.ErrorAs(t, res.Failed[0], &dup)
	assert.Len(t, res.Created, 1)
}

func TestMassCloseGeneratesLinesAndCollectsFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Entity Z has no cash accounts and NOPE is not configured.
	res, err := f.runner.MassClose(ctx, batch.MassCloseParams{Date: day(4), Entities: []string{"X", "Z", "NOPE", "Y"}, GenerateLines: true, SkipExisting: true, User: "boss"})
	require.NoError(t, err)

	require.Len(t, res.Created, 2)
	for _, c := range res.Created {
		assert.Equal(t, model.StateInProgress, c.State)
		assert.Len(t, c.Lines, 2)
	}
	require.Len(t, res.Failed, 2)
	assert.Equal(t, "Z", res.Failed[0].Entity)
	assert.ErrorIs(t, res.Failed[0], closing.ErrConfiguration)
	assert.Equal(t, "NOPE", res.Failed[1].Entity)
	assert.ErrorIs(t, res.Failed[1], closing.ErrNotFound)
	assert.Contains(t, f.logs.String(), "batch entity failed")

	z, err := f.svc.FindOpen(ctx, "Z", day(4))
	require.NoError(t, err)
	assert.Nil(t, z, "failed entity leaves nothing behind")

	joined := batch.Errors(res.Failed)
	require.Error(t, joined)
	assert.Contains(t, joined.Error(), "NOPE")
	assert.NoError(t, batch.Errors(nil))
}

func TestMassCloseAllEntities(t *testing.T) {
	f := newFixture(t)
	res, err := f.runner.MassClose(context.Background(), batch.MassCloseParams{Date: day(5), User: "boss"})
	require.NoError(t, err)
	assert.Len(t, res.Created, 3, "drafts need no cash accounts")
}

func TestMassCloseValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.runner.MassClose(context.Background(), batch.MassCloseParams{Date: day(5)})
	assert.ErrorIs(t, err, closing.ErrValidation)
}

func TestMassConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var closed []string
	for _, d := range []int{1, 2} {
		res, err := f.runner.MassClose(ctx, batch.MassCloseParams{Date: day(d), Entities: []string{"X", "Y"}, GenerateLines: true, User: "maria"})
		require.NoError(t, err)
		for _, c := range res.Created {
			c, err = f.svc.Close(ctx, c.ID)
			require.NoError(t, err)
			closed = append(closed, c.ID)
		}
	}
	// One still in progress is not picked up.
	_, err := f.runner.MassClose(ctx, batch.MassCloseParams{Date: day(2), Entities: []string{"Z"}, User: "maria"})
	require.NoError(t, err)

	preview, err := f.runner.PreviewMassConfirm(ctx, day(1), day(2), nil)
	require.NoError(t, err)
	require.Len(t, preview, 3)
	assert.Equal(t, batch.ConfirmPreview{Entity: "X", ToConfirm: 2}, preview[0])

	res, err := f.runner.MassConfirm(ctx, batch.MassConfirmParams{From: day(1), To: day(1), User: "boss"})
	require.NoError(t, err)
	assert.Len(t, res.Confirmed, 2)
	assert.Equal(t, []string{"Z"}, res.Idle)
	for _, c := range res.Confirmed {
		assert.Equal(t, model.StateConfirmed, c.State)
		assert.Equal(t, "boss", c.ConfirmedBy)
	}

	res, err = f.runner.MassConfirm(ctx, batch.MassConfirmParams{From: day(1), To: day(2), Entities: []string{"X"}, User: "boss"})
	require.NoError(t, err)
	assert.Len(t, res.Confirmed, 1)
	assert.Empty(t, res.Idle)

	preview, err = f.runner.PreviewMassConfirm(ctx, day(1), day(2), []string{"X"})
	require.NoError(t, err)
	assert.Equal(t, []batch.ConfirmPreview{{Entity: "X", AlreadyConfirmed: 2}}, preview)

	_, err = f.runner.MassConfirm(ctx, batch.MassConfirmParams{From: day(2), To: day(1), User: "boss"})
	assert.ErrorIs(t, err, closing.ErrValidation)
}

func TestPreviewMassClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing, err := f.svc.Create(ctx, closing.CreateParams{Date: day(6), Entity: "Y", User: "maria"})
	require.NoError(t, err)

	preview, err := f.runner.PreviewMassClose(ctx, day(6), []string{"X", "Y", "Z", "Q"})
	require.NoError(t, err)
	require.Len(t, preview, 4)
	assert.Equal(t, batch.StatusReady, preview[0].Status)
	assert.Equal(t, 2, preview[0].CashAccounts)
	assert.Equal(t, batch.StatusExists, preview[1].Status)
	assert.Equal(t, existing.ID, preview[1].Existing.ID)
	assert.Equal(t, batch.StatusNoCash, preview[2].Status)
	assert.Equal(t, batch.StatusUnknownEntity, preview[3].Status)

	// Preview writes nothing.
	x, err := f.svc.FindOpen(ctx, "X", day(6))
	require.NoError(t, err)
	assert.Nil(t, x)
}
