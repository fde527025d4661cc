package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashclose/internal/accounts"
	"github.com/cleared-dev/cashclose/internal/auditlog"
	"github.com/cleared-dev/cashclose/internal/balance"
	"github.com/cleared-dev/cashclose/internal/batch"
	"github.com/cleared-dev/cashclose/internal/closing"
	"github.com/cleared-dev/cashclose/internal/closing/filestore"
	"github.com/cleared-dev/cashclose/internal/closing/pgstore"
	"github.com/cleared-dev/cashclose/internal/config"
	"github.com/cleared-dev/cashclose/internal/denominations"
	"github.com/cleared-dev/cashclose/internal/gitops"
	"github.com/cleared-dev/cashclose/internal/id"
	"github.com/cleared-dev/cashclose/internal/identity"
	"github.com/cleared-dev/cashclose/internal/journal"
	"github.com/cleared-dev/cashclose/internal/logger"
	"github.com/cleared-dev/cashclose/internal/model"
	"github.com/cleared-dev/cashclose/internal/render"
)

const dateFormat = "2006-01-02"

// globalOptions are the persistent flags of the root command.
type globalOptions struct {
	repo     string
	logLevel string
	raw      bool
	user     string
	width    int
}

// app is everything a command needs from an opened repo.
type app struct {
	root       string
	opts       *globalOptions
	cfg        *config.Config
	log        zerolog.Logger
	accounts   *accounts.Service
	catalog    *denominations.Catalog
	ledger     *journal.Service
	engine     *balance.Engine
	closes     *closing.Service
	signatures *identity.Directory
	pool       *pgxpool.Pool
	out        io.Writer
}

func openApp(cmd *cobra.Command, opts *globalOptions) (*app, error) {
	root, err := filepath.Abs(opts.repo)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	log, err := logger.New(opts.logLevel)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return nil, err
	}
	if err := config.LoadEnv(root); err != nil {
		return nil, err
	}
	accts, err := accounts.Load(root)
	if err != nil {
		return nil, err
	}
	catalog, err := denominations.Load(root)
	if err != nil {
		return nil, err
	}

	a := &app{
		root:       root,
		opts:       opts,
		cfg:        cfg,
		log:        log,
		accounts:   accts,
		catalog:    catalog,
		ledger:     journal.NewService(root, accts, cfg.Ledger.DualCurrency),
		signatures: identity.New(root, cfg),
		out:        cmd.OutOrStdout(),
	}
	a.engine = balance.NewEngine(a.ledger)

	ctx := logger.WithContext(cmd.Context(), log)
	cmd.SetContext(ctx)

	var store closing.Store
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		dsn, err := cfg.DSN()
		if err != nil {
			return nil, err
		}
		pool, err := pgstore.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		pg := pgstore.New(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		a.pool = pool
		store = pg
	default:
		store = filestore.New(root)
	}

	a.closes = closing.NewService(closing.Deps{
		Store:         store,
		Entities:      cfg,
		Accounts:      accts,
		Balances:      a.engine,
		Denominations: catalog,
		Signatures:    a.signatures,
		Log:           log,
	})
	return a, nil
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// withApp opens the repo for the duration of fn.
func withApp(opts *globalOptions, fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

// user is the acting user: --user, then CASHCLOSE_USER, then USER.
func (a *app) user() (string, error) {
	for _, u := range []string{a.opts.user, os.Getenv("CASHCLOSE_USER"), os.Getenv("USER")} {
		if u = strings.TrimSpace(u); u != "" {
			return u, nil
		}
	}
	return "", errors.New("no user: pass --user or set CASHCLOSE_USER")
}

func (a *app) runner() *batch.Runner {
	return batch.NewRunner(a.closes, a.cfg, a.accounts, a.log)
}

func (a *app) renderOptions() render.Options {
	return render.Options{
		Variance: a.cfg.Variance,
		LocalCurrency: func(entity string) string {
			e, _ := a.cfg.Entity(entity)
			return e.LocalCurrency
		},
	}
}

func (a *app) print(markdown string) error {
	out, err := render.Terminal(markdown, a.opts.raw, a.opts.width)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.out, out)
	return err
}

func (a *app) printClose(c *model.Close) error {
	return a.print(render.CloseMarkdown(c, a.renderOptions()))
}

// record commits the repo when auto-commit is on and appends one audit
// entry per close. The audit rows travel with the next commit.
func (a *app) record(action, details string, closes ...*model.Close) {
	user, _ := a.user()
	subject := action
	if len(closes) == 1 {
		subject = fmt.Sprintf("%s %s", action, closes[0].Ref)
	} else if len(closes) > 1 {
		subject = fmt.Sprintf("%s (%d closes)", action, len(closes))
	}

	var hash string
	if a.cfg.Git.AutoCommit && gitops.IsRepo(a.root) {
		var err error
		hash, err = gitops.CommitAll(a.root, subject, gitops.Author{Name: a.cfg.Git.AuthorName, Email: a.cfg.Git.AuthorEmail})
		if err != nil {
			a.log.Warn().Err(err).Msg("auto-commit failed")
		}
	}

	now := time.Now().UTC()
	entries := make([]auditlog.Entry, 0, len(closes))
	for _, c := range closes {
		entries = append(entries, auditlog.Entry{
			Timestamp: now, User: user, Action: action,
			CloseID: c.ID, Entity: c.Entity, Details: details, CommitHash: hash,
		})
	}
	if len(entries) == 0 {
		entries = append(entries, auditlog.Entry{Timestamp: now, User: user, Action: action, Details: details, CommitHash: hash})
	}
	if err := auditlog.Append(a.root, entries...); err != nil {
		a.log.Warn().Err(err).Msg("writing audit log failed")
	}
}

// resolveClose accepts a close ID or a reference like CASH/ACME/2025-01-15.
func (a *app) resolveClose(ctx context.Context, ref string) (*model.Close, error) {
	if id.ValidCloseID(ref) {
		return a.closes.Get(ctx, ref)
	}
	entity, date, err := id.ParseCloseRef(strings.ToUpper(ref))
	if err != nil {
		return nil, err
	}
	c, err := a.closes.FindOpen(ctx, entity, date)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: no open close %s", closing.ErrNotFound, ref)
	}
	return c, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" || s == "today" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return parseDate(s)
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}
