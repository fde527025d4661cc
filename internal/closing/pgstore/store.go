// Package pgstore keeps closes in PostgreSQL. One non-cancelled close per
// entity and date is enforced by a partial unique index.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashclose/internal/closing"
	"github.com/cleared-dev/cashclose/internal/model"
)

const uniqueViolation = "23505"

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a closing.Store backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ closing.Store = (*Store)(nil)

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.ConnConfig.ConnectTimeout = 10 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// New returns a Store using pool. Call Migrate before first use.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Insert stores a new close.
func (s *Store) Insert(ctx context.Context, c *model.Close) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning insert: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx, `
		INSERT INTO cash_closes (
			id, ref, close_date, entity, responsible_user, state, notes, created_at,
			closed_signature, closed_at, confirmed_by, confirmed_signature, confirmed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.Ref, c.Date, c.Entity, c.ResponsibleUser, string(c.State), c.Notes, c.CreatedAt,
		c.ClosedSignature, c.ClosedAt, c.ConfirmedBy, c.ConfirmedSignature, c.ConfirmedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// The failed transaction cannot be queried any more.
			_ = tx.Rollback(ctx)
			return s.duplicate(ctx, c)
		}
		return fmt.Errorf("inserting close %s: %w", c.ID, err)
	}
	if err := insertChildren(ctx, tx, c); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing close %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) duplicate(ctx context.Context, c *model.Close) error {
	dup := &closing.DuplicateCloseError{Entity: c.Entity, Date: c.Date}
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM cash_closes WHERE close_date = $1 AND entity = $2 AND state <> 'cancelled'`,
		c.Date, c.Entity,
	).Scan(&dup.ExistingID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("looking up existing close: %w", err)
	}
	return dup
}

// Get loads a close by ID.
func (s *Store) Get(ctx context.Context, id string) (*model.Close, error) {
	c, err := getClose(ctx, s.pool, id, false)
	if err != nil {
		return nil, err
	}
	if err := loadChildren(ctx, s.pool, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update applies fn to the close under a row lock and writes the result.
// Nothing is written when fn fails.
func (s *Store) Update(ctx context.Context, id string, fn func(*model.Close) error) (*model.Close, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning update: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	cur, err := getClose(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if err := loadChildren(ctx, tx, cur); err != nil {
		return nil, err
	}

	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if next.ID != cur.ID || next.Entity != cur.Entity || !next.Date.Equal(cur.Date) {
		return nil, fmt.Errorf("close %s: id, entity and date cannot change", id)
	}

	_, err = tx.Exec(ctx, `
		UPDATE cash_closes SET
			state = $2, notes = $3, responsible_user = $4,
			closed_signature = $5, closed_at = $6,
			confirmed_by = $7, confirmed_signature = $8, confirmed_at = $9
		WHERE id = $1`,
		next.ID, string(next.State), next.Notes, next.ResponsibleUser,
		next.ClosedSignature, next.ClosedAt,
		next.ConfirmedBy, next.ConfirmedSignature, next.ConfirmedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("updating close %s: %w", id, err)
	}
	// Child rows cascade from the lines.
	if _, err := tx.Exec(ctx, `DELETE FROM cash_close_lines WHERE close_id = $1`, id); err != nil {
		return nil, fmt.Errorf("clearing lines of close %s: %w", id, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cash_close_bank_lines WHERE close_id = $1`, id); err != nil {
		return nil, fmt.Errorf("clearing bank lines of close %s: %w", id, err)
	}
	if err := insertChildren(ctx, tx, next); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing close %s: %w", id, err)
	}
	return next, nil
}

// Find returns the closes matching q ordered by date, entity and creation.
func (s *Store) Find(ctx context.Context, q closing.Query) ([]*model.Close, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if len(q.Entities) > 0 {
		codes := make([]string, len(q.Entities))
		for i, e := range q.Entities {
			codes[i] = strings.ToUpper(e)
		}
		where = append(where, "entity = ANY("+arg(codes)+")")
	}
	if !q.From.IsZero() {
		where = append(where, "close_date >= "+arg(closing.Day(q.From)))
	}
	if !q.To.IsZero() {
		where = append(where, "close_date <= "+arg(closing.Day(q.To)))
	}
	if len(q.States) > 0 {
		states := make([]string, len(q.States))
		for i, st := range q.States {
			states[i] = string(st)
		}
		where = append(where, "state = ANY("+arg(states)+")")
	}
	if q.ExcludeCancelled {
		where = append(where, "state <> 'cancelled'")
	}
	if q.AccountID != 0 {
		where = append(where, "EXISTS (SELECT 1 FROM cash_close_lines l WHERE l.close_id = cash_closes.id AND l.account_id = "+arg(q.AccountID)+")")
	}

	sql := closeColumns + " FROM cash_closes"
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY close_date, entity, created_at"

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("finding closes: %w", err)
	}
	cs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Close, error) {
		return scanClose(row)
	})
	if err != nil {
		return nil, fmt.Errorf("finding closes: %w", err)
	}
	for _, c := range cs {
		if err := loadChildren(ctx, s.pool, c); err != nil {
			return nil, err
		}
	}
	return cs, nil
}

const closeColumns = `
	SELECT id, ref, close_date, entity, responsible_user, state, notes, created_at,
		closed_signature, closed_at, confirmed_by, confirmed_signature, confirmed_at`

func getClose(ctx context.Context, q querier, id string, lock bool) (*model.Close, error) {
	sql := closeColumns + " FROM cash_closes WHERE id = $1"
	if lock {
		sql += " FOR UPDATE"
	}
	c, err := scanClose(q.QueryRow(ctx, sql, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &closing.CloseNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("loading close %s: %w", id, err)
	}
	return c, nil
}

func scanClose(row pgx.Row) (*model.Close, error) {
	var (
		c     model.Close
		state string
	)
	err := row.Scan(
		&c.ID, &c.Ref, &c.Date, &c.Entity, &c.ResponsibleUser, &state, &c.Notes, &c.CreatedAt,
		&c.ClosedSignature, &c.ClosedAt, &c.ConfirmedBy, &c.ConfirmedSignature, &c.ConfirmedAt,
	)
	if err != nil {
		return nil, err
	}
	c.State = model.CloseState(state)
	if !c.State.Valid() {
		return nil, fmt.Errorf("close %s has unknown state %q", c.ID, state)
	}
	c.Date = closing.Day(c.Date)
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func insertChildren(ctx context.Context, q querier, c *model.Close) error {
	for i, l := range c.Lines {
		_, err := q.Exec(ctx, `
			INSERT INTO cash_close_lines (
				close_id, position, account_id, account_name, bucket, currency,
				initial_balance, total_income, total_expense, counted_amount, counted, notes
			) VALUES ($1, $2, $3, $4, $5, $6, $7::text::numeric, $8::text::numeric, $9::text::numeric, $10::text::numeric, $11, $12)`,
			c.ID, i, l.AccountID, l.AccountName, string(l.Bucket), l.Currency,
			l.InitialBalance.String(), l.TotalIncome.String(), l.TotalExpense.String(), l.CountedAmount.String(),
			l.Counted, l.Notes,
		)
		if err != nil {
			return fmt.Errorf("inserting line %d of close %s: %w", l.AccountID, c.ID, err)
		}
		for j, d := range l.Denominations {
			_, err := q.Exec(ctx, `
				INSERT INTO cash_close_denominations (close_id, account_id, position, denomination_id, value, type, quantity)
				VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7)`,
				c.ID, l.AccountID, j, d.DenominationID, d.Value.String(), string(d.Type), d.Quantity,
			)
			if err != nil {
				return fmt.Errorf("inserting denomination row of line %d: %w", l.AccountID, err)
			}
		}
		for j, b := range l.BadBills {
			_, err := q.Exec(ctx, `
				INSERT INTO cash_close_bad_bills (close_id, account_id, position, denomination_id, value, quantity, condition, notes)
				VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7, $8)`,
				c.ID, l.AccountID, j, b.DenominationID, b.Value.String(), b.Quantity, string(b.Condition), b.Notes,
			)
			if err != nil {
				return fmt.Errorf("inserting bad bill of line %d: %w", l.AccountID, err)
			}
		}
	}
	for i, b := range c.BankLines {
		_, err := q.Exec(ctx, `
			INSERT INTO cash_close_bank_lines (close_id, position, account_id, account_name, currency, closing_balance, notes)
			VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7)`,
			c.ID, i, b.AccountID, b.AccountName, b.Currency, b.ClosingBalance.String(), b.Notes,
		)
		if err != nil {
			return fmt.Errorf("inserting bank line %d of close %s: %w", b.AccountID, c.ID, err)
		}
	}
	return nil
}

func loadChildren(ctx context.Context, q querier, c *model.Close) error {
	if err := loadLines(ctx, q, c); err != nil {
		return err
	}
	if err := loadDenominations(ctx, q, c); err != nil {
		return err
	}
	if err := loadBadBills(ctx, q, c); err != nil {
		return err
	}
	return loadBankLines(ctx, q, c)
}

func loadLines(ctx context.Context, q querier, c *model.Close) error {
	rows, err := q.Query(ctx, `
		SELECT account_id, account_name, bucket, currency,
			initial_balance::text, total_income::text, total_expense::text, counted_amount::text,
			counted, notes
		FROM cash_close_lines WHERE close_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return fmt.Errorf("loading lines of close %s: %w", c.ID, err)
	}
	defer rows.Close()

	c.Lines = nil
	for rows.Next() {
		var (
			l                                  model.CloseLine
			bucket                             string
			initial, income, expense, counted string
		)
		if err := rows.Scan(&l.AccountID, &l.AccountName, &bucket, &l.Currency,
			&initial, &income, &expense, &counted, &l.Counted, &l.Notes); err != nil {
			return fmt.Errorf("scanning line of close %s: %w", c.ID, err)
		}
		l.Bucket = model.Bucket(bucket)
		if !l.Bucket.Valid() {
			return fmt.Errorf("line %d of close %s has unknown bucket %q", l.AccountID, c.ID, bucket)
		}
		if err := parseAmounts(map[*decimal.Decimal]string{
			&l.InitialBalance: initial, &l.TotalIncome: income, &l.TotalExpense: expense, &l.CountedAmount: counted,
		}); err != nil {
			return fmt.Errorf("line %d of close %s: %w", l.AccountID, c.ID, err)
		}
		c.Lines = append(c.Lines, l)
	}
	return rows.Err()
}

func loadDenominations(ctx context.Context, q querier, c *model.Close) error {
	rows, err := q.Query(ctx, `
		SELECT account_id, denomination_id, value::text, type, quantity
		FROM cash_close_denominations WHERE close_id = $1 ORDER BY account_id, position`, c.ID)
	if err != nil {
		return fmt.Errorf("loading denomination rows of close %s: %w", c.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			accountID int
			d         model.DenominationLine
			value     string
			typ       string
		)
		if err := rows.Scan(&accountID, &d.DenominationID, &value, &typ, &d.Quantity); err != nil {
			return fmt.Errorf("scanning denomination row of close %s: %w", c.ID, err)
		}
		v, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("denomination value %q: %w", value, err)
		}
		d.Value = v
		d.Type = model.DenominationType(typ)
		if l := c.Line(accountID); l != nil {
			l.Denominations = append(l.Denominations, d)
		}
	}
	return rows.Err()
}

func loadBadBills(ctx context.Context, q querier, c *model.Close) error {
	rows, err := q.Query(ctx, `
		SELECT account_id, denomination_id, value::text, quantity, condition, notes
		FROM cash_close_bad_bills WHERE close_id = $1 ORDER BY account_id, position`, c.ID)
	if err != nil {
		return fmt.Errorf("loading bad bills of close %s: %w", c.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			accountID int
			b         model.BadBill
			value     string
			condition string
		)
		if err := rows.Scan(&accountID, &b.DenominationID, &value, &b.Quantity, &condition, &b.Notes); err != nil {
			return fmt.Errorf("scanning bad bill of close %s: %w", c.ID, err)
		}
		v, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("bad bill value %q: %w", value, err)
		}
		b.Value = v
		b.Condition = model.BillCondition(condition)
		if l := c.Line(accountID); l != nil {
			l.BadBills = append(l.BadBills, b)
		}
	}
	return rows.Err()
}

func loadBankLines(ctx context.Context, q querier, c *model.Close) error {
	rows, err := q.Query(ctx, `
		SELECT account_id, account_name, currency, closing_balance::text, notes
		FROM cash_close_bank_lines WHERE close_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return fmt.Errorf("loading bank lines of close %s: %w", c.ID, err)
	}
	defer rows.Close()

	c.BankLines = nil
	for rows.Next() {
		var (
			b       model.BankLine
			balance string
		)
		if err := rows.Scan(&b.AccountID, &b.AccountName, &b.Currency, &balance, &b.Notes); err != nil {
			return fmt.Errorf("scanning bank line of close %s: %w", c.ID, err)
		}
		v, err := decimal.NewFromString(balance)
		if err != nil {
			return fmt.Errorf("bank line balance %q: %w", balance, err)
		}
		b.ClosingBalance = v
		c.BankLines = append(c.BankLines, b)
	}
	return rows.Err()
}

func parseAmounts(fields map[*decimal.Decimal]string) error {
	for dst, s := range fields {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", s, err)
		}
		*dst = v
	}
	return nil
}
