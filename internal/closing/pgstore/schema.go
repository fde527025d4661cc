package pgstore

import (
	"context"
	"fmt"
)

// schema is applied by Migrate. Statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS cash_closes (
	id                  TEXT PRIMARY KEY,
	ref                 TEXT NOT NULL,
	close_date          DATE NOT NULL,
	entity              TEXT NOT NULL,
	responsible_user    TEXT NOT NULL,
	state               TEXT NOT NULL,
	notes               TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL,
	closed_signature    BYTEA,
	closed_at           TIMESTAMPTZ,
	confirmed_by        TEXT NOT NULL DEFAULT '',
	confirmed_signature BYTEA,
	confirmed_at        TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS cash_closes_open_day
	ON cash_closes (close_date, entity) WHERE state <> 'cancelled';

CREATE TABLE IF NOT EXISTS cash_close_lines (
	close_id        TEXT NOT NULL REFERENCES cash_closes (id) ON DELETE CASCADE,
	position        INT NOT NULL,
	account_id      INT NOT NULL,
	account_name    TEXT NOT NULL,
	bucket          TEXT NOT NULL,
	currency        TEXT NOT NULL,
	initial_balance NUMERIC NOT NULL,
	total_income    NUMERIC NOT NULL,
	total_expense   NUMERIC NOT NULL,
	counted_amount  NUMERIC NOT NULL,
	counted         BOOLEAN NOT NULL,
	notes           TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (close_id, account_id)
);

CREATE TABLE IF NOT EXISTS cash_close_denominations (
	close_id        TEXT NOT NULL,
	account_id      INT NOT NULL,
	position        INT NOT NULL,
	denomination_id INT NOT NULL,
	value           NUMERIC NOT NULL,
	type            TEXT NOT NULL DEFAULT '',
	quantity        INT NOT NULL,
	PRIMARY KEY (close_id, account_id, position),
	FOREIGN KEY (close_id, account_id) REFERENCES cash_close_lines (close_id, account_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS cash_close_bad_bills (
	close_id        TEXT NOT NULL,
	account_id      INT NOT NULL,
	position        INT NOT NULL,
	denomination_id INT NOT NULL,
	value           NUMERIC NOT NULL,
	quantity        INT NOT NULL,
	condition       TEXT NOT NULL,
	notes           TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (close_id, account_id, position),
	FOREIGN KEY (close_id, account_id) REFERENCES cash_close_lines (close_id, account_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS cash_close_bank_lines (
	close_id        TEXT NOT NULL REFERENCES cash_closes (id) ON DELETE CASCADE,
	position        INT NOT NULL,
	account_id      INT NOT NULL,
	account_name    TEXT NOT NULL,
	currency        TEXT NOT NULL,
	closing_balance NUMERIC NOT NULL,
	notes           TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (close_id, account_id)
);
`

// Migrate creates the close tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrating close schema: %w", err)
	}
	return nil
}
