package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/theirongolddev/grana/internal/model"
)

// schemaStatements is valid for both SQLite and PostgreSQL. Ids are uuid text,
// money is BIGINT minor units, dates are YYYY-MM-DD text, timestamps RFC 3339
// text and flags INTEGER 0/1.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id              TEXT PRIMARY KEY,
		owner           TEXT NOT NULL,
		name            TEXT NOT NULL,
		account_type    TEXT NOT NULL,
		bank            TEXT NOT NULL DEFAULT '',
		initial_balance BIGINT NOT NULL DEFAULT 0,
		current_balance BIGINT NOT NULL DEFAULT 0,
		active          INTEGER NOT NULL DEFAULT 1,
		created_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner)`,

	`CREATE TABLE IF NOT EXISTS credit_cards (
		id              TEXT PRIMARY KEY,
		owner           TEXT NOT NULL,
		name            TEXT NOT NULL,
		bank            TEXT NOT NULL DEFAULT '',
		credit_limit    BIGINT NOT NULL CHECK (credit_limit > 0),
		available_limit BIGINT NOT NULL,
		closing_day     INTEGER NOT NULL CHECK (closing_day BETWEEN 1 AND 31),
		due_day         INTEGER NOT NULL CHECK (due_day BETWEEN 1 AND 31),
		active          INTEGER NOT NULL DEFAULT 1,
		created_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_credit_cards_owner ON credit_cards(owner)`,

	`CREATE TABLE IF NOT EXISTS credit_card_bills (
		id              TEXT PRIMARY KEY,
		card_id         TEXT NOT NULL REFERENCES credit_cards(id),
		reference_month TEXT NOT NULL,
		period_start    TEXT NOT NULL,
		closing_date    TEXT NOT NULL,
		due_date        TEXT NOT NULL,
		total_amount    BIGINT NOT NULL DEFAULT 0,
		paid_amount     BIGINT NOT NULL DEFAULT 0,
		status          TEXT NOT NULL CHECK (status IN ('open', 'closed', 'paid')),
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		UNIQUE (card_id, reference_month),
		CHECK (paid_amount >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_credit_card_bills_due ON credit_card_bills(due_date)`,

	`CREATE TABLE IF NOT EXISTS categories (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		color      TEXT NOT NULL DEFAULT '#878580',
		icon       TEXT NOT NULL DEFAULT '',
		is_default INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id            TEXT PRIMARY KEY,
		owner         TEXT NOT NULL,
		kind          TEXT NOT NULL CHECK (kind IN ('income', 'expense', 'transfer')),
		amount        BIGINT NOT NULL CHECK (amount > 0),
		description   TEXT NOT NULL,
		category_id   TEXT NOT NULL REFERENCES categories(id),
		date          TEXT NOT NULL,
		account_id    TEXT REFERENCES accounts(id),
		card_id       TEXT REFERENCES credit_cards(id),
		transfer_from TEXT REFERENCES accounts(id),
		transfer_to   TEXT REFERENCES accounts(id),
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL,
		CHECK (
			(kind = 'transfer' AND account_id IS NULL AND card_id IS NULL
				AND transfer_from IS NOT NULL AND transfer_to IS NOT NULL AND transfer_from <> transfer_to)
			OR
			(kind <> 'transfer' AND transfer_from IS NULL AND transfer_to IS NULL
				AND (account_id IS NULL) <> (card_id IS NULL))
		)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_owner_date ON transactions(owner, date)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_card ON transactions(card_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_transfer_from ON transactions(transfer_from)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_transfer_to ON transactions(transfer_to)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_budget ON transactions(owner, category_id, kind, date)`,

	`CREATE TABLE IF NOT EXISTS transaction_tags (
		transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
		tag            TEXT NOT NULL,
		PRIMARY KEY (transaction_id, tag)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transaction_tags_tag ON transaction_tags(tag)`,

	`CREATE TABLE IF NOT EXISTS budgets (
		id          TEXT PRIMARY KEY,
		owner       TEXT NOT NULL,
		category_id TEXT NOT NULL REFERENCES categories(id),
		amount      BIGINT NOT NULL CHECK (amount > 0),
		month       TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		UNIQUE (owner, category_id, month)
	)`,

	`CREATE TABLE IF NOT EXISTS budget_alerts (
		id          TEXT PRIMARY KEY,
		budget_id   TEXT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
		alert_type  TEXT NOT NULL,
		level       TEXT NOT NULL,
		message     TEXT NOT NULL,
		active      INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL,
		resolved_at TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_budget_alerts_active
		ON budget_alerts(budget_id, alert_type) WHERE active = 1`,

	`CREATE TABLE IF NOT EXISTS goals (
		id             TEXT PRIMARY KEY,
		owner          TEXT NOT NULL,
		name           TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		target_amount  BIGINT NOT NULL CHECK (target_amount > 0),
		current_amount BIGINT NOT NULL DEFAULT 0,
		target_date    TEXT NOT NULL,
		achieved       INTEGER NOT NULL DEFAULT 0,
		achieved_at    TEXT,
		created_at     TEXT NOT NULL,
		UNIQUE (owner, name),
		CHECK (current_amount >= 0 AND current_amount <= target_amount)
	)`,

	`CREATE TABLE IF NOT EXISTS goal_contributions (
		id             TEXT PRIMARY KEY,
		goal_id        TEXT NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
		amount         BIGINT NOT NULL CHECK (amount > 0),
		date           TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		source_account TEXT REFERENCES accounts(id),
		created_at     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_goal_contributions_goal ON goal_contributions(goal_id)`,
}

func (s *DB) migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("running migration: %w", err)
		}
	}
	return s.seedCategories(ctx)
}

// seedCategories inserts the default categories. Existing names are kept.
func (s *DB) seedCategories(ctx context.Context) error {
	q := s.Queries()
	for _, c := range model.DefaultCategories {
		_, err := q.exec(ctx, `INSERT INTO categories (id, name, color, icon, is_default)
			VALUES (?, ?, ?, ?, 1) ON CONFLICT (name) DO NOTHING`,
			uuid.New(), c.Name, c.Color, c.Icon)
		if err != nil {
			return fmt.Errorf("seeding category %s: %w", c.Name, err)
		}
	}
	return nil
}
