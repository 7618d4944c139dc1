package database

import (
	"context"
	"fmt"
)

// TransactionsChannel is the NOTIFY channel fired with a user ID whenever
// that user's transactions change.
const TransactionsChannel = "transactions_changed"

// RunMigrations creates the database schema. Every statement is idempotent.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			what_do_we_call_you TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS credentials (
			user_id TEXT PRIMARY KEY REFERENCES user_profiles(user_id),
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_credentials_email ON credentials(LOWER(email))`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			amount DECIMAL(14, 2) NOT NULL CHECK (amount >= 0),
			currency TEXT NOT NULL DEFAULT 'USD',
			type TEXT NOT NULL CHECK (type IN ('EXPENSE', 'INCOME')),
			card_or_wallet TEXT NOT NULL DEFAULT '',
			category_id TEXT NOT NULL DEFAULT '',
			category_name TEXT NOT NULL DEFAULT '',
			category_color TEXT NOT NULL DEFAULT '#00B140',
			date_ms BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date_ms DESC)`,

		`CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			bank_name TEXT NOT NULL,
			card_number TEXT NOT NULL,
			holder_name TEXT NOT NULL,
			expiry TEXT NOT NULL,
			monthly_budget DECIMAL(14, 2),
			current_month_left DECIMAL(14, 2),
			previous_month_budget DECIMAL(14, 2),
			previous_month_left DECIMAL(14, 2)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_user_id ON cards(user_id)`,

		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			color_hex TEXT NOT NULL DEFAULT '#00B140'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_user_id ON categories(user_id)`,

		`CREATE TABLE IF NOT EXISTS thresholds (
			user_id TEXT PRIMARY KEY,
			daily DECIMAL(14, 2) NOT NULL DEFAULT 0,
			monthly DECIMAL(14, 2) NOT NULL DEFAULT 0,
			yearly DECIMAL(14, 2) NOT NULL DEFAULT 0
		)`,

		`CREATE OR REPLACE FUNCTION notify_transactions_changed() RETURNS trigger AS $$
		BEGIN
			PERFORM pg_notify('` + TransactionsChannel + `', NEW.user_id);
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS transactions_changed ON transactions`,
		`CREATE TRIGGER transactions_changed
			AFTER INSERT OR UPDATE ON transactions
			FOR EACH ROW EXECUTE FUNCTION notify_transactions_changed()`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
