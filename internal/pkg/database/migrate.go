package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// schema is applied in order on every start; each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                      UUID PRIMARY KEY,
		telegram_id             BIGINT NOT NULL UNIQUE,
		telegram_username       TEXT NOT NULL DEFAULT '',
		first_name              TEXT NOT NULL DEFAULT '',
		last_name               TEXT NOT NULL DEFAULT '',
		balance                 BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		grand_balance           BIGINT NOT NULL DEFAULT 0,
		tap_balance             BIGINT NOT NULL DEFAULT 0,
		ton_balance             BIGINT NOT NULL DEFAULT 0 CHECK (ton_balance >= 0),
		amount_token            BIGINT NOT NULL DEFAULT 0,
		available_tap_count     BIGINT NOT NULL DEFAULT 500,
		energy_limit_value      BIGINT NOT NULL DEFAULT 500,
		recharge_speed_value    BIGINT NOT NULL DEFAULT 1,
		multi_tap_value         BIGINT NOT NULL DEFAULT 1,
		last_tapped             TIMESTAMPTZ NOT NULL DEFAULT now(),
		multi_tap_level         INT NOT NULL DEFAULT 1,
		energy_limit_level      INT NOT NULL DEFAULT 1,
		recharge_speed_level    INT NOT NULL DEFAULT 1,
		have_tap_bot            BOOLEAN NOT NULL DEFAULT false,
		have_premium_bot        BOOLEAN NOT NULL DEFAULT false,
		premium_bot_at          TIMESTAMPTZ,
		is_receive_airdrop      BOOLEAN NOT NULL DEFAULT false,
		is_receive_point_reward BOOLEAN NOT NULL DEFAULT false,
		referer_id              BIGINT,
		referer_count           INT NOT NULL DEFAULT 0,
		receive_address         TEXT NOT NULL DEFAULT '',
		created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (available_tap_count <= energy_limit_value)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_referer_id ON users (referer_id)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id          UUID PRIMARY KEY,
		user_id     UUID NOT NULL,
		amount      BIGINT NOT NULL,
		currency    TEXT NOT NULL,
		status      TEXT NOT NULL,
		type        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_type_created ON ledger_entries (type, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_user_created ON ledger_entries (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS ledger_reverts (
		entry_id    UUID PRIMARY KEY,
		reverted_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chain_transactions (
		id           UUID PRIMARY KEY,
		hash         TEXT NOT NULL,
		msg_index    INT NOT NULL DEFAULT 0,
		logical_time BIGINT NOT NULL DEFAULT 0,
		from_address TEXT NOT NULL DEFAULT '',
		to_address   TEXT NOT NULL DEFAULT '',
		amount       BIGINT NOT NULL DEFAULT 0,
		fee          BIGINT NOT NULL DEFAULT 0,
		currency     TEXT NOT NULL,
		status       TEXT NOT NULL,
		direction    TEXT NOT NULL,
		body_text    TEXT NOT NULL DEFAULT '',
		is_processed BOOLEAN NOT NULL DEFAULT false,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (hash, msg_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chain_transactions_body_created ON chain_transactions (body_text, created_at)`,
	`CREATE TABLE IF NOT EXISTS withdraw_requests (
		id            UUID PRIMARY KEY,
		user_id       UUID NOT NULL REFERENCES users (id),
		amount        BIGINT NOT NULL CHECK (amount > 0),
		currency      TEXT NOT NULL,
		status        TEXT NOT NULL,
		chain_tx_hash TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at  TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_withdraw_requests_pending ON withdraw_requests (user_id) WHERE status = 'Pending'`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id           UUID PRIMARY KEY,
		category     TEXT NOT NULL,
		sub_category TEXT NOT NULL DEFAULT '',
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		reward       BIGINT NOT NULL DEFAULT 0,
		is_active    BOOLEAN NOT NULL DEFAULT true,
		url          TEXT NOT NULL DEFAULT '',
		image_url    TEXT NOT NULL DEFAULT '',
		code         TEXT NOT NULL DEFAULT '',
		value        BIGINT,
		sort_order   INT NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS user_tasks (
		id         UUID PRIMARY KEY,
		user_id    UUID NOT NULL REFERENCES users (id),
		task_id    UUID NOT NULL REFERENCES tasks (id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, task_id)
	)`,
}

// Migrate applies the schema statements in order.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	log.Info().Int("statements", len(schema)).Msg("Database schema is up to date")
	return nil
}
