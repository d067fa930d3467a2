package wardrobe

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements are idempotent; Bootstrap may run on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS muse_profiles (
	app_id     TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	nickname   TEXT NOT NULL,
	gender     TEXT NOT NULL DEFAULT 'Unisex',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (app_id, user_id)
)`,
	`CREATE TABLE IF NOT EXISTS muse_clothing_items (
	id          TEXT PRIMARY KEY,
	app_id      TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	image       TEXT NOT NULL,
	category    TEXT NOT NULL,
	color       TEXT NOT NULL,
	style       TEXT NOT NULL,
	description TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS muse_clothing_items_owner_idx ON muse_clothing_items (app_id, user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS muse_outfits (
	id           TEXT PRIMARY KEY,
	app_id       TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	top_id       TEXT NOT NULL,
	bottom_id    TEXT NOT NULL,
	shoes_id     TEXT NOT NULL,
	accessory_id TEXT,
	reasoning    TEXT NOT NULL DEFAULT '',
	missing_item JSONB,
	occasion     TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS muse_outfits_owner_idx ON muse_outfits (app_id, user_id, created_at DESC)`,
}

// Bootstrap creates the wardrobe tables if they are missing.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap statement %d: %w", i+1, err)
		}
	}
	return nil
}
