package storage

import (
	"context"
	"fmt"
)

// LocalUserID is the user seeded by the first migration. API-key ingest and
// single-user installs write as this user.
const LocalUserID = 1

// GetOrCreateUser upserts a user by login (the Tailscale login name, or a
// CLI-supplied name) and returns its ID. A non-empty displayName replaces
// the stored one and last_seen is refreshed on every call.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user %q: %w", login, err)
	}
	return id, nil
}
