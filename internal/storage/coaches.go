package storage

import (
	"context"
	"fmt"
)

// GetOrCreateCoach finds or creates a coach by Tailscale login name.
// Returns the coach ID. Updates last_seen and display_name on each call.
func (db *DB) GetOrCreateCoach(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO coaches (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), coaches.display_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting coach %s: %w", login, err)
	}
	return id, nil
}
