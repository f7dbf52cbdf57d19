package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetOrCreateUser resolves a tailnet login to a user id. First sight creates
// the user together with an empty progress row; later calls refresh
// last_seen and, when given, the display name.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := pgx.BeginTxFunc(ctx, db.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (login, display_name) VALUES ($1, $2)
			ON CONFLICT (login) DO UPDATE
				SET last_seen = NOW(),
				    display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), users.display_name)
			RETURNING id`, login, displayName).Scan(&id)
		if err != nil {
			return err
		}
		return ensureProgress(ctx, tx, id)
	})
	if err != nil {
		return 0, fmt.Errorf("resolving user %s: %w", login, err)
	}
	return id, nil
}
