package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ImportLog records the outcome of one import request.
type ImportLog struct {
	ID                int64            `json:"id"`
	UserID            int              `json:"user_id"`
	CreatedAt         time.Time        `json:"created_at"`
	Source            string           `json:"source"`
	Status            string           `json:"status"`
	SessionsReceived  int              `json:"sessions_received"`
	SessionsFinalized int              `json:"sessions_finalized"`
	SessionsSkipped   int              `json:"sessions_skipped"`
	ExpAwarded        int              `json:"exp_awarded"`
	TitlesUnlocked    int              `json:"titles_unlocked"`
	DurationMs        *int             `json:"duration_ms"`
	ErrorMessage      *string          `json:"error_message"`
	Metadata          *json.RawMessage `json:"metadata"`
}

// InsertImportLog stores l and returns its id.
func (db *DB) InsertImportLog(ctx context.Context, l ImportLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs (user_id, source, status, sessions_received,
			sessions_finalized, sessions_skipped, exp_awarded, titles_unlocked,
			duration_ms, error_message, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		l.UserID, l.Source, l.Status, l.SessionsReceived, l.SessionsFinalized,
		l.SessionsSkipped, l.ExpAwarded, l.TitlesUnlocked,
		l.DurationMs, l.ErrorMessage, l.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

const importLogColumns = `id, user_id, created_at, source, status, sessions_received,
	sessions_finalized, sessions_skipped, exp_awarded, titles_unlocked,
	duration_ms, error_message, metadata`

// QueryImportLogs returns a user's import logs, newest first. A non-positive
// limit means 50.
func (db *DB) QueryImportLogs(ctx context.Context, userID, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT `+importLogColumns+` FROM import_logs
		 WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	logs, err := pgx.CollectRows(rows, scanImportLog)
	if err != nil {
		return nil, fmt.Errorf("scanning import logs: %w", err)
	}
	return logs, nil
}

func scanImportLog(row pgx.CollectableRow) (ImportLog, error) {
	var l ImportLog
	err := row.Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.Source, &l.Status,
		&l.SessionsReceived, &l.SessionsFinalized, &l.SessionsSkipped, &l.ExpAwarded,
		&l.TitlesUnlocked, &l.DurationMs, &l.ErrorMessage, &l.Metadata)
	return l, err
}
