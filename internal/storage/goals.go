package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/ironrank/internal/models"
)

func activeGoal(ctx context.Context, q querier, userID int) (*models.Goal, error) {
	var g models.Goal
	var id uuid.UUID
	err := q.QueryRow(ctx,
		`SELECT id, title, deadline, exercises, created_at, is_active
		 FROM goals WHERE user_id = $1 AND is_active`,
		userID).Scan(&id, &g.Title, &g.Deadline, &g.Exercises, &g.CreatedAt, &g.IsActive)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying active goal: %w", err)
	}
	g.ID = id.String()
	return &g, nil
}

// ActiveGoal returns the user's active goal, or nil when none is set.
func (db *DB) ActiveGoal(ctx context.Context, userID int) (*models.Goal, error) {
	return activeGoal(ctx, db.Pool, userID)
}

// SetActiveGoal deactivates the current goal and inserts g as the active one.
func (db *DB) SetActiveGoal(ctx context.Context, userID int, g models.Goal) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`UPDATE goals SET is_active = FALSE WHERE user_id = $1 AND is_active`, userID); err != nil {
		return fmt.Errorf("deactivating goal: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO goals (id, user_id, title, deadline, exercises, created_at, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE)`,
		g.ID, userID, g.Title, g.Deadline, g.Exercises, g.CreatedAt); err != nil {
		return fmt.Errorf("inserting goal: %w", err)
	}
	return tx.Commit(ctx)
}

// ClearActiveGoal deactivates the user's goal, if any.
func (db *DB) ClearActiveGoal(ctx context.Context, userID int) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE goals SET is_active = FALSE WHERE user_id = $1 AND is_active`, userID); err != nil {
		return fmt.Errorf("clearing goal: %w", err)
	}
	return nil
}
