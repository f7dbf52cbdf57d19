package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/claude/ironrank/internal/models"
)

const progressColumns = `total_exp, streak, last_workout_at, workouts_count, prs_count,
	COALESCE(active_title_id, ''), friends_count, training_hour, last_nudge_at`

func scanProgress(row pgx.Row) (models.Progress, error) {
	var p models.Progress
	var hour *int16
	err := row.Scan(&p.TotalExp, &p.Streak, &p.LastWorkoutAt, &p.WorkoutsCount, &p.PRsCount,
		&p.ActiveTitleID, &p.FriendsCount, &hour, &p.LastNudgeAt)
	if hour != nil {
		h := int(*hour)
		p.TrainingHour = &h
	}
	return p, err
}

func queryUnlockedTitles(ctx context.Context, q querier, userID int) ([]models.UnlockedTitle, error) {
	rows, err := q.Query(ctx,
		`SELECT title_id, unlocked_at FROM unlocked_titles WHERE user_id = $1 ORDER BY unlocked_at, title_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying unlocked titles: %w", err)
	}
	defer rows.Close()

	result := []models.UnlockedTitle{}
	for rows.Next() {
		var t models.UnlockedTitle
		if err := rows.Scan(&t.ID, &t.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scanning unlocked title: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func getProgress(ctx context.Context, q querier, userID int, forUpdate bool) (models.Progress, error) {
	query := `SELECT ` + progressColumns + ` FROM user_progress WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	p, err := scanProgress(q.QueryRow(ctx, query, userID))
	if err != nil {
		return models.Progress{}, fmt.Errorf("querying progress: %w", notFound(err))
	}
	p.UnlockedTitles, err = queryUnlockedTitles(ctx, q, userID)
	if err != nil {
		return models.Progress{}, err
	}
	return p, nil
}

func ensureProgress(ctx context.Context, q querier, userID int) error {
	_, err := q.Exec(ctx,
		`INSERT INTO user_progress (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("creating progress row: %w", err)
	}
	return nil
}

// GetProgress returns a user's progress. A user who never trained gets the
// zero snapshot.
func (db *DB) GetProgress(ctx context.Context, userID int) (models.Progress, error) {
	p, err := getProgress(ctx, db.Pool, userID, false)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, ErrNotFound) {
		return models.Progress{UnlockedTitles: []models.UnlockedTitle{}}, nil
	}
	return models.Progress{}, err
}

// ApplySession loads the user's state under a row lock on user_progress, hands
// it to fn and persists the commit fn returns, all in one transaction.
// Finalizes for the same user are therefore applied one at a time.
func (db *DB) ApplySession(ctx context.Context, userID int, fn func(models.UserState) (models.SessionCommit, error)) (models.SessionCommit, error) {
	var commit models.SessionCommit
	err := pgx.BeginTxFunc(ctx, db.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := ensureProgress(ctx, tx, userID); err != nil {
			return err
		}

		var state models.UserState
		var err error
		if state.Progress, err = getProgress(ctx, tx, userID, true); err != nil {
			return err
		}
		if state.History, err = queryHistory(ctx, tx, userID, 0); err != nil {
			return err
		}
		if state.Goal, err = activeGoal(ctx, tx, userID); err != nil {
			return err
		}

		commit, err = fn(state)
		if err != nil {
			return err
		}

		if err := insertRecord(ctx, tx, userID, commit.Record, commit.Breakdown); err != nil {
			return err
		}
		if err := insertSnapshots(ctx, tx, commit.Record.ID, commit.Breakdown.Snapshots); err != nil {
			return err
		}

		p := commit.Progress
		_, err = tx.Exec(ctx,
			`UPDATE user_progress SET total_exp = $2, streak = $3, last_workout_at = $4,
			 workouts_count = $5, prs_count = $6, updated_at = NOW()
			 WHERE user_id = $1`,
			userID, p.TotalExp, p.Streak, p.LastWorkoutAt, p.WorkoutsCount, p.PRsCount)
		if err != nil {
			return fmt.Errorf("updating progress: %w", err)
		}

		for _, t := range commit.NewTitles {
			_, err := tx.Exec(ctx,
				`INSERT INTO unlocked_titles (user_id, title_id, unlocked_at) VALUES ($1, $2, $3)
				 ON CONFLICT DO NOTHING`,
				userID, t.ID, t.UnlockedAt)
			if err != nil {
				return fmt.Errorf("inserting unlocked title %s: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return models.SessionCommit{}, err
	}
	return commit, nil
}

// SetActiveTitle equips a title. An empty id clears it.
func (db *DB) SetActiveTitle(ctx context.Context, userID int, titleID string) error {
	if err := ensureProgress(ctx, db.Pool, userID); err != nil {
		return err
	}
	_, err := db.Pool.Exec(ctx,
		`UPDATE user_progress SET active_title_id = NULLIF($2, ''), updated_at = NOW() WHERE user_id = $1`,
		userID, titleID)
	if err != nil {
		return fmt.Errorf("setting active title: %w", err)
	}
	return nil
}

// SetTrainingHour stores the user's habitual training hour. nil clears it.
func (db *DB) SetTrainingHour(ctx context.Context, userID int, hour *int) error {
	if err := ensureProgress(ctx, db.Pool, userID); err != nil {
		return err
	}
	_, err := db.Pool.Exec(ctx,
		`UPDATE user_progress SET training_hour = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, hour)
	if err != nil {
		return fmt.Errorf("setting training hour: %w", err)
	}
	return nil
}

// MarkNudged records a nudge at the given time unless another nudge was
// recorded within cooldown. Returns false when the cooldown is still active.
func (db *DB) MarkNudged(ctx context.Context, userID int, at time.Time, cooldown time.Duration) (bool, error) {
	if err := ensureProgress(ctx, db.Pool, userID); err != nil {
		return false, err
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE user_progress SET last_nudge_at = $2
		 WHERE user_id = $1 AND (last_nudge_at IS NULL OR last_nudge_at <= $3)`,
		userID, at, at.Add(-cooldown))
	if err != nil {
		return false, fmt.Errorf("marking nudge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
