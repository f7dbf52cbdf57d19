package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/ironrank/internal/models"
)

const recordColumns = `id, date, total_volume, exercise_count, top_exercise_name, top_weight,
	total_time_under_tension, exp_earned, COALESCE(external_id, '')`

// insertRecord writes the record row with its breakdown totals. Returns
// ErrDuplicate when an imported session with the same external id exists.
func insertRecord(ctx context.Context, q querier, userID int, rec models.WorkoutRecord, b models.ExpBreakdown) error {
	var externalID *string
	if rec.ExternalID != "" {
		externalID = &rec.ExternalID
	}
	tag, err := q.Exec(ctx,
		`INSERT INTO workout_records (id, user_id, date, total_volume, exercise_count,
		 top_exercise_name, top_weight, total_time_under_tension, exp_earned, external_id,
		 volume_exp, routine_bonus, load_bonus, pr_bonus, goal_progression_bonus, streak_multiplier)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		 ON CONFLICT (user_id, external_id) WHERE external_id IS NOT NULL DO NOTHING`,
		rec.ID, userID, rec.Date, rec.TotalVolume, rec.ExerciseCount,
		rec.TopExerciseName, rec.TopWeight, rec.TotalTimeUnderTension, rec.ExpEarned, externalID,
		b.VolumeExp, b.RoutineBonus, b.LoadBonus, b.PRBonus, b.GoalProgressionBonus, b.StreakMultiplier)
	if err != nil {
		return fmt.Errorf("inserting workout record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("external id %s: %w", rec.ExternalID, models.ErrDuplicate)
	}
	return nil
}

func scanRecord(row pgx.Row) (models.WorkoutRecord, error) {
	var r models.WorkoutRecord
	err := row.Scan(&r.ID, &r.Date, &r.TotalVolume, &r.ExerciseCount, &r.TopExerciseName,
		&r.TopWeight, &r.TotalTimeUnderTension, &r.ExpEarned, &r.ExternalID)
	return r, err
}

// queryHistory returns a user's records newest first. limit <= 0 returns all.
func queryHistory(ctx context.Context, q querier, userID, limit int) ([]models.WorkoutRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM workout_records WHERE user_id = $1 ORDER BY date DESC, created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	result := []models.WorkoutRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// QueryHistory returns up to limit records for a user, newest first.
func (db *DB) QueryHistory(ctx context.Context, userID, limit int) ([]models.WorkoutRecord, error) {
	return queryHistory(ctx, db.Pool, userID, limit)
}

// GetWorkout retrieves a single record with its stored breakdown and snapshots.
func (db *DB) GetWorkout(ctx context.Context, userID int, id uuid.UUID) (*models.WorkoutDetail, error) {
	var d models.WorkoutDetail
	row := db.Pool.QueryRow(ctx,
		`SELECT `+recordColumns+`, volume_exp, routine_bonus, load_bonus, pr_bonus,
		 goal_progression_bonus, streak_multiplier
		 FROM workout_records
		 WHERE id = $1 AND user_id = $2`,
		id, userID)
	r, b := &d.Record, &d.Breakdown
	err := row.Scan(&r.ID, &r.Date, &r.TotalVolume, &r.ExerciseCount, &r.TopExerciseName,
		&r.TopWeight, &r.TotalTimeUnderTension, &r.ExpEarned, &r.ExternalID,
		&b.VolumeExp, &b.RoutineBonus, &b.LoadBonus, &b.PRBonus, &b.GoalProgressionBonus, &b.StreakMultiplier)
	if err != nil {
		return nil, fmt.Errorf("querying workout %s: %w", id, notFound(err))
	}
	b.TotalExp = r.ExpEarned

	b.Snapshots, err = db.querySnapshots(ctx, id)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
