package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/progression"
)

const snapshotCols = 17

// insertSnapshots batch-inserts the per-exercise results of one record.
func insertSnapshots(ctx context.Context, q querier, recordID uuid.UUID, snaps []models.ExerciseSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	query := `INSERT INTO exercise_snapshots (record_id, position, exercise_id, name, muscle_group,
		archetype, metric, exp_earned, old_weight, new_weight, old_reps, new_reps,
		old_seconds, new_seconds, did_rank_up, is_pr, is_goal_progression) VALUES `
	args := make([]any, 0, len(snaps)*snapshotCols)
	valueStrings := make([]string, 0, len(snaps))

	for i, s := range snaps {
		placeholders := make([]string, snapshotCols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", i*snapshotCols+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		args = append(args, recordID, i, s.ExerciseID, s.Name, s.MuscleGroup,
			s.Archetype, s.Metric, s.ExpEarned, s.OldWeight, s.NewWeight, s.OldReps, s.NewReps,
			s.OldSeconds, s.NewSeconds, s.DidRankUp, s.IsPR, s.IsGoalProgression)
	}

	query += strings.Join(valueStrings, ",")

	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting exercise snapshots: %w", err)
	}
	return nil
}

func (db *DB) querySnapshots(ctx context.Context, recordID uuid.UUID) ([]models.ExerciseSnapshot, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id, name, muscle_group, archetype, metric, exp_earned,
		 old_weight, new_weight, old_reps, new_reps, old_seconds, new_seconds,
		 did_rank_up, is_pr, is_goal_progression
		 FROM exercise_snapshots
		 WHERE record_id = $1
		 ORDER BY position ASC`,
		recordID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise snapshots: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseSnapshot
	for rows.Next() {
		var s models.ExerciseSnapshot
		if err := rows.Scan(&s.ExerciseID, &s.Name, &s.MuscleGroup, &s.Archetype, &s.Metric, &s.ExpEarned,
			&s.OldWeight, &s.NewWeight, &s.OldReps, &s.NewReps, &s.OldSeconds, &s.NewSeconds,
			&s.DidRankUp, &s.IsPR, &s.IsGoalProgression); err != nil {
			return nil, fmt.Errorf("scanning exercise snapshot: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// ExerciseBests returns each exercise's best recorded attempt keyed by
// exercise id. Attempts are compared with progression.Score so the best set
// here is the one the rank engine would rank highest.
func (db *DB) ExerciseBests(ctx context.Context, userID int) (map[string]models.WorkoutSet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT s.exercise_id, s.archetype, s.metric, s.new_weight, s.new_reps, s.new_seconds
		 FROM exercise_snapshots s
		 JOIN workout_records r ON r.id = s.record_id
		 WHERE r.user_id = $1
		 ORDER BY r.date, s.record_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise bests: %w", err)
	}
	defer rows.Close()

	var attempts []models.ExerciseSnapshot
	for rows.Next() {
		var s models.ExerciseSnapshot
		if err := rows.Scan(&s.ExerciseID, &s.Archetype, &s.Metric, &s.NewWeight, &s.NewReps, &s.NewSeconds); err != nil {
			return nil, fmt.Errorf("scanning exercise attempt: %w", err)
		}
		attempts = append(attempts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading exercise attempts: %w", err)
	}
	return bestAttempts(attempts), nil
}

// bestAttempts keeps the highest scoring attempt per exercise. Ties keep the
// earliest.
func bestAttempts(attempts []models.ExerciseSnapshot) map[string]models.WorkoutSet {
	bests := make(map[string]models.WorkoutSet)
	scores := make(map[string]float64)
	for _, a := range attempts {
		set := models.WorkoutSet{Weight: a.NewWeight, Reps: a.NewReps, Seconds: a.NewSeconds}
		score := progression.Score(a.Archetype, a.Metric, set)
		if _, ok := bests[a.ExerciseID]; !ok || score > scores[a.ExerciseID] {
			bests[a.ExerciseID] = set
			scores[a.ExerciseID] = score
		}
	}
	return bests
}
