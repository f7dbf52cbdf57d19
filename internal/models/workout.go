package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutSet is one logged attempt. Seconds only matters for time-based metrics.
type WorkoutSet struct {
	Weight  float64 `json:"weight"`
	Reps    int     `json:"reps"`
	Seconds int     `json:"seconds"`
}

// SessionExercise is an exercise touched in the active session with its sets.
type SessionExercise struct {
	Exercise Exercise
	Sets     []WorkoutSet
}

// WorkoutRecord is the persisted summary of one finished session.
type WorkoutRecord struct {
	ID                    uuid.UUID `json:"id"`
	Date                  time.Time `json:"date"`
	TotalVolume           float64   `json:"total_volume"`
	ExerciseCount         int       `json:"exercise_count"`
	TopExerciseName       string    `json:"top_exercise_name"`
	TopWeight             float64   `json:"top_weight"`
	TotalTimeUnderTension int       `json:"total_time_under_tension"`
	ExpEarned             int       `json:"exp_earned"`
	// ExternalID identifies imported sessions so a replay cannot count twice.
	ExternalID string `json:"external_id,omitempty"`
}

// IsCardio reports whether the record is a cardio-only session.
func (r WorkoutRecord) IsCardio() bool {
	return r.TopWeight == 0 && r.TotalTimeUnderTension > 0
}

// ExerciseSnapshot is the per-exercise result of one session.
type ExerciseSnapshot struct {
	ExerciseID        string      `json:"exercise_id"`
	Name              string      `json:"name"`
	MuscleGroup       MuscleGroup `json:"muscle_group"`
	Archetype         Archetype   `json:"archetype"`
	Metric            Metric      `json:"metric"`
	ExpEarned         int         `json:"exp_earned"`
	OldWeight         float64     `json:"old_weight"`
	NewWeight         float64     `json:"new_weight"`
	OldReps           int         `json:"old_reps"`
	NewReps           int         `json:"new_reps"`
	OldSeconds        int         `json:"old_seconds"`
	NewSeconds        int         `json:"new_seconds"`
	DidRankUp         bool        `json:"did_rank_up"`
	IsPR              bool        `json:"is_pr"`
	IsGoalProgression bool        `json:"is_goal_progression"`
}

// ExpBreakdown is the EXP math of one session. Components are unrounded;
// TotalExp is rounded once from their sum times the multiplier.
type ExpBreakdown struct {
	VolumeExp            float64            `json:"volume_exp"`
	RoutineBonus         float64            `json:"routine_bonus"`
	LoadBonus            float64            `json:"load_bonus"`
	PRBonus              float64            `json:"pr_bonus"`
	GoalProgressionBonus float64            `json:"goal_progression_bonus"`
	StreakMultiplier     float64            `json:"streak_multiplier"`
	TotalExp             int                `json:"total_exp"`
	Snapshots            []ExerciseSnapshot `json:"exercise_snapshots"`
}

// PRCount returns how many snapshots are flagged as personal records.
func (b ExpBreakdown) PRCount() int {
	n := 0
	for _, s := range b.Snapshots {
		if s.IsPR {
			n++
		}
	}
	return n
}

// WorkoutDetail is a stored record with the breakdown it was scored with.
type WorkoutDetail struct {
	Record    WorkoutRecord `json:"record"`
	Breakdown ExpBreakdown  `json:"breakdown"`
}
