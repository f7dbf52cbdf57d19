package models

import "fmt"

// RequirementType identifies which aggregate a title is compared against.
type RequirementType string

const (
	RequireLevel          RequirementType = "level"
	RequireStreak         RequirementType = "streak"
	RequireVolumeTotal    RequirementType = "volume_total"
	RequireVolumeDaily    RequirementType = "volume_daily"
	RequireWorkoutsCount  RequirementType = "workouts_count"
	RequireExerciseWeight RequirementType = "exercise_weight"
	RequireCardioTime     RequirementType = "cardio_time_total"
	RequireCardioSessions RequirementType = "cardio_sessions"
	RequirePRsCount       RequirementType = "prs_count"
	RequireFriendsCount   RequirementType = "friends_count"
	RequireSumBigThree    RequirementType = "sum_big_three"
)

// Valid reports whether t is a known requirement type.
func (t RequirementType) Valid() bool {
	switch t {
	case RequireLevel, RequireStreak, RequireVolumeTotal, RequireVolumeDaily,
		RequireWorkoutsCount, RequireExerciseWeight, RequireCardioTime,
		RequireCardioSessions, RequirePRsCount, RequireFriendsCount, RequireSumBigThree:
		return true
	}
	return false
}

// Requirement is the single typed unlock condition of a title.
type Requirement struct {
	Type         RequirementType `json:"type" yaml:"type"`
	Value        float64         `json:"value" yaml:"value"`
	ExerciseName string          `json:"exercise_name,omitempty" yaml:"exercise_name"`
}

// Title is an immutable unlockable catalog entry.
type Title struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Icon        string      `json:"icon" yaml:"icon"`
	Color       string      `json:"color" yaml:"color"`
	Category    string      `json:"category" yaml:"category"`
	Description string      `json:"description" yaml:"description"`
	Requirement Requirement `json:"requirement" yaml:"requirement"`
}

// Validate checks the title has an id and a well-formed requirement.
func (t Title) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("title %q: id is required", t.Name)
	}
	if !t.Requirement.Type.Valid() {
		return fmt.Errorf("title %s: unknown requirement type %q", t.ID, t.Requirement.Type)
	}
	if t.Requirement.Value < 0 {
		return fmt.Errorf("title %s: requirement value must be non-negative", t.ID)
	}
	if t.Requirement.Type == RequireExerciseWeight && t.Requirement.ExerciseName == "" {
		return fmt.Errorf("title %s: exercise_weight requires exercise_name", t.ID)
	}
	return nil
}
