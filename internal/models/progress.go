package models

import "time"

// UnlockedTitle records when a title was unlocked.
type UnlockedTitle struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Progress is the progression state of one user. It is treated as an
// immutable snapshot: finalizing a session returns a new value.
type Progress struct {
	TotalExp       int             `json:"total_exp"`
	Streak         int             `json:"streak"`
	LastWorkoutAt  *time.Time      `json:"last_workout_at"`
	WorkoutsCount  int             `json:"workouts_count"`
	PRsCount       int             `json:"prs_count"`
	UnlockedTitles []UnlockedTitle `json:"unlocked_titles"`
	ActiveTitleID  string          `json:"active_title_id,omitempty"`
	FriendsCount   int             `json:"friends_count"`
	TrainingHour   *int            `json:"training_hour,omitempty"`
	LastNudgeAt    *time.Time      `json:"last_nudge_at,omitempty"`
}

// HasTitle reports whether the title id is already unlocked.
func (p Progress) HasTitle(id string) bool {
	for _, t := range p.UnlockedTitles {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices or pointers with p.
func (p Progress) Clone() Progress {
	c := p
	c.UnlockedTitles = append([]UnlockedTitle(nil), p.UnlockedTitles...)
	if p.LastWorkoutAt != nil {
		t := *p.LastWorkoutAt
		c.LastWorkoutAt = &t
	}
	if p.TrainingHour != nil {
		h := *p.TrainingHour
		c.TrainingHour = &h
	}
	if p.LastNudgeAt != nil {
		t := *p.LastNudgeAt
		c.LastNudgeAt = &t
	}
	return c
}

// Goal is a user-defined target over a list of exercises.
type Goal struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Exercises []string   `json:"exercises"`
	CreatedAt time.Time  `json:"created_at"`
	IsActive  bool       `json:"is_active"`
}

// Includes reports whether the goal targets the named exercise.
func (g *Goal) Includes(name string) bool {
	if g == nil {
		return false
	}
	for _, n := range g.Exercises {
		if n == name {
			return true
		}
	}
	return false
}

// UserState is everything the finalizer reads for one user, loaded under a
// per-user lock. History is ordered newest first.
type UserState struct {
	Progress Progress
	History  []WorkoutRecord
	Goal     *Goal
}

// SessionCommit is what the store writes back after a finalize.
type SessionCommit struct {
	Record    WorkoutRecord
	Breakdown ExpBreakdown
	Progress  Progress
	NewTitles []UnlockedTitle
}
