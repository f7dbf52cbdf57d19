package progression

import (
	"errors"
	"time"

	"github.com/claude/ironrank/internal/models"
)

// ErrEmptySession is returned when a session has nothing to score.
var ErrEmptySession = errors.New("session has no exercises")

// Cardio is a cardio-only session: one exercise and a duration.
type Cardio struct {
	Exercise models.Exercise
	Seconds  int
}

// FinalizeInput is one consistent snapshot of a user's state plus the
// session being finalized. Exactly one of Exercises or Cardio is set.
type FinalizeInput struct {
	Progress  models.Progress
	History   []models.WorkoutRecord
	Goal      *models.Goal
	Catalog   []models.Title
	Exercises []models.SessionExercise
	Cardio    *Cardio
	Now       time.Time
	Location  *time.Location
}

// Outcome is the result of a finalize. Progress is a new snapshot; the
// input snapshot is never modified.
type Outcome struct {
	Breakdown      models.ExpBreakdown
	Record         models.WorkoutRecord
	Progress       models.Progress
	LevelBefore    LevelStats
	LevelAfter     LevelStats
	UnlockedTitles []models.Title
}

// LeveledUp reports whether the session crossed at least one level.
func (o Outcome) LeveledUp() bool {
	return o.LevelAfter.Level > o.LevelBefore.Level
}

// RankUps lists snapshots whose rank increased.
func (o Outcome) RankUps() []models.ExerciseSnapshot {
	var out []models.ExerciseSnapshot
	for _, s := range o.Breakdown.Snapshots {
		if s.DidRankUp {
			out = append(out, s)
		}
	}
	return out
}

// Finalize runs streak, EXP, level and title rules for one session. The
// caller assigns the record id and persists the outcome.
func Finalize(in FinalizeInput) (Outcome, error) {
	if in.Cardio == nil && len(in.Exercises) == 0 {
		return Outcome{}, ErrEmptySession
	}

	prev := in.Progress
	streak := NextStreak(prev.Streak, prev.LastWorkoutAt, in.Now, in.Location)

	var (
		breakdown models.ExpBreakdown
		record    models.WorkoutRecord
	)
	if in.Cardio != nil {
		breakdown = ComposeCardio(in.Cardio.Exercise, in.Cardio.Seconds, streak)
		record = CardioRecord(in.Cardio.Exercise, in.Cardio.Seconds)
	} else {
		breakdown = ComposeSession(SessionInput{
			Exercises: in.Exercises,
			History:   in.History,
			Goal:      in.Goal,
			Streak:    streak,
			Now:       in.Now,
		})
		record = SessionRecord(in.Exercises)
	}
	record.Date = in.Now
	record.ExpEarned = breakdown.TotalExp

	before := LevelFor(prev.TotalExp)
	after := LevelFor(prev.TotalExp + breakdown.TotalExp)

	unlocked := EvaluateTitles(TitleInput{
		Catalog:  in.Catalog,
		Progress: prev,
		History:  in.History,
		Session:  SessionDelta{Record: record, Snapshots: breakdown.Snapshots},
		Level:    after.Level,
		Streak:   streak,
	})

	next := prev.Clone()
	now := in.Now
	next.TotalExp += breakdown.TotalExp
	next.Streak = streak
	if prev.LastWorkoutAt == nil || now.After(*prev.LastWorkoutAt) {
		next.LastWorkoutAt = &now
	}
	next.WorkoutsCount++
	next.PRsCount += breakdown.PRCount()
	for _, t := range unlocked {
		next.UnlockedTitles = append(next.UnlockedTitles, models.UnlockedTitle{ID: t.ID, UnlockedAt: now})
	}

	return Outcome{
		Breakdown:      breakdown,
		Record:         record,
		Progress:       next,
		LevelBefore:    before,
		LevelAfter:     after,
		UnlockedTitles: unlocked,
	}, nil
}
