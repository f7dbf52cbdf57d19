package progression

import (
	"errors"
	"testing"
	"time"

	"github.com/claude/ironrank/internal/models"
)

func benchSession() []models.SessionExercise {
	return []models.SessionExercise{{
		Exercise: benchPress,
		Sets:     []models.WorkoutSet{{Weight: 60, Reps: 10}, {Weight: 60, Reps: 10}},
	}}
}

// TestFinalizeStrength walks one session through streak, EXP, level and titles.
func TestFinalizeStrength(t *testing.T) {
	yesterday := now.AddDate(0, 0, -1)
	prev := models.Progress{TotalExp: 50, Streak: 4, LastWorkoutAt: &yesterday, WorkoutsCount: 4}
	catalog := []models.Title{
		title("first-steps", models.RequireWorkoutsCount, 1, ""),
		title("lvl-2", models.RequireLevel, 2, ""),
		title("streak-5", models.RequireStreak, 5, ""),
		title("streak-6", models.RequireStreak, 6, ""),
	}

	out, err := Finalize(FinalizeInput{
		Progress:  prev,
		Catalog:   catalog,
		Exercises: benchSession(),
		Now:       now,
		Location:  time.UTC,
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	// (10.2 + 6) × 1.1 = 17.82
	if out.Breakdown.TotalExp != 18 {
		t.Errorf("total = %d, want 18", out.Breakdown.TotalExp)
	}
	if out.Progress.Streak != 5 || out.Progress.TotalExp != 68 || out.Progress.WorkoutsCount != 5 {
		t.Errorf("progress = %+v", out.Progress)
	}
	if !out.LeveledUp() || out.LevelBefore.Level != 1 || out.LevelAfter.Level != 2 {
		t.Errorf("levels %d → %d, want 1 → 2", out.LevelBefore.Level, out.LevelAfter.Level)
	}
	if !equalIDs(ids(out.UnlockedTitles), []string{"first-steps", "lvl-2", "streak-5"}) {
		t.Errorf("unlocked = %v", ids(out.UnlockedTitles))
	}
	if len(out.Progress.UnlockedTitles) != 3 || !out.Progress.UnlockedTitles[0].UnlockedAt.Equal(now) {
		t.Errorf("progress titles = %+v", out.Progress.UnlockedTitles)
	}
	if !out.Record.Date.Equal(now) || out.Record.ExpEarned != 18 || out.Record.TopExerciseName != "Bench Press" {
		t.Errorf("record = %+v", out.Record)
	}
	if out.Progress.LastWorkoutAt == nil || !out.Progress.LastWorkoutAt.Equal(now) {
		t.Errorf("last workout = %v, want %v", out.Progress.LastWorkoutAt, now)
	}
}

// TestFinalizeDoesNotMutateInput verifies the input snapshot is untouched.
func TestFinalizeDoesNotMutateInput(t *testing.T) {
	yesterday := now.AddDate(0, 0, -1)
	titles := make([]models.UnlockedTitle, 1, 4)
	titles[0] = models.UnlockedTitle{ID: "old"}
	prev := models.Progress{TotalExp: 10, Streak: 2, LastWorkoutAt: &yesterday, UnlockedTitles: titles}

	_, err := Finalize(FinalizeInput{
		Progress:  prev,
		Catalog:   []models.Title{title("first-steps", models.RequireWorkoutsCount, 1, "")},
		Exercises: benchSession(),
		Now:       now,
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if prev.TotalExp != 10 || prev.Streak != 2 || !prev.LastWorkoutAt.Equal(yesterday) {
		t.Errorf("input progress mutated: %+v", prev)
	}
	if got := titles[:2][1].ID; got != "" {
		t.Errorf("unlocked titles backing array written: %q", got)
	}
}

// TestFinalizeCardio verifies a cardio session: EXP from duration, a cardio
// record and no PRs.
func TestFinalizeCardio(t *testing.T) {
	yesterday := now.AddDate(0, 0, -1)
	prev := models.Progress{Streak: 11, LastWorkoutAt: &yesterday, PRsCount: 3}

	out, err := Finalize(FinalizeInput{
		Progress: prev,
		Catalog:  []models.Title{title("first-run", models.RequireCardioSessions, 1, "")},
		Cardio:   &Cardio{Exercise: running, Seconds: 300},
		Now:      now,
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if out.Breakdown.TotalExp != 9 {
		t.Errorf("total = %d, want 9", out.Breakdown.TotalExp)
	}
	if !out.Record.IsCardio() || out.Record.TotalTimeUnderTension != 300 {
		t.Errorf("record = %+v, want cardio of 300 s", out.Record)
	}
	if out.Progress.PRsCount != 3 || out.Progress.Streak != 12 {
		t.Errorf("progress = %+v", out.Progress)
	}
	if len(out.UnlockedTitles) != 1 {
		t.Errorf("unlocked = %v, want [first-run]", ids(out.UnlockedTitles))
	}
}

// TestFinalizeEmpty verifies a session with nothing to score is rejected.
func TestFinalizeEmpty(t *testing.T) {
	_, err := Finalize(FinalizeInput{Now: now})
	if !errors.Is(err, ErrEmptySession) {
		t.Errorf("err = %v, want ErrEmptySession", err)
	}
}

// TestFinalizeBackfill verifies a session dated before the last workout keeps
// the streak and never moves the last workout backwards.
func TestFinalizeBackfill(t *testing.T) {
	last := now
	prev := models.Progress{Streak: 6, LastWorkoutAt: &last, WorkoutsCount: 10}

	out, err := Finalize(FinalizeInput{
		Progress:  prev,
		Exercises: benchSession(),
		Now:       now.AddDate(0, 0, -3),
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if out.Progress.Streak != 6 {
		t.Errorf("streak = %d, want 6", out.Progress.Streak)
	}
	if !out.Progress.LastWorkoutAt.Equal(now) {
		t.Errorf("last workout moved to %v", out.Progress.LastWorkoutAt)
	}
	if out.Progress.WorkoutsCount != 11 {
		t.Errorf("workouts = %d, want 11", out.Progress.WorkoutsCount)
	}
}

// TestFinalizeCountsPRs verifies session PRs are added and rank ups listed.
func TestFinalizeCountsPRs(t *testing.T) {
	history := []models.WorkoutRecord{record("Bench Press", 100, 3)}
	out, err := Finalize(FinalizeInput{
		Progress: models.Progress{PRsCount: 2, WorkoutsCount: 1},
		History:  history,
		Exercises: []models.SessionExercise{{
			Exercise: benchPress,
			Sets:     []models.WorkoutSet{{Weight: 105, Reps: 5}},
		}},
		Now: now,
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if out.Progress.PRsCount != 3 {
		t.Errorf("prs = %d, want 3", out.Progress.PRsCount)
	}
	if len(out.RankUps()) != 1 {
		t.Errorf("rank ups = %d, want 1", len(out.RankUps()))
	}
}
