package progression

import (
	"math"
	"testing"
	"time"

	"github.com/claude/ironrank/internal/models"
)

var (
	benchPress = models.Exercise{ID: "bench-press", Name: "Bench Press", MuscleGroup: models.MuscleChest,
		Archetype: models.ArchetypeStrength, Metric: models.MetricReps}
	squat = models.Exercise{ID: "squat", Name: "Squat", MuscleGroup: models.MuscleLegs,
		Archetype: models.ArchetypeStrength, Metric: models.MetricReps}
	plank = models.Exercise{ID: "plank", Name: "Plank", MuscleGroup: models.MuscleCore,
		Archetype: models.ArchetypeEndurance, Metric: models.MetricTime}
	farmerCarry = models.Exercise{ID: "farmer-carry", Name: "Farmer Carry", MuscleGroup: models.MuscleGrip,
		Archetype: models.ArchetypeEndurance, Metric: models.MetricTimeWeight}
	running = models.Exercise{ID: "running", Name: "Running", MuscleGroup: models.MuscleCardio,
		Archetype: models.ArchetypeEndurance, Metric: models.MetricTime}
)

var now = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

func record(name string, weight float64, daysAgo int) models.WorkoutRecord {
	return models.WorkoutRecord{
		Date:            now.AddDate(0, 0, -daysAgo),
		TopExerciseName: name,
		TopWeight:       weight,
		TotalVolume:     weight * 5,
		ExerciseCount:   1,
	}
}

// TestStreakMultiplier verifies the inclusive tier boundaries.
func TestStreakMultiplier(t *testing.T) {
	tests := []struct {
		streak int
		want   float64
	}{
		{0, 1.0}, {4, 1.0}, {5, 1.1}, {10, 1.1}, {11, 1.2}, {100, 1.2},
	}
	for _, tt := range tests {
		if got := StreakMultiplier(tt.streak); got != tt.want {
			t.Errorf("StreakMultiplier(%d) = %v, want %v", tt.streak, got, tt.want)
		}
	}
}

// TestBestAttempt verifies the best-set selection for each metric type.
func TestBestAttempt(t *testing.T) {
	reps := bestAttempt(models.MetricReps, []models.WorkoutSet{
		{Weight: 80, Reps: 8}, {Weight: 90, Reps: 3}, {Weight: 90, Reps: 5}, {Weight: 85, Reps: 10},
	})
	if reps.weight != 90 || reps.reps != 5 {
		t.Errorf("reps best = %+v, want 90 kg × 5 (tie broken by reps)", reps)
	}

	timed := bestAttempt(models.MetricTime, []models.WorkoutSet{{Seconds: 40}, {Seconds: 75}, {Seconds: 60}})
	if timed.seconds != 75 {
		t.Errorf("time best = %+v, want 75 s", timed)
	}

	loaded := bestAttempt(models.MetricTimeWeight, []models.WorkoutSet{
		{Weight: 40, Seconds: 30}, {Weight: 30, Seconds: 50}, {Weight: 50, Seconds: 20},
	})
	if loaded.weight != 30 || loaded.seconds != 50 {
		t.Errorf("time_weight best = %+v, want 30 kg × 50 s (largest product)", loaded)
	}
}

// TestComposeSessionBaseExp verifies base EXP = reps×0.15 + sets×1.5 + Σweight×0.035
// plus the routine bonus, with no history.
func TestComposeSessionBaseExp(t *testing.T) {
	out := ComposeSession(SessionInput{
		Exercises: []models.SessionExercise{{
			Exercise: benchPress,
			Sets:     []models.WorkoutSet{{Weight: 60, Reps: 10}, {Weight: 60, Reps: 10}},
		}},
		Now: now,
	})

	wantVolume := 20*0.15 + 2*1.5 + 120*0.035 // 10.2
	if math.Abs(out.VolumeExp-wantVolume) > 1e-9 {
		t.Errorf("volume exp = %v, want %v", out.VolumeExp, wantVolume)
	}
	if out.RoutineBonus != RoutineBonus {
		t.Errorf("routine bonus = %v, want %v", out.RoutineBonus, RoutineBonus)
	}
	if out.TotalExp != 16 {
		t.Errorf("total = %d, want round(16.2) = 16", out.TotalExp)
	}
	if len(out.Snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(out.Snapshots))
	}
	if s := out.Snapshots[0]; s.ExpEarned != 10 || s.NewWeight != 60 || s.NewReps != 10 {
		t.Errorf("snapshot = %+v", s)
	}
}

// TestComposeSessionEmpty verifies that no exercises means no routine bonus.
func TestComposeSessionEmpty(t *testing.T) {
	out := ComposeSession(SessionInput{Now: now})
	if out.TotalExp != 0 || out.RoutineBonus != 0 {
		t.Errorf("empty session = %+v, want zero", out)
	}
}

// TestFirstLiftNeverPR verifies a user's very first weight on an exercise
// triggers neither PR nor load bonus, because there is no prior max.
func TestFirstLiftNeverPR(t *testing.T) {
	out := ComposeSession(SessionInput{
		Exercises: []models.SessionExercise{{Exercise: benchPress, Sets: []models.WorkoutSet{{Weight: 140, Reps: 1}}}},
		Now:       now,
	})
	if out.PRBonus != 0 || out.LoadBonus != 0 {
		t.Errorf("pr = %v, load = %v, want 0 for a first lift", out.PRBonus, out.LoadBonus)
	}
	if out.Snapshots[0].IsPR {
		t.Error("first lift flagged as PR")
	}
}

// TestPRAndLoadBonus verifies the PR bonus against the all-time max and the
// load bonus against the max older than 7 days.
func TestPRAndLoadBonus(t *testing.T) {
	history := []models.WorkoutRecord{
		record("Bench Press", 95, 2),  // recent, all-time max
		record("Bench Press", 90, 10), // older than a week
	}
	out := ComposeSession(SessionInput{
		Exercises: []models.SessionExercise{{Exercise: benchPress, Sets: []models.WorkoutSet{{Weight: 100, Reps: 3}}}},
		History:   history,
		Now:       now,
	})

	if out.PRBonus != PRBonus {
		t.Errorf("pr bonus = %v, want %v", out.PRBonus, PRBonus)
	}
	if out.LoadBonus != 15 {
		t.Errorf("load bonus = %v, want (100-90)×1.5 = 15", out.LoadBonus)
	}
	s := out.Snapshots[0]
	if !s.IsPR || s.OldWeight != 95 || s.OldReps != 1 {
		t.Errorf("snapshot = %+v, want PR over 95", s)
	}
}

// TestLoadWindowStrictlyBefore verifies a record dated exactly 7 days ago is
// not part of the older window.
func TestLoadWindowStrictlyBefore(t *testing.T) {
	history := []models.WorkoutRecord{{
		Date: now.Add(-loadWindow), TopExerciseName: "Bench Press", TopWeight: 90,
	}}
	out := ComposeSession(SessionInput{
		Exercises: []models.SessionExercise{{Exercise: benchPress, Sets: []models.WorkoutSet{{Weight: 100, Reps: 1}}}},
		History:   history,
		Now:       now,
	})
	if out.LoadBonus != 0 {
		t.Errorf("load bonus = %v, want 0 for a record exactly 7 days old", out.LoadBonus)
	}
	if out.PRBonus != PRBonus {
		t.Errorf("pr bonus = %v, want %v", out.PRBonus, PRBonus)
	}
}

// TestGoalProgressionCappedPerSession verifies two goal exercises beating
// their max add the +10 bonus once, while both are flagged.
func TestGoalProgressionCappedPerSession(t *testing.T) {
	goal := &models.Goal{Exercises: []string{"Bench Press", "Squat"}, IsActive: true}
	history := []models.WorkoutRecord{record("Bench Press", 80, 1), record("Squat", 100, 1)}

	out := ComposeSession(SessionInput{
		Exercises: []models.SessionExercise{
			{Exercise: benchPress, Sets: []models.WorkoutSet{{Weight: 85, Reps: 5}}},
			{Exercise: squat, Sets: []models.WorkoutSet{{Weight: 110, Reps: 5}}},
		},
		History: history,
		Goal:    goal,
		Now:     now,
	})

	if out.GoalProgressionBonus != GoalProgressionBonus {
		t.Errorf("goal bonus = %v, want %v once", out.GoalProgressionBonus, GoalProgressionBonus)
	}
	for _, s := range out.Snapshots {
		if !s.IsGoalProgression {
			t.Errorf("%s not flagged as goal progression", s.Name)
		}
	}
}

// TestGoalProgressionWithoutHistory verifies the goal bonus only needs the
// session best to exceed the prior max, which is 0 on a first lift.
func TestGoalProgressionWithoutHistory(t *testing.T) {
	goal := &models.Goal{Exercises: []string{"Squat"}}
	out := ComposeSession(SessionInput{
		Exercises: []models.SessionExercise{{Exercise: squat, Sets: []models.WorkoutSet{{Weight: 60, Reps: 5}}}},
		Goal:      goal,
		Now:       now,
	})
	if out.GoalProgressionBonus != GoalProgressionBonus {
		t.Errorf("goal bonus = %v, want %v", out.GoalProgressionBonus, GoalProgressionBonus)
	}
	if out.PRBonus != 0 {
		t.Errorf("pr bonus = %v, want 0", out.PRBonus)
	}
}

// TestRankUpDetection verifies the rank-up flag compares the prior max as a
// single rep against the session's best set.
func TestRankUpDetection(t *testing.T) {
	history := []models.WorkoutRecord{record("Bench Press", 100, 3)} // rank 7
	out := ComposeSession(SessionInput{
		Exercises: []models.SessionExercise{{Exercise: benchPress, Sets: []models.WorkoutSet{{Weight: 100, Reps: 5}}}},
		History:   history,
		Now:       now,
	})
	if !out.Snapshots[0].DidRankUp {
		t.Error("100 kg × 5 over a 100 kg single should rank up (7 → 8)")
	}

	out = ComposeSession(SessionInput{
		Exercises: []models.SessionExercise{{Exercise: benchPress, Sets: []models.WorkoutSet{{Weight: 100, Reps: 1}}}},
		History:   history,
		Now:       now,
	})
	if out.Snapshots[0].DidRankUp {
		t.Error("matching the prior max should not rank up")
	}
}

// TestTimeBasedExercises verifies time metrics track seconds and never set
// a weight PR.
func TestTimeBasedExercises(t *testing.T) {
	out := ComposeSession(SessionInput{
		Exercises: []models.SessionExercise{
			{Exercise: plank, Sets: []models.WorkoutSet{{Seconds: 60}, {Seconds: 90}}},
			{Exercise: farmerCarry, Sets: []models.WorkoutSet{{Weight: 40, Seconds: 45}}},
		},
		Now: now,
	})
	if out.Snapshots[0].NewSeconds != 90 {
		t.Errorf("plank best = %d s, want 90", out.Snapshots[0].NewSeconds)
	}
	if out.Snapshots[1].NewWeight != 40 || out.Snapshots[1].NewSeconds != 45 {
		t.Errorf("carry best = %+v", out.Snapshots[1])
	}
	if out.PRCount() != 0 {
		t.Errorf("prs = %d, want 0", out.PRCount())
	}
}

// TestTotalRoundedOnce verifies the scenario from the scoring rules:
// (40 + 6 + 0 + 5 + 0) × 1.1 = 56.1 → 56.
func TestTotalRoundedOnce(t *testing.T) {
	b := models.ExpBreakdown{VolumeExp: 40, RoutineBonus: 6, PRBonus: 5, StreakMultiplier: StreakMultiplier(7)}
	sum := b.VolumeExp + b.RoutineBonus + b.LoadBonus + b.PRBonus + b.GoalProgressionBonus
	if got := roundExp(sum * b.StreakMultiplier); got != 56 {
		t.Errorf("total = %d, want 56", got)
	}
}

// TestComposeSessionStreakMultiplier verifies the multiplier scales the
// unrounded sum, not per-exercise rounded values.
func TestComposeSessionStreakMultiplier(t *testing.T) {
	in := SessionInput{
		Exercises: []models.SessionExercise{{Exercise: benchPress, Sets: []models.WorkoutSet{{Weight: 60, Reps: 10}, {Weight: 60, Reps: 10}}}},
		Now:       now,
		Streak:    12,
	}
	out := ComposeSession(in)
	// (10.2 + 6) × 1.2 = 19.44
	if out.TotalExp != 19 {
		t.Errorf("total = %d, want 19", out.TotalExp)
	}
	if out.StreakMultiplier != 1.2 {
		t.Errorf("multiplier = %v, want 1.2", out.StreakMultiplier)
	}
}

// TestComposeCardio verifies the scenario: 300 s at streak 12 earns
// round(300 × 0.025 × 1.2) = 9, with a single non-PR snapshot.
func TestComposeCardio(t *testing.T) {
	out := ComposeCardio(running, 300, 12)
	if out.TotalExp != 9 {
		t.Errorf("total = %d, want 9", out.TotalExp)
	}
	if len(out.Snapshots) != 1 || out.Snapshots[0].IsPR {
		t.Fatalf("snapshots = %+v, want one non-PR snapshot", out.Snapshots)
	}
	if out.Snapshots[0].NewSeconds != 300 {
		t.Errorf("seconds = %d, want 300", out.Snapshots[0].NewSeconds)
	}
	if out.RoutineBonus != 0 || out.PRBonus != 0 || out.LoadBonus != 0 || out.GoalProgressionBonus != 0 {
		t.Errorf("cardio should carry no bonuses: %+v", out)
	}
}

// TestSessionRecord verifies volume, top exercise and time under tension.
func TestSessionRecord(t *testing.T) {
	rec := SessionRecord([]models.SessionExercise{
		{Exercise: benchPress, Sets: []models.WorkoutSet{{Weight: 80, Reps: 5}, {Weight: 90, Reps: 3}}},
		{Exercise: squat, Sets: []models.WorkoutSet{{Weight: 90, Reps: 5}}},
		{Exercise: plank, Sets: []models.WorkoutSet{{Seconds: 60}}},
	})
	if rec.TotalVolume != 400+270+450 {
		t.Errorf("volume = %v, want 1120", rec.TotalVolume)
	}
	if rec.TopExerciseName != "Bench Press" || rec.TopWeight != 90 {
		t.Errorf("top = %s %v, want first to reach 90 (Bench Press)", rec.TopExerciseName, rec.TopWeight)
	}
	if rec.ExerciseCount != 3 || rec.TotalTimeUnderTension != 60 {
		t.Errorf("record = %+v", rec)
	}
}

// TestComposeNeverNegative verifies totals are non-negative for any valid input.
func TestComposeNeverNegative(t *testing.T) {
	for streak := 0; streak < 15; streak++ {
		out := ComposeSession(SessionInput{
			Exercises: []models.SessionExercise{{Exercise: squat, Sets: []models.WorkoutSet{{}}}},
			Streak:    streak,
			Now:       now,
		})
		if out.TotalExp < 0 {
			t.Fatalf("negative total %d at streak %d", out.TotalExp, streak)
		}
	}
}
