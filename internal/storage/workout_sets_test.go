package storage

import (
	"testing"

	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/progression"
)

// TestBestAttempts verifies the best attempt per exercise is the one the rank
// engine scores highest, including the zero- and single-rep cases of the
// one-rep-max estimate.
func TestBestAttempts(t *testing.T) {
	strength := func(id string, weight float64, reps int) models.ExerciseSnapshot {
		return models.ExerciseSnapshot{
			ExerciseID: id, Archetype: models.ArchetypeStrength, Metric: models.MetricReps,
			NewWeight: weight, NewReps: reps,
		}
	}
	tests := []struct {
		name     string
		attempts []models.ExerciseSnapshot
		want     models.WorkoutSet
		wantRank int
	}{
		{
			name:     "zero reps never wins",
			attempts: []models.ExerciseSnapshot{strength("squat", 200, 0), strength("squat", 100, 5)},
			want:     models.WorkoutSet{Weight: 100, Reps: 5},
			wantRank: 8,
		},
		{
			name:     "single rep scores its weight",
			attempts: []models.ExerciseSnapshot{strength("squat", 104, 1), strength("squat", 99, 2)},
			want:     models.WorkoutSet{Weight: 99, Reps: 2},
			wantRank: 8,
		},
		{
			name:     "tie keeps earliest",
			attempts: []models.ExerciseSnapshot{strength("squat", 100, 1), strength("squat", 100, 1)},
			want:     models.WorkoutSet{Weight: 100, Reps: 1},
			wantRank: 7,
		},
		{
			name: "timed hold",
			attempts: []models.ExerciseSnapshot{
				{ExerciseID: "squat", Archetype: models.ArchetypeBodyweight, Metric: models.MetricTime, NewSeconds: 90},
				{ExerciseID: "squat", Archetype: models.ArchetypeBodyweight, Metric: models.MetricTime, NewSeconds: 60},
			},
			want:     models.WorkoutSet{Seconds: 90},
			wantRank: 7,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bests := bestAttempts(tt.attempts)
			got, ok := bests["squat"]
			if !ok || got != tt.want {
				t.Fatalf("best = %+v, want %+v", got, tt.want)
			}
			a := tt.attempts[0]
			if rank := progression.Rank(a.Archetype, a.Metric, got); rank != tt.wantRank {
				t.Errorf("rank = %d, want %d", rank, tt.wantRank)
			}
		})
	}
}

// TestBestAttemptsPerExercise verifies attempts are grouped by exercise id.
func TestBestAttemptsPerExercise(t *testing.T) {
	bests := bestAttempts([]models.ExerciseSnapshot{
		{ExerciseID: "bench-press", Archetype: models.ArchetypeStrength, Metric: models.MetricReps, NewWeight: 80, NewReps: 5},
		{ExerciseID: "deadlift", Archetype: models.ArchetypeStrength, Metric: models.MetricReps, NewWeight: 140, NewReps: 3},
	})
	if len(bests) != 2 || bests["bench-press"].Weight != 80 || bests["deadlift"].Weight != 140 {
		t.Errorf("bests = %+v", bests)
	}
	if got := bestAttempts(nil); len(got) != 0 {
		t.Errorf("no attempts = %+v, want empty", got)
	}
}
