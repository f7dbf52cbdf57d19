package progression

import (
	"math"
	"time"

	"github.com/claude/ironrank/internal/models"
)

const (
	RoutineBonus         = 6.0
	PRBonus              = 5.0
	GoalProgressionBonus = 10.0

	repExp        = 0.15
	setExp        = 1.5
	weightExp     = 0.035
	loadBonusRate = 1.5
	cardioExpRate = 0.025

	loadWindow = 7 * 24 * time.Hour
)

// StreakMultiplier scales session EXP by the current day streak.
func StreakMultiplier(streak int) float64 {
	switch {
	case streak > 10:
		return 1.2
	case streak >= 5:
		return 1.1
	}
	return 1.0
}

// SessionInput is everything the composer needs for a strength session.
// History is the user's workout history before this session.
type SessionInput struct {
	Exercises []models.SessionExercise
	History   []models.WorkoutRecord
	Goal      *models.Goal
	Streak    int
	Now       time.Time
}

// best is the single best attempt of an exercise under its metric.
type best struct {
	weight  float64
	reps    int
	seconds int
}

func bestAttempt(m models.Metric, sets []models.WorkoutSet) best {
	var b best
	for _, s := range sets {
		switch m {
		case models.MetricReps:
			if s.Weight > b.weight || (s.Weight == b.weight && s.Reps > b.reps) {
				b.weight, b.reps = s.Weight, s.Reps
			}
		case models.MetricTime:
			if s.Seconds > b.seconds {
				b.seconds = s.Seconds
			}
		case models.MetricTimeWeight:
			if s.Weight*float64(s.Seconds) > b.weight*float64(b.seconds) {
				b.weight, b.seconds = s.Weight, s.Seconds
			}
		}
	}
	return b
}

// baseExp rewards volume: reps, set count and lifted weight.
func baseExp(sets []models.WorkoutSet) float64 {
	var reps int
	var weight float64
	for _, s := range sets {
		reps += s.Reps
		weight += s.Weight
	}
	return float64(reps)*repExp + float64(len(sets))*setExp + weight*weightExp
}

// HistoricalMax returns the heaviest top weight recorded for name, considering
// only records dated strictly before cutoff when cutoff is non-zero.
func HistoricalMax(history []models.WorkoutRecord, name string, cutoff time.Time) float64 {
	var m float64
	for _, r := range history {
		if r.TopExerciseName != name {
			continue
		}
		if !cutoff.IsZero() && !r.Date.Before(cutoff) {
			continue
		}
		m = max(m, r.TopWeight)
	}
	return m
}

// composeAcc carries the running sums across exercises.
type composeAcc struct {
	volume      float64
	load        float64
	pr          float64
	goal        float64
	goalAwarded bool
	snapshots   []models.ExerciseSnapshot
}

func (acc composeAcc) add(ex models.SessionExercise, in SessionInput) composeAcc {
	e := ex.Exercise
	b := bestAttempt(e.Metric, ex.Sets)
	base := baseExp(ex.Sets)

	priorMax := HistoricalMax(in.History, e.Name, time.Time{})
	olderMax := HistoricalMax(in.History, e.Name, in.Now.Add(-loadWindow))

	var load float64
	if olderMax > 0 && b.weight > olderMax {
		load = (b.weight - olderMax) * loadBonusRate
	}

	isPR := priorMax > 0 && b.weight > priorMax
	var pr float64
	if isPR {
		pr = PRBonus
	}

	isGoal := in.Goal.Includes(e.Name) && b.weight > priorMax
	if isGoal && !acc.goalAwarded {
		acc.goal += GoalProgressionBonus
		acc.goalAwarded = true
	}

	oldRank := Rank(e.Archetype, e.Metric, models.WorkoutSet{Weight: priorMax, Reps: 1})
	newRank := Rank(e.Archetype, e.Metric, models.WorkoutSet{Weight: b.weight, Reps: b.reps, Seconds: b.seconds})

	acc.volume += base
	acc.load += load
	acc.pr += pr
	acc.snapshots = append(acc.snapshots, models.ExerciseSnapshot{
		ExerciseID:        e.ID,
		Name:              e.Name,
		MuscleGroup:       e.MuscleGroup,
		Archetype:         e.Archetype,
		Metric:            e.Metric,
		ExpEarned:         roundExp(base + load + pr),
		OldWeight:         priorMax,
		NewWeight:         b.weight,
		OldReps:           1,
		NewReps:           b.reps,
		NewSeconds:        b.seconds,
		DidRankUp:         newRank > oldRank,
		IsPR:              isPR,
		IsGoalProgression: isGoal,
	})
	return acc
}

// ComposeSession computes the EXP breakdown of a strength session.
func ComposeSession(in SessionInput) models.ExpBreakdown {
	var acc composeAcc
	for _, ex := range in.Exercises {
		acc = acc.add(ex, in)
	}

	mult := StreakMultiplier(in.Streak)
	out := models.ExpBreakdown{
		VolumeExp:            acc.volume,
		LoadBonus:            acc.load,
		PRBonus:              acc.pr,
		GoalProgressionBonus: acc.goal,
		StreakMultiplier:     mult,
		Snapshots:            acc.snapshots,
	}
	if len(in.Exercises) > 0 {
		out.RoutineBonus = RoutineBonus
	}
	sum := out.VolumeExp + out.RoutineBonus + out.LoadBonus + out.PRBonus + out.GoalProgressionBonus
	out.TotalExp = roundExp(sum * mult)
	return out
}

// ComposeCardio computes the EXP of a cardio-only session: no PR, load or
// goal bonuses, one snapshot.
func ComposeCardio(ex models.Exercise, seconds, streak int) models.ExpBreakdown {
	mult := StreakMultiplier(streak)
	raw := float64(seconds) * cardioExpRate
	total := roundExp(raw * mult)
	return models.ExpBreakdown{
		VolumeExp:        raw,
		StreakMultiplier: mult,
		TotalExp:         total,
		Snapshots: []models.ExerciseSnapshot{{
			ExerciseID:  ex.ID,
			Name:        ex.Name,
			MuscleGroup: ex.MuscleGroup,
			Archetype:   ex.Archetype,
			Metric:      ex.Metric,
			ExpEarned:   total,
			NewSeconds:  seconds,
		}},
	}
}

// SessionRecord summarizes a strength session into the record that will be
// appended to history. ID and Date are assigned by the caller.
func SessionRecord(exercises []models.SessionExercise) models.WorkoutRecord {
	rec := models.WorkoutRecord{ExerciseCount: len(exercises)}
	for _, ex := range exercises {
		for _, s := range ex.Sets {
			rec.TotalVolume += s.Weight * float64(s.Reps)
			rec.TotalTimeUnderTension += s.Seconds
			if s.Weight > rec.TopWeight {
				rec.TopWeight = s.Weight
				rec.TopExerciseName = ex.Exercise.Name
			}
		}
	}
	return rec
}

// CardioRecord summarizes a cardio session.
func CardioRecord(ex models.Exercise, seconds int) models.WorkoutRecord {
	return models.WorkoutRecord{
		ExerciseCount:         1,
		TopExerciseName:       ex.Name,
		TotalTimeUnderTension: seconds,
	}
}

func roundExp(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(math.Round(v))
}
