package progression

import "github.com/claude/ironrank/internal/models"

// BigThree are the catalog names summed by sum_big_three requirements.
var BigThree = [3]string{"Bench Press", "Squat", "Deadlift"}

// SessionDelta is the in-flight session's contribution to lifetime
// aggregates. History passed alongside it never includes this session.
type SessionDelta struct {
	Record    models.WorkoutRecord
	Snapshots []models.ExerciseSnapshot
}

// PRs counts personal records set in the session.
func (d SessionDelta) PRs() int {
	n := 0
	for _, s := range d.Snapshots {
		if s.IsPR {
			n++
		}
	}
	return n
}

// TitleInput is the read-only snapshot titles are evaluated against.
type TitleInput struct {
	Catalog  []models.Title
	Progress models.Progress // pre-session counters and unlocked titles
	History  []models.WorkoutRecord
	Session  SessionDelta
	Level    int // level after the session's EXP is applied
	Streak   int // streak after the session
}

// Aggregates are the lifetime figures requirements compare against.
type Aggregates struct {
	Level          int
	Streak         int
	TotalVolume    float64
	SessionVolume  float64
	Workouts       int
	PRs            int
	CardioSeconds  int
	CardioSessions int
	Friends        int
	maxWeights     map[string]float64
}

// MaxWeight is the heaviest weight known for an exercise: the session's
// best or the historical top weight, whichever is higher.
func (a Aggregates) MaxWeight(name string) float64 {
	return a.maxWeights[name]
}

// BigThreeSum adds the max weights of the three canonical lifts.
func (a Aggregates) BigThreeSum() float64 {
	var sum float64
	for _, name := range BigThree {
		sum += a.MaxWeight(name)
	}
	return sum
}

// BuildAggregates folds history and the session delta into Aggregates.
func BuildAggregates(in TitleInput) Aggregates {
	agg := Aggregates{
		Level:         in.Level,
		Streak:        in.Streak,
		SessionVolume: in.Session.Record.TotalVolume,
		Workouts:      in.Progress.WorkoutsCount + 1,
		PRs:           in.Progress.PRsCount + in.Session.PRs(),
		Friends:       in.Progress.FriendsCount,
		maxWeights:    make(map[string]float64),
	}

	records := make([]models.WorkoutRecord, 0, len(in.History)+1)
	records = append(records, in.History...)
	records = append(records, in.Session.Record)
	for _, r := range records {
		agg.TotalVolume += r.TotalVolume
		agg.CardioSeconds += r.TotalTimeUnderTension
		if r.IsCardio() {
			agg.CardioSessions++
		}
		if r.TopExerciseName != "" {
			agg.maxWeights[r.TopExerciseName] = max(agg.maxWeights[r.TopExerciseName], r.TopWeight)
		}
	}
	for _, s := range in.Session.Snapshots {
		agg.maxWeights[s.Name] = max(agg.maxWeights[s.Name], s.NewWeight)
	}
	return agg
}

// Meets reports whether the aggregates satisfy a requirement.
func (a Aggregates) Meets(req models.Requirement) bool {
	var have float64
	switch req.Type {
	case models.RequireLevel:
		have = float64(a.Level)
	case models.RequireStreak:
		have = float64(a.Streak)
	case models.RequireVolumeTotal:
		have = a.TotalVolume
	case models.RequireVolumeDaily:
		have = a.SessionVolume
	case models.RequireWorkoutsCount:
		have = float64(a.Workouts)
	case models.RequirePRsCount:
		have = float64(a.PRs)
	case models.RequireCardioTime:
		have = float64(a.CardioSeconds)
	case models.RequireCardioSessions:
		have = float64(a.CardioSessions)
	case models.RequireExerciseWeight:
		if req.ExerciseName == "" {
			return false
		}
		have = a.MaxWeight(req.ExerciseName)
	case models.RequireSumBigThree:
		have = a.BigThreeSum()
	case models.RequireFriendsCount:
		have = float64(a.Friends)
	default:
		return false
	}
	return have >= req.Value
}

// EvaluateTitles returns the locked titles whose requirement is now met, in
// catalog order. Titles already unlocked are never returned again.
func EvaluateTitles(in TitleInput) []models.Title {
	agg := BuildAggregates(in)
	var unlocked []models.Title
	for _, t := range in.Catalog {
		if in.Progress.HasTitle(t.ID) {
			continue
		}
		if agg.Meets(t.Requirement) {
			unlocked = append(unlocked, t)
		}
	}
	return unlocked
}
