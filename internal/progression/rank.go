// Package progression holds the pure scoring rules: exercise ranks, session
// EXP, the level curve, streaks and title unlocks. Nothing here performs I/O.
package progression

import (
	"math"

	"github.com/claude/ironrank/internal/models"
)

const (
	MinRank = 1
	MaxRank = 20
)

// scoring is how one (archetype, metric) pair turns a set into a rank score.
type scoring struct {
	divisor float64
	score   func(set models.WorkoutSet) float64
}

var (
	scoreOneRepMax = func(s models.WorkoutSet) float64 { return EstimatedOneRepMax(s.Weight, s.Reps) }
	scoreSeconds   = func(s models.WorkoutSet) float64 { return float64(s.Seconds) }
	scoreLoadTime  = func(s models.WorkoutSet) float64 { return s.Weight * (float64(s.Seconds) / 30) }
)

// repsDivisors maps archetype to divisor for reps-based exercises. Endurance
// has no reps-based divisor of its own and shares the time divisor.
var repsDivisors = map[models.Archetype]float64{
	models.ArchetypeStrength:   15,
	models.ArchetypeIsolation:  6,
	models.ArchetypeBodyweight: 10,
	models.ArchetypeCombat:     5,
	models.ArchetypeEndurance:  15,
}

func scoringFor(a models.Archetype, m models.Metric) scoring {
	switch m {
	case models.MetricTime:
		return scoring{divisor: 15, score: scoreSeconds}
	case models.MetricTimeWeight:
		return scoring{divisor: 10, score: scoreLoadTime}
	}
	d, ok := repsDivisors[a]
	if !ok {
		d = repsDivisors[models.ArchetypeStrength]
	}
	return scoring{divisor: d, score: scoreOneRepMax}
}

// EstimatedOneRepMax uses the Epley formula. Zero reps scores zero.
func EstimatedOneRepMax(weight float64, reps int) float64 {
	switch reps {
	case 0:
		return 0
	case 1:
		return weight
	}
	return weight * (1 + float64(reps)/30)
}

// Score returns the raw rank score of a set.
func Score(a models.Archetype, m models.Metric, set models.WorkoutSet) float64 {
	return scoringFor(a, m).score(set)
}

// Rank maps a set to a rank in [MinRank, MaxRank].
func Rank(a models.Archetype, m models.Metric, set models.WorkoutSet) int {
	s := scoringFor(a, m)
	return rankForScore(s.score(set), s.divisor)
}

func rankForScore(score, divisor float64) int {
	r := int(math.Floor(score/divisor)) + 1
	return min(MaxRank, max(MinRank, r))
}

// Threshold is the score needed to reach rank+1, i.e. rank × divisor.
func Threshold(a models.Archetype, m models.Metric, rank int) float64 {
	return float64(rank) * scoringFor(a, m).divisor
}

// RankProgress is the percentage of the way from the current rank to the
// next. Rank 20 always reports 100.
func RankProgress(a models.Archetype, m models.Metric, set models.WorkoutSet) float64 {
	s := scoringFor(a, m)
	score := s.score(set)
	rank := rankForScore(score, s.divisor)
	if rank >= MaxRank {
		return 100
	}
	lo := float64(rank-1) * s.divisor
	hi := float64(rank) * s.divisor
	p := (score - lo) / (hi - lo) * 100
	return min(100, max(0, p))
}

// Tier groups ranks for display.
type Tier string

const (
	TierIron    Tier = "iron"
	TierSilver  Tier = "silver"
	TierGold    Tier = "gold"
	TierCrimson Tier = "crimson"
)

var rankNames = [MaxRank]string{
	"Iron Recruit", "Aspirant", "Strength Apprentice", "Initiate", "Faithful Practitioner",
	"Bronze Warrior", "Combatant", "Gym Veteran", "Steel Athlete", "Silver Specialist",
	"Technique Master", "Limit Breaker", "Crimson Elite", "Iron Commander", "Gold Grandmaster",
	"Living Legend", "Demigod of Strength", "Olympian Titan", "Avatar of Power", "Divine",
}

// RankInfo is the display identity of a rank.
type RankInfo struct {
	Rank int    `json:"rank"`
	Name string `json:"name"`
	Tier Tier   `json:"tier"`
}

// DescribeRank returns the name and tier of a rank, clamping out-of-range input.
func DescribeRank(rank int) RankInfo {
	rank = min(MaxRank, max(MinRank, rank))
	info := RankInfo{Rank: rank, Name: rankNames[rank-1]}
	switch {
	case rank <= 5:
		info.Tier = TierIron
	case rank <= 10:
		info.Tier = TierSilver
	case rank <= 15:
		info.Tier = TierGold
	default:
		info.Tier = TierCrimson
	}
	return info
}
