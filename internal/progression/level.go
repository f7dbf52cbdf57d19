package progression

import "math"

// ExpNeededForLevel is the EXP required to advance from level to level+1.
func ExpNeededForLevel(level int) int {
	return int(math.Round((50 + math.Pow(float64(level), 1.5)*15) * 0.85))
}

// LevelStats is a lifetime EXP total projected onto the level curve.
type LevelStats struct {
	Level            int     `json:"level"`
	CurrentLevelExp  int     `json:"current_level_exp"`
	ExpNeededForNext int     `json:"exp_needed_for_next"`
	ProgressPercent  float64 `json:"progress_percent"`
}

// LevelFor walks the curve from level 1. The loop terminates because the
// per-level requirement is strictly increasing.
func LevelFor(totalExp int) LevelStats {
	remaining := max(0, totalExp)
	level := 1
	needed := ExpNeededForLevel(level)
	for remaining >= needed {
		remaining -= needed
		level++
		needed = ExpNeededForLevel(level)
	}
	return LevelStats{
		Level:            level,
		CurrentLevelExp:  remaining,
		ExpNeededForNext: needed,
		ProgressPercent:  float64(remaining) / float64(needed) * 100,
	}
}

// TotalExpForLevel is the lifetime EXP at which level is first reached.
func TotalExpForLevel(level int) int {
	total := 0
	for l := 1; l < level; l++ {
		total += ExpNeededForLevel(l)
	}
	return total
}
