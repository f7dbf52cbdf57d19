package progression

import (
	"fmt"
	"time"

	"github.com/claude/ironrank/internal/models"
)

// NudgeKind identifies why a nudge fired.
type NudgeKind string

const (
	NudgeLevelImminent NudgeKind = "level_imminent"
	NudgeTrainingHour  NudgeKind = "training_hour"
	NudgeInactive48h   NudgeKind = "inactive_48h"
	NudgeInactive24h   NudgeKind = "inactive_24h"
	NudgeStreakAtRisk  NudgeKind = "streak_at_risk"
)

// NudgeCooldown is the minimum gap between two nudges.
const NudgeCooldown = 4 * time.Hour

// Nudge is a motivational trigger derived from progress. Delivery is up to
// the notification layer.
type Nudge struct {
	Kind  NudgeKind `json:"kind"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
}

// EvaluateNudge returns the first trigger that applies, or nil. levelPercent
// is the progress through the current level.
func EvaluateNudge(p models.Progress, levelPercent float64, now time.Time, loc *time.Location) *Nudge {
	if p.LastNudgeAt != nil && now.Sub(*p.LastNudgeAt) < NudgeCooldown {
		return nil
	}

	// Never trained counts as long inactive.
	hoursSince := 999.0
	if p.LastWorkoutAt != nil {
		hoursSince = now.Sub(*p.LastWorkoutAt).Hours()
	}

	if loc == nil {
		loc = time.UTC
	}

	switch {
	case levelPercent > 85 && levelPercent < 99:
		return &Nudge{Kind: NudgeLevelImminent, Title: "Level imminent", Body: "You are one session away from leveling up."}
	case p.TrainingHour != nil && now.In(loc).Hour() == *p.TrainingHour-1:
		return &Nudge{Kind: NudgeTrainingHour, Title: "Get ready", Body: "Your usual training hour is coming up."}
	case hoursSince > 48:
		return &Nudge{Kind: NudgeInactive48h, Title: "Two days off", Body: "Two days without a session. Time to get back under the bar."}
	case hoursSince > 36 && p.Streak > 0:
		return &Nudge{Kind: NudgeStreakAtRisk, Title: "Streak at risk", Body: fmt.Sprintf("Your %d day streak is about to end.", p.Streak)}
	case hoursSince > 24:
		return &Nudge{Kind: NudgeInactive24h, Title: "Keep the fire", Body: "A short session today keeps the momentum going."}
	}
	return nil
}
