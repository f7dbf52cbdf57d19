package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/ironrank/internal/catalog"
	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/progression"
)

// ProgressView is a user's progress projected onto the level curve.
type ProgressView struct {
	Progress    models.Progress        `json:"progress"`
	Level       progression.LevelStats `json:"level"`
	Multiplier  float64                `json:"streak_multiplier"`
	ActiveTitle *models.Title          `json:"active_title,omitempty"`
}

// Progress returns the user's current progress.
func (s *Service) Progress(ctx context.Context, userID int) (*ProgressView, error) {
	p, err := s.store.GetProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	v := &ProgressView{
		Progress:   p,
		Level:      progression.LevelFor(p.TotalExp),
		Multiplier: progression.StreakMultiplier(p.Streak),
	}
	if p.ActiveTitleID != "" {
		if t, err := s.catalog.Title(p.ActiveTitleID); err == nil {
			v.ActiveTitle = &t
		}
	}
	return v, nil
}

// History returns up to limit records, newest first.
func (s *Service) History(ctx context.Context, userID, limit int) ([]models.WorkoutRecord, error) {
	h, err := s.store.QueryHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return h, nil
}

// Workout returns a stored record with its breakdown.
func (s *Service) Workout(ctx context.Context, userID int, id uuid.UUID) (*models.WorkoutDetail, error) {
	d, err := s.store.GetWorkout(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("loading workout: %w", err)
	}
	return d, nil
}

// RankCard is an exercise's rank for a given best attempt.
type RankCard struct {
	Exercise      models.Exercise      `json:"exercise"`
	Best          models.WorkoutSet    `json:"best"`
	Score         float64              `json:"score"`
	Rank          progression.RankInfo `json:"rank"`
	NextThreshold float64              `json:"next_threshold"`
	Progress      float64              `json:"progress_percent"`
}

func rankCard(ex models.Exercise, best models.WorkoutSet) RankCard {
	rank := progression.Rank(ex.Archetype, ex.Metric, best)
	return RankCard{
		Exercise:      ex,
		Best:          best,
		Score:         progression.Score(ex.Archetype, ex.Metric, best),
		Rank:          progression.DescribeRank(rank),
		NextThreshold: progression.Threshold(ex.Archetype, ex.Metric, rank),
		Progress:      progression.RankProgress(ex.Archetype, ex.Metric, best),
	}
}

// ExerciseLibrary returns a rank card for every exercise matching f, ranked
// from the user's best recorded attempt. Exercises never trained are rank 1.
func (s *Service) ExerciseLibrary(ctx context.Context, userID int, f catalog.Filter) ([]RankCard, error) {
	bests, err := s.store.ExerciseBests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading exercise bests: %w", err)
	}
	exercises := s.catalog.Exercises(f)
	cards := make([]RankCard, 0, len(exercises))
	for _, ex := range exercises {
		cards = append(cards, rankCard(ex, bests[ex.ID]))
	}
	return cards, nil
}

// RankPreview ranks a hypothetical attempt without touching any state.
func (s *Service) RankPreview(exerciseID, name string, set models.WorkoutSet) (RankCard, error) {
	ex, err := s.resolve(exerciseID, name)
	if err != nil {
		return RankCard{}, err
	}
	if err := validateSet(ex, 0, set); err != nil {
		return RankCard{}, err
	}
	return rankCard(ex, set), nil
}

// TitleView is a catalog title with the user's unlock state.
type TitleView struct {
	models.Title
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
	Active     bool       `json:"active"`
}

// Titles returns the full title catalog with unlock state, in catalog order.
func (s *Service) Titles(ctx context.Context, userID int) ([]TitleView, error) {
	p, err := s.store.GetProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	unlocked := make(map[string]time.Time, len(p.UnlockedTitles))
	for _, t := range p.UnlockedTitles {
		unlocked[t.ID] = t.UnlockedAt
	}
	titles := s.catalog.Titles()
	out := make([]TitleView, 0, len(titles))
	for _, t := range titles {
		v := TitleView{Title: t, Active: t.ID == p.ActiveTitleID}
		if at, ok := unlocked[t.ID]; ok {
			v.Unlocked = true
			v.UnlockedAt = &at
		}
		out = append(out, v)
	}
	return out, nil
}

// EquipTitle sets the displayed title. An empty id unequips.
func (s *Service) EquipTitle(ctx context.Context, userID int, titleID string) error {
	if titleID != "" {
		if _, err := s.catalog.Title(titleID); err != nil {
			return invalid("unknown title %q", titleID)
		}
		p, err := s.store.GetProgress(ctx, userID)
		if err != nil {
			return fmt.Errorf("loading progress: %w", err)
		}
		if !p.HasTitle(titleID) {
			return fmt.Errorf("%s: %w", titleID, ErrTitleLocked)
		}
	}
	if err := s.store.SetActiveTitle(ctx, userID, titleID); err != nil {
		return fmt.Errorf("equipping title: %w", err)
	}
	return nil
}

// GoalRequest defines a new active goal.
type GoalRequest struct {
	Title     string     `json:"title"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Exercises []string   `json:"exercises"`
}

// SetActiveGoal replaces the active goal. Exercise names are resolved against
// the catalog and stored under their canonical name.
func (s *Service) SetActiveGoal(ctx context.Context, userID int, req GoalRequest) (*models.Goal, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("goal title is required")
	}
	if len(req.Exercises) == 0 {
		return nil, invalid("goal needs at least one exercise")
	}
	now := s.now()
	if req.Deadline != nil && req.Deadline.Before(now) {
		return nil, invalid("goal deadline is in the past")
	}
	seen := make(map[string]bool, len(req.Exercises))
	names := make([]string, 0, len(req.Exercises))
	for _, n := range req.Exercises {
		ex, err := s.resolve("", n)
		if err != nil {
			return nil, err
		}
		if !seen[ex.Name] {
			seen[ex.Name] = true
			names = append(names, ex.Name)
		}
	}

	g := models.Goal{
		ID:        uuid.NewString(),
		Title:     title,
		Deadline:  req.Deadline,
		Exercises: names,
		CreatedAt: now,
		IsActive:  true,
	}
	if err := s.store.SetActiveGoal(ctx, userID, g); err != nil {
		return nil, fmt.Errorf("saving goal: %w", err)
	}
	return &g, nil
}

// ActiveGoal returns the active goal or nil.
func (s *Service) ActiveGoal(ctx context.Context, userID int) (*models.Goal, error) {
	g, err := s.store.ActiveGoal(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading goal: %w", err)
	}
	return g, nil
}

// ClearActiveGoal removes the active goal.
func (s *Service) ClearActiveGoal(ctx context.Context, userID int) error {
	if err := s.store.ClearActiveGoal(ctx, userID); err != nil {
		return fmt.Errorf("clearing goal: %w", err)
	}
	return nil
}

// SetTrainingHour records the hour of day the user usually trains, used by
// the training-hour nudge. nil clears it.
func (s *Service) SetTrainingHour(ctx context.Context, userID int, hour *int) error {
	if hour != nil && (*hour < 0 || *hour > 23) {
		return invalid("training hour must be between 0 and 23")
	}
	if err := s.store.SetTrainingHour(ctx, userID, hour); err != nil {
		return fmt.Errorf("saving training hour: %w", err)
	}
	return nil
}

// ClaimNudge evaluates the nudge triggers and, when one fires, records it so
// the cooldown applies. Returns nil when nothing is due.
func (s *Service) ClaimNudge(ctx context.Context, userID int) (*progression.Nudge, error) {
	p, err := s.store.GetProgress(ctx, userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	now := s.now()
	n := progression.EvaluateNudge(p, progression.LevelFor(p.TotalExp).ProgressPercent, now, s.loc)
	if n == nil {
		return nil, nil
	}
	ok, err := s.store.MarkNudged(ctx, userID, now, progression.NudgeCooldown)
	if err != nil {
		return nil, fmt.Errorf("recording nudge: %w", err)
	}
	if !ok {
		return nil, nil
	}
	s.log.Info("nudge issued", "user_id", userID, "kind", n.Kind)
	return n, nil
}
