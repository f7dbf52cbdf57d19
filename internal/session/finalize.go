package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/ironrank/internal/events"
	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/observability"
	"github.com/claude/ironrank/internal/progression"
)

const (
	maxWeight  = 1000.0
	maxReps    = 1000
	maxSeconds = 24 * 60 * 60

	// clockSkew tolerates client clocks slightly ahead of the server.
	clockSkew = time.Minute

	publishTimeout = 5 * time.Second
)

// ExerciseInput is one exercise of a strength session. ExerciseID wins over
// Name when both are set; Name matches catalog names and aliases.
type ExerciseInput struct {
	ExerciseID string              `json:"exercise_id,omitempty"`
	Name       string              `json:"name,omitempty"`
	Sets       []models.WorkoutSet `json:"sets"`
}

// StrengthRequest finalizes a strength session. At backdates the session;
// ExternalID makes an imported session idempotent.
type StrengthRequest struct {
	Exercises  []ExerciseInput `json:"exercises"`
	At         *time.Time      `json:"at,omitempty"`
	ExternalID string          `json:"external_id,omitempty"`
}

// CardioRequest finalizes a cardio session of Seconds duration.
type CardioRequest struct {
	ExerciseID string     `json:"exercise_id,omitempty"`
	Name       string     `json:"name,omitempty"`
	Seconds    int        `json:"seconds"`
	At         *time.Time `json:"at,omitempty"`
	ExternalID string     `json:"external_id,omitempty"`
}

// Result is what a finalize returns to the caller.
type Result struct {
	Record         models.WorkoutRecord      `json:"record"`
	Breakdown      models.ExpBreakdown       `json:"breakdown"`
	Progress       models.Progress           `json:"progress"`
	LevelBefore    progression.LevelStats    `json:"level_before"`
	Level          progression.LevelStats    `json:"level"`
	LeveledUp      bool                      `json:"leveled_up"`
	UnlockedTitles []models.Title            `json:"unlocked_titles"`
	RankUps        []models.ExerciseSnapshot `json:"rank_ups"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSession, fmt.Sprintf(format, args...))
}

func (s *Service) resolve(id, name string) (models.Exercise, error) {
	switch {
	case id != "":
		ex, err := s.catalog.Exercise(id)
		if err != nil {
			return models.Exercise{}, invalid("unknown exercise id %q", id)
		}
		return ex, nil
	case name != "":
		ex, err := s.catalog.ExerciseByName(name)
		if err != nil {
			return models.Exercise{}, invalid("unknown exercise %q", name)
		}
		return ex, nil
	}
	return models.Exercise{}, invalid("exercise id or name is required")
}

func validateSet(ex models.Exercise, i int, set models.WorkoutSet) error {
	switch {
	case set.Weight < 0 || set.Reps < 0 || set.Seconds < 0:
		return invalid("%s set %d: values must not be negative", ex.Name, i+1)
	case set.Weight > maxWeight:
		return invalid("%s set %d: weight above %.0f kg", ex.Name, i+1, maxWeight)
	case set.Reps > maxReps:
		return invalid("%s set %d: more than %d reps", ex.Name, i+1, maxReps)
	case set.Seconds > maxSeconds:
		return invalid("%s set %d: longer than a day", ex.Name, i+1)
	}
	return nil
}

func (s *Service) resolveStrength(req StrengthRequest) ([]models.SessionExercise, error) {
	if len(req.Exercises) == 0 {
		return nil, invalid("session has no exercises")
	}
	out := make([]models.SessionExercise, 0, len(req.Exercises))
	for _, in := range req.Exercises {
		ex, err := s.resolve(in.ExerciseID, in.Name)
		if err != nil {
			return nil, err
		}
		if len(in.Sets) == 0 {
			return nil, invalid("%s has no sets", ex.Name)
		}
		for i, set := range in.Sets {
			if err := validateSet(ex, i, set); err != nil {
				return nil, err
			}
		}
		out = append(out, models.SessionExercise{Exercise: ex, Sets: in.Sets})
	}
	return out, nil
}

// sessionTime returns the time a session is recorded at. Backdating is
// allowed, future times are not.
func (s *Service) sessionTime(at *time.Time) (time.Time, error) {
	now := s.now()
	if at == nil || at.IsZero() {
		return now, nil
	}
	if at.After(now.Add(clockSkew)) {
		return time.Time{}, invalid("session time %s is in the future", at.Format(time.RFC3339))
	}
	return *at, nil
}

// FinalizeStrength scores a strength session and persists the result.
func (s *Service) FinalizeStrength(ctx context.Context, userID int, req StrengthRequest) (*Result, error) {
	exercises, err := s.resolveStrength(req)
	if err != nil {
		observability.RecordRejected("invalid")
		return nil, err
	}
	at, err := s.sessionTime(req.At)
	if err != nil {
		observability.RecordRejected("invalid")
		return nil, err
	}
	return s.finalize(ctx, userID, "strength", req.ExternalID, progression.FinalizeInput{
		Exercises: exercises,
		Now:       at,
	})
}

// FinalizeCardio scores a cardio session and persists the result.
func (s *Service) FinalizeCardio(ctx context.Context, userID int, req CardioRequest) (*Result, error) {
	ex, err := s.resolve(req.ExerciseID, req.Name)
	if err == nil && ex.MuscleGroup != models.MuscleCardio {
		err = invalid("%s is not a cardio exercise", ex.Name)
	}
	if err == nil && (req.Seconds <= 0 || req.Seconds > maxSeconds) {
		err = invalid("cardio duration must be between 1 second and a day")
	}
	if err != nil {
		observability.RecordRejected("invalid")
		return nil, err
	}
	at, err := s.sessionTime(req.At)
	if err != nil {
		observability.RecordRejected("invalid")
		return nil, err
	}
	return s.finalize(ctx, userID, "cardio", req.ExternalID, progression.FinalizeInput{
		Cardio: &progression.Cardio{Exercise: ex, Seconds: req.Seconds},
		Now:    at,
	})
}

func (s *Service) finalize(ctx context.Context, userID int, kind, externalID string, in progression.FinalizeInput) (*Result, error) {
	start := time.Now()
	var out progression.Outcome

	_, err := s.store.ApplySession(ctx, userID, func(st models.UserState) (models.SessionCommit, error) {
		in.Progress = st.Progress
		in.History = st.History
		in.Goal = st.Goal
		if g := st.Goal; g != nil && g.Deadline != nil && in.Now.After(*g.Deadline) {
			in.Goal = nil
		}
		in.Catalog = s.catalog.Titles()
		in.Location = s.loc

		var err error
		out, err = progression.Finalize(in)
		if err != nil {
			return models.SessionCommit{}, err
		}
		out.Record.ID = uuid.New()
		out.Record.ExternalID = externalID

		return models.SessionCommit{
			Record:    out.Record,
			Breakdown: out.Breakdown,
			Progress:  out.Progress,
			NewTitles: out.Progress.UnlockedTitles[len(st.Progress.UnlockedTitles):],
		}, nil
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			observability.RecordRejected("duplicate")
		}
		return nil, fmt.Errorf("finalizing %s session: %w", kind, err)
	}

	observability.RecordFinalized(kind, out.Breakdown.TotalExp, time.Since(start), out.Record.Date)
	if out.LeveledUp() {
		observability.RecordLevelUp()
	}
	for _, t := range out.UnlockedTitles {
		observability.RecordTitleUnlocked(t.ID)
	}

	s.log.Info("session finalized",
		"user_id", userID,
		"kind", kind,
		"record_id", out.Record.ID,
		"exp", out.Breakdown.TotalExp,
		"streak", out.Progress.Streak,
		"level", out.LevelAfter.Level,
		"titles", len(out.UnlockedTitles),
	)

	s.publish(ctx, userID, kind, out)

	titles := out.UnlockedTitles
	if titles == nil {
		titles = []models.Title{}
	}
	return &Result{
		Record:         out.Record,
		Breakdown:      out.Breakdown,
		Progress:       out.Progress,
		LevelBefore:    out.LevelBefore,
		Level:          out.LevelAfter,
		LeveledUp:      out.LeveledUp(),
		UnlockedTitles: titles,
		RankUps:        out.RankUps(),
	}, nil
}

// publish emits the session's events. The session is already committed, so
// failures are logged and counted but not returned.
func (s *Service) publish(ctx context.Context, userID int, kind string, out progression.Outcome) {
	at := out.Record.Date
	batch := []events.Event{events.New(events.SessionFinalized, userID, at, events.SessionFinalizedPayload{
		RecordID:  out.Record.ID,
		Kind:      kind,
		ExpEarned: out.Breakdown.TotalExp,
		TotalExp:  out.Progress.TotalExp,
		Level:     out.LevelAfter.Level,
		Streak:    out.Progress.Streak,
		PRs:       out.Breakdown.PRCount(),
	})}
	if out.LeveledUp() {
		batch = append(batch, events.New(events.LevelUp, userID, at, events.LevelUpPayload{
			From: out.LevelBefore.Level,
			To:   out.LevelAfter.Level,
		}))
	}
	for _, t := range out.UnlockedTitles {
		batch = append(batch, events.New(events.TitleUnlocked, userID, at, events.TitleUnlockedPayload{
			TitleID: t.ID,
			Name:    t.Name,
		}))
	}
	for _, snap := range out.RankUps() {
		rank := progression.Rank(snap.Archetype, snap.Metric, models.WorkoutSet{
			Weight: snap.NewWeight, Reps: snap.NewReps, Seconds: snap.NewSeconds,
		})
		batch = append(batch, events.New(events.RankUp, userID, at, events.RankUpPayload{
			ExerciseID: snap.ExerciseID,
			Exercise:   snap.Name,
			Rank:       rank,
			RankName:   progression.DescribeRank(rank).Name,
		}))
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(pctx, batch...); err != nil {
		for _, e := range batch {
			observability.RecordPublishError(string(e.Type))
		}
		s.log.Warn("publishing session events failed", "user_id", userID, "record_id", out.Record.ID, "error", err)
	}
}
