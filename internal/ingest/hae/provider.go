// Package hae imports Health Auto Export REST payloads. Workouts that match
// a cardio exercise are finalized as cardio sessions; metric series are
// accepted and ignored.
package hae

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/claude/ironrank/internal/catalog"
	"github.com/claude/ironrank/internal/ingest"
	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/session"
)

// Finalizer is the part of the session service an import drives.
type Finalizer interface {
	FinalizeCardio(ctx context.Context, userID int, req session.CardioRequest) (*session.Result, error)
	Catalog() *catalog.Catalog
}

// Provider processes Health Auto Export REST API payloads.
type Provider struct {
	svc Finalizer
	log *slog.Logger
}

// NewProvider creates a new HAE ingest provider.
func NewProvider(svc Finalizer, log *slog.Logger) *Provider {
	return &Provider{svc: svc, log: log}
}

// ExternalID identifies an imported workout so replays are skipped. HAE ids
// are stable per workout; exports without one fall back to the start time.
func ExternalID(w models.HAEWorkout) string {
	if w.ID != "" {
		return "hae:" + w.ID
	}
	return fmt.Sprintf("hae:%d:%s", w.Start.Unix(), w.Name)
}

// Request converts a workout into a cardio request. ok is false when the
// workout name is not in the catalog.
func Request(cat *catalog.Catalog, w models.HAEWorkout) (session.CardioRequest, bool) {
	ex, err := cat.ExerciseByName(w.Name)
	if err != nil {
		return session.CardioRequest{}, false
	}
	at := w.Start.Time
	return session.CardioRequest{
		ExerciseID: ex.ID,
		Seconds:    w.Seconds(),
		At:         &at,
		ExternalID: ExternalID(w),
	}, true
}

// Ingest finalizes the payload's workouts oldest first. The result is
// returned alongside any error so partial imports can be logged.
func (p *Provider) Ingest(ctx context.Context, payload *models.HAEPayload, userID int) (*ingest.Result, error) {
	workouts := slices.Clone(payload.Data.Workouts)
	slices.SortStableFunc(workouts, func(a, b models.HAEWorkout) int { return a.Start.Compare(b.Start.Time) })

	cat := p.svc.Catalog()
	result := &ingest.Result{SessionsReceived: len(workouts)}
	unknown := make(map[string]bool)

	for _, w := range workouts {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		req, ok := Request(cat, w)
		if !ok {
			if !unknown[w.Name] {
				unknown[w.Name] = true
				result.UnknownExercises = append(result.UnknownExercises, w.Name)
			}
			result.SessionsSkipped++
			continue
		}

		res, err := p.svc.FinalizeCardio(ctx, userID, req)
		switch {
		case errors.Is(err, models.ErrDuplicate):
			result.SessionsSkipped++
			continue
		case errors.Is(err, session.ErrInvalidSession):
			p.log.Warn("hae workout rejected", "workout", w.Name, "start", w.Start.Time, "error", err)
			result.SessionsRejected++
			continue
		case err != nil:
			return result, fmt.Errorf("finalizing workout %s: %w", ExternalID(w), err)
		}

		result.SessionsFinalized++
		result.ExpAwarded += res.Breakdown.TotalExp
		for _, t := range res.UnlockedTitles {
			result.TitlesUnlocked = append(result.TitlesUnlocked, t.ID)
		}
	}

	if n := len(payload.Data.Metrics); n > 0 {
		result.Message = fmt.Sprintf("%d metric series ignored; only workouts earn EXP", n)
	}

	p.log.Info("hae import complete",
		"user_id", userID,
		"workouts", result.SessionsReceived,
		"finalized", result.SessionsFinalized,
		"skipped", result.SessionsSkipped,
		"exp", result.ExpAwarded,
	)
	return result, nil
}
