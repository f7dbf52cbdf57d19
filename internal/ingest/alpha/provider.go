// Package alpha imports Alpha Progression CSV exports by replaying every
// session through the finalizer in date order.
package alpha

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/claude/ironrank/internal/catalog"
	"github.com/claude/ironrank/internal/ingest"
	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/session"
)

// Finalizer is the part of the session service an import drives.
type Finalizer interface {
	FinalizeStrength(ctx context.Context, userID int, req session.StrengthRequest) (*session.Result, error)
	Catalog() *catalog.Catalog
	Location() *time.Location
}

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	svc Finalizer
	log *slog.Logger
}

// NewProvider creates a new Alpha Progression import provider.
func NewProvider(svc Finalizer, log *slog.Logger) *Provider {
	return &Provider{svc: svc, log: log}
}

// ExternalID identifies an imported session so replays are skipped.
func ExternalID(s Session) string {
	return fmt.Sprintf("alpha:%s:%s", s.Date.UTC().Format(time.RFC3339), s.Name)
}

// resolveExercise matches an export name against the catalog, trying the
// plural-free form ("Hack Squats") and the equipment-prefixed form
// ("Barbell Bench Press") as well.
func resolveExercise(cat *catalog.Catalog, ex Exercise) (models.Exercise, bool) {
	candidates := []string{ex.Name}
	if singular, ok := strings.CutSuffix(ex.Name, "s"); ok {
		candidates = append(candidates, singular)
	}
	if ex.Equipment != "" {
		candidates = append(candidates, ex.Equipment+" "+ex.Name)
	}
	for _, c := range candidates {
		if m, err := cat.ExerciseByName(c); err == nil {
			return m, true
		}
	}
	return models.Exercise{}, false
}

// Request converts a parsed session into a strength request. Warmups, empty
// sets and exercises missing from the catalog are left out; the names of the
// latter are returned.
func Request(cat *catalog.Catalog, s Session) (session.StrengthRequest, []string, int) {
	at := s.Date
	req := session.StrengthRequest{At: &at, ExternalID: ExternalID(s)}
	var unknown []string
	warmups := 0
	for _, ex := range s.Exercises {
		var sets []models.WorkoutSet
		for _, set := range ex.Sets {
			if set.IsWarmup {
				warmups++
				continue
			}
			if set.Reps == 0 && set.WeightKg == 0 {
				continue
			}
			sets = append(sets, models.WorkoutSet{Weight: set.WeightKg, Reps: set.Reps})
		}
		if len(sets) == 0 {
			continue
		}
		m, ok := resolveExercise(cat, ex)
		if !ok {
			unknown = append(unknown, ex.Name)
			continue
		}
		req.Exercises = append(req.Exercises, session.ExerciseInput{ExerciseID: m.ID, Sets: sets})
	}
	return req, unknown, warmups
}

// Ingest parses a CSV export and finalizes its sessions oldest first. A
// session already imported is counted as skipped. The result is returned
// alongside any error so partial imports can be logged.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := ParseInLocation(r, p.svc.Location())
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	slices.SortStableFunc(sessions, func(a, b Session) int { return a.Date.Compare(b.Date) })

	cat := p.svc.Catalog()
	result := &ingest.Result{SessionsReceived: len(sessions)}
	unknown := make(map[string]bool)

	for _, s := range sessions {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		for _, ex := range s.Exercises {
			result.SetsReceived += len(ex.Sets)
		}

		req, missing, warmups := Request(cat, s)
		result.WarmupsSkipped += warmups
		for _, name := range missing {
			if !unknown[name] {
				unknown[name] = true
				result.UnknownExercises = append(result.UnknownExercises, name)
			}
		}
		if len(req.Exercises) == 0 {
			result.SessionsSkipped++
			continue
		}

		res, err := p.svc.FinalizeStrength(ctx, userID, req)
		switch {
		case errors.Is(err, models.ErrDuplicate):
			result.SessionsSkipped++
			continue
		case errors.Is(err, session.ErrInvalidSession):
			p.log.Warn("alpha session rejected", "session", s.Name, "date", s.Date, "error", err)
			result.SessionsRejected++
			continue
		case err != nil:
			return result, fmt.Errorf("finalizing session %s: %w", s.Date.Format("2006-01-02"), err)
		}

		result.SessionsFinalized++
		result.ExpAwarded += res.Breakdown.TotalExp
		for _, t := range res.UnlockedTitles {
			result.TitlesUnlocked = append(result.TitlesUnlocked, t.ID)
		}
	}

	p.log.Info("alpha import complete",
		"user_id", userID,
		"sessions", result.SessionsReceived,
		"finalized", result.SessionsFinalized,
		"skipped", result.SessionsSkipped,
		"exp", result.ExpAwarded,
	)
	return result, nil
}
