// Package session finalizes workouts against stored progress and serves the
// read side of the progression system.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/claude/ironrank/internal/catalog"
	"github.com/claude/ironrank/internal/events"
	"github.com/claude/ironrank/internal/models"
)

var (
	// ErrInvalidSession is wrapped by every validation failure.
	ErrInvalidSession = errors.New("invalid session")
	// ErrTitleLocked is returned when equipping a title that is not unlocked.
	ErrTitleLocked = errors.New("title is not unlocked")
)

// Store persists progression state. ApplySession must run fn and persist its
// commit atomically, with finalizes for the same user applied one at a time.
type Store interface {
	ApplySession(ctx context.Context, userID int, fn func(models.UserState) (models.SessionCommit, error)) (models.SessionCommit, error)
	GetProgress(ctx context.Context, userID int) (models.Progress, error)
	QueryHistory(ctx context.Context, userID, limit int) ([]models.WorkoutRecord, error)
	GetWorkout(ctx context.Context, userID int, id uuid.UUID) (*models.WorkoutDetail, error)
	ExerciseBests(ctx context.Context, userID int) (map[string]models.WorkoutSet, error)
	SetActiveTitle(ctx context.Context, userID int, titleID string) error
	SetTrainingHour(ctx context.Context, userID int, hour *int) error
	ActiveGoal(ctx context.Context, userID int) (*models.Goal, error)
	SetActiveGoal(ctx context.Context, userID int, g models.Goal) error
	ClearActiveGoal(ctx context.Context, userID int) error
	MarkNudged(ctx context.Context, userID int, at time.Time, cooldown time.Duration) (bool, error)
}

// Service wires the pure progression rules to a Store, the catalog and an
// event publisher.
type Service struct {
	store   Store
	catalog *catalog.Catalog
	events  events.Publisher
	loc     *time.Location
	log     *slog.Logger
	now     func() time.Time
}

// NewService creates a Service. loc is the zone calendar days are counted in;
// nil means UTC.
func NewService(store Store, cat *catalog.Catalog, pub events.Publisher, loc *time.Location, log *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		store:   store,
		catalog: cat,
		events:  pub,
		loc:     loc,
		log:     log,
		now:     time.Now,
	}
}

// Catalog returns the catalog the service scores against.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Location returns the zone calendar days are counted in.
func (s *Service) Location() *time.Location {
	return s.loc
}
