package mcp

import (
	"context"
	"time"

	"github.com/claude/ironrank/internal/catalog"
	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/session"
	"github.com/claude/ironrank/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Local (in-process) and
// HTTPClient (remote via REST API) both satisfy it.
type DataSource interface {
	Progress(ctx context.Context, userID int) (*session.ProgressView, error)
	History(ctx context.Context, userID, limit int) ([]models.WorkoutRecord, error)
	ExerciseRanks(ctx context.Context, userID int, f catalog.Filter) ([]session.RankCard, error)
	RankPreview(ctx context.Context, exercise string, set models.WorkoutSet) (session.RankCard, error)
	Titles(ctx context.Context, userID int) ([]session.TitleView, error)
	ActiveGoal(ctx context.Context, userID int) (*models.Goal, error)
	TrainingSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]storage.TrainingSummaryPeriod, error)
}

// SummaryStore reads per-period training totals. *storage.DB satisfies it.
type SummaryStore interface {
	GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string, loc *time.Location, userID int) ([]storage.TrainingSummaryPeriod, error)
}

// Local serves tools from the in-process session service.
type Local struct {
	svc *session.Service
	db  SummaryStore
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

// NewLocal creates a DataSource over svc and db.
func NewLocal(svc *session.Service, db SummaryStore) *Local {
	return &Local{svc: svc, db: db}
}

func (l *Local) Progress(ctx context.Context, userID int) (*session.ProgressView, error) {
	return l.svc.Progress(ctx, userID)
}

func (l *Local) History(ctx context.Context, userID, limit int) ([]models.WorkoutRecord, error) {
	return l.svc.History(ctx, userID, limit)
}

func (l *Local) ExerciseRanks(ctx context.Context, userID int, f catalog.Filter) ([]session.RankCard, error) {
	return l.svc.ExerciseLibrary(ctx, userID, f)
}

func (l *Local) RankPreview(_ context.Context, exercise string, set models.WorkoutSet) (session.RankCard, error) {
	return l.svc.RankPreview("", exercise, set)
}

func (l *Local) Titles(ctx context.Context, userID int) ([]session.TitleView, error) {
	return l.svc.Titles(ctx, userID)
}

func (l *Local) ActiveGoal(ctx context.Context, userID int) (*models.Goal, error) {
	return l.svc.ActiveGoal(ctx, userID)
}

func (l *Local) TrainingSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]storage.TrainingSummaryPeriod, error) {
	return l.db.GetTrainingSummary(ctx, start, end, bucket, l.svc.Location(), userID)
}
