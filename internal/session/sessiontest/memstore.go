// Package sessiontest provides an in-memory session.Store for tests.
package sessiontest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/progression"
)

// MemStore is an in-memory session.Store. A single mutex serializes
// ApplySession the way the row lock does in PostgreSQL.
type MemStore struct {
	mu       sync.Mutex
	progress map[int]models.Progress
	records  map[int][]models.WorkoutDetail // newest first
	goals    map[int]*models.Goal
	failNext error
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		progress: make(map[int]models.Progress),
		records:  make(map[int][]models.WorkoutDetail),
		goals:    make(map[int]*models.Goal),
	}
}

func (m *MemStore) history(userID int) []models.WorkoutRecord {
	out := make([]models.WorkoutRecord, 0, len(m.records[userID]))
	for _, d := range m.records[userID] {
		out = append(out, d.Record)
	}
	return out
}

func (m *MemStore) ApplySession(_ context.Context, userID int, fn func(models.UserState) (models.SessionCommit, error)) (models.SessionCommit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failNext; err != nil {
		m.failNext = nil
		return models.SessionCommit{}, err
	}

	var goal *models.Goal
	if g := m.goals[userID]; g != nil {
		c := *g
		goal = &c
	}
	commit, err := fn(models.UserState{
		Progress: m.progress[userID].Clone(),
		History:  m.history(userID),
		Goal:     goal,
	})
	if err != nil {
		return models.SessionCommit{}, err
	}

	if ext := commit.Record.ExternalID; ext != "" {
		for _, d := range m.records[userID] {
			if d.Record.ExternalID == ext {
				return models.SessionCommit{}, fmt.Errorf("external id %s: %w", ext, models.ErrDuplicate)
			}
		}
	}

	recs := append(m.records[userID], models.WorkoutDetail{Record: commit.Record, Breakdown: commit.Breakdown})
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Record.Date.After(recs[j].Record.Date) })
	m.records[userID] = recs

	p := commit.Progress
	p.ActiveTitleID = m.progress[userID].ActiveTitleID
	p.TrainingHour = m.progress[userID].TrainingHour
	p.LastNudgeAt = m.progress[userID].LastNudgeAt
	m.progress[userID] = p
	return commit, nil
}

func (m *MemStore) GetProgress(_ context.Context, userID int) (models.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress[userID].Clone(), nil
}

func (m *MemStore) QueryHistory(_ context.Context, userID, limit int) ([]models.WorkoutRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.history(userID)
	if limit > 0 && len(h) > limit {
		h = h[:limit]
	}
	return h, nil
}

func (m *MemStore) GetWorkout(_ context.Context, userID int, id uuid.UUID) (*models.WorkoutDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.records[userID] {
		if d.Record.ID == id {
			c := d
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MemStore) ExerciseBests(_ context.Context, userID int) (map[string]models.WorkoutSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bests := make(map[string]models.WorkoutSet)
	scores := make(map[string]float64)
	for _, d := range m.records[userID] {
		for _, s := range d.Breakdown.Snapshots {
			set := models.WorkoutSet{Weight: s.NewWeight, Reps: s.NewReps, Seconds: s.NewSeconds}
			score := progression.Score(s.Archetype, s.Metric, set)
			if _, ok := bests[s.ExerciseID]; !ok || score > scores[s.ExerciseID] {
				bests[s.ExerciseID] = set
				scores[s.ExerciseID] = score
			}
		}
	}
	return bests, nil
}

func (m *MemStore) update(userID int, fn func(*models.Progress)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.progress[userID]
	fn(&p)
	m.progress[userID] = p
}

func (m *MemStore) SetActiveTitle(_ context.Context, userID int, titleID string) error {
	m.update(userID, func(p *models.Progress) { p.ActiveTitleID = titleID })
	return nil
}

func (m *MemStore) SetTrainingHour(_ context.Context, userID int, hour *int) error {
	m.update(userID, func(p *models.Progress) { p.TrainingHour = hour })
	return nil
}

func (m *MemStore) ActiveGoal(_ context.Context, userID int) (*models.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.goals[userID], nil
}

func (m *MemStore) SetActiveGoal(_ context.Context, userID int, g models.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals[userID] = &g
	return nil
}

func (m *MemStore) ClearActiveGoal(_ context.Context, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.goals, userID)
	return nil
}

func (m *MemStore) MarkNudged(_ context.Context, userID int, at time.Time, cooldown time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.progress[userID]
	if p.LastNudgeAt != nil && p.LastNudgeAt.After(at.Add(-cooldown)) {
		return false, nil
	}
	p.LastNudgeAt = &at
	m.progress[userID] = p
	return true, nil
}

// SetProgress replaces a user's stored progress.
func (m *MemStore) SetProgress(userID int, p models.Progress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[userID] = p.Clone()
}

// FailNext makes the next ApplySession return err without applying anything.
func (m *MemStore) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}
