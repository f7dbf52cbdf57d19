package hae

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/claude/ironrank/internal/catalog"
	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/session"
)

const samplePayload = `{
	"data": {
		"metrics": [
			{"name": "step_count", "units": "count", "data": [{"date": "2024-02-06 00:00:00 -0800", "qty": 9000}]}
		],
		"workouts": [
			{"id": "w-3", "name": "Indoor Cycle", "start": "2024-02-08 18:00:00 +0100", "end": "2024-02-08 18:45:00 +0100", "duration": 2700},
			{"id": "w-1", "name": "Outdoor Run", "start": "2024-02-06 07:00:00 +0100", "end": "2024-02-06 07:30:00 +0100", "duration": 1800},
			{"id": "w-2", "name": "Traditional Strength Training", "start": "2024-02-07 19:00:00 +0100", "end": "2024-02-07 20:00:00 +0100", "duration": 3600},
			{"id": "w-4", "name": "Pool Swim", "start": "2024-02-09 07:00:00 +0100", "end": "2024-02-09 07:00:00 +0100"}
		]
	}
}`

type fakeFinalizer struct {
	cat      *catalog.Catalog
	requests []session.CardioRequest
	seen     map[string]bool
	err      error
}

func (f *fakeFinalizer) FinalizeCardio(_ context.Context, _ int, req session.CardioRequest) (*session.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if req.Seconds <= 0 {
		return nil, fmt.Errorf("%w: cardio duration must be positive", session.ErrInvalidSession)
	}
	if f.seen[req.ExternalID] {
		return nil, models.ErrDuplicate
	}
	f.seen[req.ExternalID] = true
	f.requests = append(f.requests, req)
	return &session.Result{Breakdown: models.ExpBreakdown{TotalExp: 12}}, nil
}

func (f *fakeFinalizer) Catalog() *catalog.Catalog { return f.cat }

func newFakeFinalizer(t *testing.T) *fakeFinalizer {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	return &fakeFinalizer{cat: cat, seen: make(map[string]bool)}
}

func decodePayload(t *testing.T) *models.HAEPayload {
	t.Helper()
	var p models.HAEPayload
	if err := json.Unmarshal([]byte(samplePayload), &p); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	return &p
}

func newTestProvider(f *fakeFinalizer) *Provider {
	return NewProvider(f, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// TestIngestWorkouts verifies cardio workouts are finalized oldest first,
// unknown workout types are reported and zero-length ones rejected.
func TestIngestWorkouts(t *testing.T) {
	f := newFakeFinalizer(t)
	res, err := newTestProvider(f).Ingest(context.Background(), decodePayload(t), 1)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.SessionsReceived != 4 || res.SessionsFinalized != 2 || res.SessionsSkipped != 1 || res.SessionsRejected != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.ExpAwarded != 24 {
		t.Errorf("exp = %d, want 24", res.ExpAwarded)
	}
	if len(res.UnknownExercises) != 1 || res.UnknownExercises[0] != "Traditional Strength Training" {
		t.Errorf("unknown = %v", res.UnknownExercises)
	}
	if res.Message == "" {
		t.Error("expected a message about ignored metrics")
	}

	if len(f.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(f.requests))
	}
	first, second := f.requests[0], f.requests[1]
	if first.ExerciseID != "running" || first.Seconds != 1800 || first.ExternalID != "hae:w-1" {
		t.Errorf("first = %+v", first)
	}
	if second.ExerciseID != "cycling" || second.Seconds != 2700 {
		t.Errorf("second = %+v", second)
	}
	if first.At == nil || first.At.UTC().Hour() != 6 {
		t.Errorf("first.At = %v, want 06:00 UTC", first.At)
	}
}

// TestIngestIdempotent verifies re-sending a payload finalizes nothing new.
func TestIngestIdempotent(t *testing.T) {
	f := newFakeFinalizer(t)
	p := newTestProvider(f)
	if _, err := p.Ingest(context.Background(), decodePayload(t), 1); err != nil {
		t.Fatal(err)
	}
	res, err := p.Ingest(context.Background(), decodePayload(t), 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.SessionsFinalized != 0 || res.SessionsSkipped != 3 {
		t.Errorf("replay result = %+v", res)
	}
}

// TestIngestStoreFailure verifies an unexpected error stops the import and
// still returns the partial result.
func TestIngestStoreFailure(t *testing.T) {
	f := newFakeFinalizer(t)
	f.err = errors.New("connection reset")
	res, err := newTestProvider(f).Ingest(context.Background(), decodePayload(t), 1)
	if !errors.Is(err, f.err) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
	if res == nil || res.SessionsFinalized != 0 {
		t.Errorf("result = %+v", res)
	}
}

// TestExternalIDFallback verifies workouts without an id still get a stable
// key.
func TestExternalIDFallback(t *testing.T) {
	start, _ := models.ParseHAETime("2024-02-06 07:00:00 +0000")
	w := models.HAEWorkout{Name: "Outdoor Run", Start: models.HAETime{Time: start}}
	if got, want := ExternalID(w), fmt.Sprintf("hae:%d:Outdoor Run", start.Unix()); got != want {
		t.Errorf("ExternalID = %q, want %q", got, want)
	}
}
