package alpha

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/claude/ironrank/internal/catalog"
	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/session"
)

// sampleCSV holds two sessions, legs on the 19th listed before push on the
// 17th. Three legs exercises are not in the catalog.
const sampleCSV = `
"Legs · Day 2 · Week 4 · Push-Pull-Legs";"2026-02-19 4:54 h";"1:02 hr"
"1. Hack Squats · Machine · 8 reps";"WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps"
#;KG;REPS;RIR
1;115;8;1
2;115;10;1
3;115;10;1
"2. Sumo Squats · Smith machine · 10 reps";"WU1 · 35 kg · 8 reps"
#;KG;REPS;RIR
1;70;8;1
2;70;12;1
"3. Hyperextensions on Roman Chair · Bodyweight · 10 reps";"WU1 · +0 kg · 8 reps"
#;KG;REPS;RIR
1;+35;10;0
2;+35;9;1
3;+35;10;0
"4. Reverse Lunges · Dumbbells · 10 reps"
#;KG;REPS;RIR
1;10;10;1
2;10;10;1
3;10;10;0
"5. Standing Calf Raises · Machine · 12 reps";"WU1 · 47,5 kg · 8 reps"
#;KG;REPS;RIR
1;157,5;11;1
2;157,5;11;0
3;157,5;10;0
"6. Hanging Leg Raises · Bodyweight · 12 reps · 2 dropsets"
#;KG;REPS;RIR
1;+0;12;1
2;+0;12;1
3;+0;12;0

"Push · Day 1 · Week 4 · Push-Pull-Legs";"2026-02-17 5:04 h";"1:12 hr"
"1. Bench Press · Barbell · 6 reps";"WU1 · 22,5 kg · 10 reps<br>WU2 · 47,5 kg · 8 reps<br>WU3 · 77,5 kg · 6 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;102,5;6;0
3;100;6;0
`

type fakeFinalizer struct {
	cat      *catalog.Catalog
	requests []session.StrengthRequest
	seen     map[string]bool
	err      error
}

func (f *fakeFinalizer) FinalizeStrength(_ context.Context, _ int, req session.StrengthRequest) (*session.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.seen[req.ExternalID] {
		return nil, models.ErrDuplicate
	}
	f.seen[req.ExternalID] = true
	f.requests = append(f.requests, req)
	return &session.Result{
		Breakdown:      models.ExpBreakdown{TotalExp: 10},
		UnlockedTitles: []models.Title{{ID: "first-blood"}},
	}, nil
}

func (f *fakeFinalizer) Catalog() *catalog.Catalog { return f.cat }

func (f *fakeFinalizer) Location() *time.Location { return time.UTC }

func newFakeFinalizer(t *testing.T) *fakeFinalizer {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	return &fakeFinalizer{cat: cat, seen: make(map[string]bool)}
}

func newTestProvider(f *fakeFinalizer) *Provider {
	return NewProvider(f, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// TestIngestReplaysOldestFirst verifies sessions are finalized in date order
// with warmups dropped and catalog ids resolved.
func TestIngestReplaysOldestFirst(t *testing.T) {
	f := newFakeFinalizer(t)
	res, err := newTestProvider(f).Ingest(context.Background(), strings.NewReader(sampleCSV), 1)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.SessionsReceived != 2 || res.SessionsFinalized != 2 {
		t.Errorf("result = %+v", res)
	}
	if res.ExpAwarded != 20 {
		t.Errorf("exp = %d, want 20", res.ExpAwarded)
	}
	if len(f.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(f.requests))
	}

	// The push session on the 17th comes before legs on the 19th.
	push := f.requests[0]
	if len(push.Exercises) != 1 || push.Exercises[0].ExerciseID != "bench-press" {
		t.Fatalf("push exercises = %+v", push.Exercises)
	}
	if got := len(push.Exercises[0].Sets); got != 3 {
		t.Errorf("bench sets = %d, want 3 working sets", got)
	}
	if push.At == nil || push.At.Day() != 17 {
		t.Errorf("push at = %v", push.At)
	}

	if res.WarmupsSkipped != 8 {
		t.Errorf("warmups skipped = %d, want 8", res.WarmupsSkipped)
	}
}

// TestIngestUnknownExercises verifies names missing from the catalog are
// reported once and left out of the request.
func TestIngestUnknownExercises(t *testing.T) {
	f := newFakeFinalizer(t)
	res, err := newTestProvider(f).Ingest(context.Background(), strings.NewReader(sampleCSV), 1)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	want := map[string]bool{"Sumo Squats": true, "Hyperextensions on Roman Chair": true, "Reverse Lunges": true}
	if len(res.UnknownExercises) != len(want) {
		t.Fatalf("unknown = %v", res.UnknownExercises)
	}
	for _, n := range res.UnknownExercises {
		if !want[n] {
			t.Errorf("unexpected unknown exercise %q", n)
		}
	}

	legs := f.requests[1]
	ids := make([]string, 0, len(legs.Exercises))
	for _, e := range legs.Exercises {
		ids = append(ids, e.ExerciseID)
	}
	wantIDs := []string{"leg-press", "calf-raise", "hanging-leg-raise"}
	if strings.Join(ids, ",") != strings.Join(wantIDs, ",") {
		t.Errorf("legs ids = %v, want %v", ids, wantIDs)
	}
}

// TestIngestIdempotent verifies a second import of the same export only
// counts skipped sessions.
func TestIngestIdempotent(t *testing.T) {
	f := newFakeFinalizer(t)
	p := newTestProvider(f)
	if _, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), 1); err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	res, err := p.Ingest(context.Background(), strings.NewReader(sampleCSV), 1)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if res.SessionsFinalized != 0 || res.SessionsSkipped != 2 {
		t.Errorf("result = %+v, want 2 skipped", res)
	}
}

// TestIngestStoreFailure verifies a storage failure aborts with the partial
// result.
func TestIngestStoreFailure(t *testing.T) {
	f := newFakeFinalizer(t)
	f.err = errors.New("db down")
	res, err := newTestProvider(f).Ingest(context.Background(), strings.NewReader(sampleCSV), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if res == nil || res.SessionsFinalized != 0 {
		t.Errorf("result = %+v", res)
	}
}

// TestIngestRejectedSession verifies invalid sessions are counted and the
// import continues.
func TestIngestRejectedSession(t *testing.T) {
	f := newFakeFinalizer(t)
	f.err = session.ErrInvalidSession
	res, err := newTestProvider(f).Ingest(context.Background(), strings.NewReader(sampleCSV), 1)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.SessionsRejected != 2 {
		t.Errorf("rejected = %d, want 2", res.SessionsRejected)
	}
}

// TestExternalIDStable verifies the replay key depends on date and name only.
func TestExternalIDStable(t *testing.T) {
	s := Session{Name: "Push", Date: time.Date(2026, 2, 17, 5, 4, 0, 0, time.UTC)}
	if got := ExternalID(s); got != "alpha:2026-02-17T05:04:00Z:Push" {
		t.Errorf("ExternalID = %q", got)
	}
}
