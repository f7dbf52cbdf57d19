package models

import (
	"encoding/json"
	"testing"
	"time"
)

// TestParseHAETime verifies both accepted layouts and that anything else is
// an error rather than a zero time.
func TestParseHAETime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-02-06 14:30:00 -0800", time.Date(2024, 2, 6, 14, 30, 0, 0, time.FixedZone("", -8*3600)), false},
		{"2024-02-06", time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC), false},
		{"not-a-date", time.Time{}, true},
		{"2024-02-06T14:30:00Z", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHAETime(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseHAETime(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHAETime(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseHAETime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestHAEPayloadUnmarshal verifies a full payload decodes, keeping metric
// points raw and ignoring workout fields that are not scored.
func TestHAEPayloadUnmarshal(t *testing.T) {
	raw := `{
		"data": {
			"metrics": [
				{
					"name": "heart_rate",
					"units": "bpm",
					"data": [
						{"date": "2024-02-06 14:30:00 -0800", "Min": 65, "Avg": 72, "Max": 85}
					]
				}
			],
			"workouts": [
				{
					"id": "550e8400-e29b-41d4-a716-446655440000",
					"name": "Outdoor Run",
					"start": "2024-02-06 07:00:00 -0800",
					"end": "2024-02-06 07:30:00 -0800",
					"duration": 1800,
					"activeEnergyBurned": {"qty": 350, "units": "kcal"},
					"distance": {"qty": 3.5, "units": "mi"},
					"heartRateData": [
						{"date": "2024-02-06 07:00:00 -0800", "Min": 120, "Avg": 150, "Max": 175, "units": "bpm"}
					]
				}
			]
		}
	}`
	var p HAEPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(p.Data.Metrics) != 1 || len(p.Data.Metrics[0].Data) != 1 {
		t.Fatalf("metrics = %+v", p.Data.Metrics)
	}
	if len(p.Data.Workouts) != 1 {
		t.Fatalf("workouts = %d, want 1", len(p.Data.Workouts))
	}
	w := p.Data.Workouts[0]
	if w.Name != "Outdoor Run" || w.Duration != 1800 {
		t.Errorf("workout = %+v", w)
	}
	if w.Start.UTC().Hour() != 15 {
		t.Errorf("start = %v, want 15:00 UTC", w.Start.UTC())
	}
	if w.Distance == nil || w.Distance.Qty != 3.5 {
		t.Errorf("distance = %v", w.Distance)
	}
}

// TestHAEWorkoutSeconds verifies the duration falls back to end minus start
// and rounds to whole seconds.
func TestHAEWorkoutSeconds(t *testing.T) {
	start := HAETime{time.Date(2024, 2, 6, 7, 0, 0, 0, time.UTC)}
	end := HAETime{start.Add(25 * time.Minute)}
	tests := []struct {
		name string
		w    HAEWorkout
		want int
	}{
		{"duration", HAEWorkout{Duration: 1799.6, Start: start, End: end}, 1800},
		{"from start and end", HAEWorkout{Start: start, End: end}, 1500},
		{"end before start", HAEWorkout{Start: end, End: start}, 0},
		{"nothing", HAEWorkout{}, 0},
	}
	for _, tt := range tests {
		if got := tt.w.Seconds(); got != tt.want {
			t.Errorf("%s: Seconds() = %d, want %d", tt.name, got, tt.want)
		}
	}
}
