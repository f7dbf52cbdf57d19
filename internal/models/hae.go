package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// HAE export timestamps carry a numeric offset. Date-only values appear in
// daily aggregates.
const (
	HAETimeLayout     = "2006-01-02 15:04:05 -0700"
	HAEDateOnlyLayout = "2006-01-02"
)

// HAETime is a timestamp in Health Auto Export format.
type HAETime struct {
	time.Time
}

func (t *HAETime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseHAETime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t HAETime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(HAETimeLayout))
}

// ParseHAETime accepts the full HAE layout or a bare date (UTC midnight).
func ParseHAETime(s string) (time.Time, error) {
	for _, layout := range []string{HAETimeLayout, HAEDateOnlyLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("HAE time %q: want %q or %q", s, HAETimeLayout, HAEDateOnlyLayout)
}

// HAEPayload is the Health Auto Export REST API body. Only workouts are
// scored; metric series are accepted and counted.
type HAEPayload struct {
	Data HAEData `json:"data"`
}

// HAEData contains the arrays of health data.
type HAEData struct {
	Metrics  []HAEMetric  `json:"metrics"`
	Workouts []HAEWorkout `json:"workouts"`
}

// HAEMetric is a metric series. Its data points are left undecoded.
type HAEMetric struct {
	Name  string            `json:"name"`
	Units string            `json:"units"`
	Data  []json.RawMessage `json:"data"`
}

// HAEWorkout is a workout from the REST API (Version 2). Duration is in
// seconds.
type HAEWorkout struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Start    HAETime `json:"start"`
	End      HAETime `json:"end"`
	Duration float64 `json:"duration"`

	Distance           *HAEQuantity `json:"distance,omitempty"`
	ActiveEnergyBurned *HAEQuantity `json:"activeEnergyBurned,omitempty"`
}

// Seconds returns the workout length, falling back to End-Start when the
// export has no duration.
func (w HAEWorkout) Seconds() int {
	d := w.Duration
	if d <= 0 && !w.Start.IsZero() && w.End.After(w.Start.Time) {
		d = w.End.Sub(w.Start.Time).Seconds()
	}
	return int(d + 0.5)
}

// HAEQuantity is the {"qty": N, "units": "..."} structure.
type HAEQuantity struct {
	Qty   float64 `json:"qty"`
	Units string  `json:"units"`
}
