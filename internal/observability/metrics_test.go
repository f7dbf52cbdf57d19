package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordFinalized verifies the counter is labelled by kind.
func TestRecordFinalized(t *testing.T) {
	before := testutil.ToFloat64(sessionsFinalized.WithLabelValues("cardio"))
	RecordFinalized("cardio", 9, 15*time.Millisecond, time.Unix(1700000000, 0))
	if got := testutil.ToFloat64(sessionsFinalized.WithLabelValues("cardio")); got != before+1 {
		t.Errorf("cardio finalized = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(lastSessionGauge); got != 1700000000 {
		t.Errorf("last session gauge = %v", got)
	}
}

// TestRecordTitleUnlocked verifies unlocks are counted per title.
func TestRecordTitleUnlocked(t *testing.T) {
	RecordTitleUnlocked("spark")
	RecordTitleUnlocked("spark")
	RecordTitleUnlocked("first-blood")
	if got := testutil.ToFloat64(titlesUnlocked.WithLabelValues("spark")); got != 2 {
		t.Errorf("spark = %v, want 2", got)
	}
}
