// Package observability exposes Prometheus metrics for session finalizing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	sessionsFinalized = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ironrank",
		Subsystem: "sessions",
		Name:      "finalized_total",
		Help:      "Number of sessions finalized, by kind.",
	}, []string{"kind"})

	sessionRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ironrank",
		Subsystem: "sessions",
		Name:      "rejected_total",
		Help:      "Number of sessions rejected before scoring, by reason.",
	}, []string{"reason"})

	expAwarded = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ironrank",
		Subsystem: "sessions",
		Name:      "exp_awarded",
		Help:      "EXP awarded per finalized session.",
		Buckets:   []float64{5, 10, 20, 40, 60, 80, 120, 200, 400},
	}, []string{"kind"})

	finalizeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ironrank",
		Subsystem: "sessions",
		Name:      "finalize_duration_seconds",
		Help:      "Time spent scoring and persisting a session.",
		Buckets:   prometheus.DefBuckets,
	})

	levelUps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ironrank",
		Subsystem: "progression",
		Name:      "level_ups_total",
		Help:      "Number of sessions that crossed at least one level.",
	})

	titlesUnlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ironrank",
		Subsystem: "progression",
		Name:      "titles_unlocked_total",
		Help:      "Number of title unlocks, by title id.",
	}, []string{"title"})

	eventPublishErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ironrank",
		Subsystem: "events",
		Name:      "publish_errors_total",
		Help:      "Number of events that could not be published, by event type.",
	}, []string{"event_type"})

	lastSessionGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ironrank",
		Subsystem: "sessions",
		Name:      "last_finalized_timestamp_seconds",
		Help:      "Unix timestamp of the most recent finalized session.",
	})
)

func init() {
	prometheus.MustRegister(sessionsFinalized, sessionRejected, expAwarded, finalizeDuration,
		levelUps, titlesUnlocked, eventPublishErrors, lastSessionGauge)
}

// RecordFinalized counts a finalized session and the EXP it earned.
func RecordFinalized(kind string, exp int, took time.Duration, at time.Time) {
	sessionsFinalized.WithLabelValues(kind).Inc()
	expAwarded.WithLabelValues(kind).Observe(float64(exp))
	finalizeDuration.Observe(took.Seconds())
	if !at.IsZero() {
		lastSessionGauge.Set(float64(at.Unix()))
	}
}

// RecordRejected counts a session refused before scoring.
func RecordRejected(reason string) {
	sessionRejected.WithLabelValues(reason).Inc()
}

// RecordLevelUp counts a session that crossed a level boundary.
func RecordLevelUp() {
	levelUps.Inc()
}

// RecordTitleUnlocked counts one title unlock.
func RecordTitleUnlocked(titleID string) {
	titlesUnlocked.WithLabelValues(titleID).Inc()
}

// RecordPublishError counts an event that failed to publish.
func RecordPublishError(eventType string) {
	eventPublishErrors.WithLabelValues(eventType).Inc()
}
