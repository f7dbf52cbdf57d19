// Package ingest holds what import providers share.
package ingest

// Result holds the outcome of an import. Sessions are replayed through the
// finalizer, so EXP and titles are awarded exactly as for live sessions.
type Result struct {
	SessionsReceived  int `json:"sessions_received"`
	SessionsFinalized int `json:"sessions_finalized"`
	SessionsSkipped   int `json:"sessions_skipped"`
	SessionsRejected  int `json:"sessions_rejected,omitempty"`

	SetsReceived   int `json:"sets_received"`
	WarmupsSkipped int `json:"warmups_skipped,omitempty"`

	ExpAwarded       int      `json:"exp_awarded"`
	TitlesUnlocked   []string `json:"titles_unlocked,omitempty"`
	UnknownExercises []string `json:"unknown_exercises,omitempty"`

	Message string `json:"message,omitempty"`
}
