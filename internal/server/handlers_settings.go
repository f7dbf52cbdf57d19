package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/ironrank/internal/ingest"
	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/storage"
)

// maxImportBytes bounds uploaded exports.
const maxImportBytes = 32 << 20

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetDataStats(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleTrainingSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bucket := "week"
	switch agg := r.URL.Query().Get("agg"); agg {
	case "daily":
		bucket = "day"
	case "monthly":
		bucket = "month"
	case "weekly", "":
	default:
		writeError(w, http.StatusBadRequest, "agg must be daily, weekly or monthly")
		return
	}

	periods, err := s.db.GetTrainingSummary(r.Context(), start, end, bucket, s.svc.Location(), userIDFromContext(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.db.QueryImportLogs(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrainingHour *int `json:"training_hour"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.svc.SetTrainingHour(r.Context(), userIDFromContext(r), req.TrainingHour); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	start := time.Now()
	result, err := s.alpha.Ingest(r.Context(), http.MaxBytesReader(w, r.Body, maxImportBytes), uid)
	s.logImport(uid, "alpha", result, err, int(time.Since(start).Milliseconds()))
	if err != nil {
		s.log.Error("alpha import error", "error", err)
		if result == nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "result": result})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHAEImport(w http.ResponseWriter, r *http.Request) {
	var payload models.HAEPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBytes)).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	uid := userIDFromContext(r)
	start := time.Now()
	result, err := s.hae.Ingest(r.Context(), &payload, uid)
	s.logImport(uid, "hae", result, err, int(time.Since(start).Milliseconds()))
	if err != nil {
		s.log.Error("hae import error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "result": result})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// logImport records an import operation's result to the import_logs table.
func (s *Server) logImport(uid int, source string, result *ingest.Result, importErr error, durationMs int) {
	if result == nil {
		result = &ingest.Result{}
	}
	status := "success"
	var errMsg *string
	if importErr != nil {
		status = "error"
		msg := importErr.Error()
		errMsg = &msg
	}

	entry := storage.ImportLog{
		UserID:            uid,
		Source:            source,
		Status:            status,
		SessionsReceived:  result.SessionsReceived,
		SessionsFinalized: result.SessionsFinalized,
		SessionsSkipped:   result.SessionsSkipped,
		ExpAwarded:        result.ExpAwarded,
		TitlesUnlocked:    len(result.TitlesUnlocked),
		DurationMs:        &durationMs,
		ErrorMessage:      errMsg,
	}
	if len(result.UnknownExercises) > 0 || result.SessionsRejected > 0 {
		meta, err := json.Marshal(map[string]any{
			"unknown_exercises": result.UnknownExercises,
			"sessions_rejected": result.SessionsRejected,
		})
		if err == nil {
			raw := json.RawMessage(meta)
			entry.Metadata = &raw
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.db.InsertImportLog(ctx, entry); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
}
