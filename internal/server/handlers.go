package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/ironrank/internal/catalog"
	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/session"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Progress(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, 500)
	}
	h, err := s.svc.History(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid workout ID")
		return
	}
	d, err := s.svc.Workout(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filter{MuscleGroup: models.MuscleGroup(q.Get("muscle_group")), Query: q.Get("q")}
	if f.MuscleGroup != "" && !f.MuscleGroup.Valid() {
		writeError(w, http.StatusBadRequest, "unknown muscle_group")
		return
	}
	cards, err := s.svc.ExerciseLibrary(r.Context(), userIDFromContext(r), f)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleRankPreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var set models.WorkoutSet
	var err error
	if v := q.Get("weight"); v != "" {
		if set.Weight, err = strconv.ParseFloat(v, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid weight")
			return
		}
	}
	if v := q.Get("reps"); v != "" {
		if set.Reps, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid reps")
			return
		}
	}
	if v := q.Get("seconds"); v != "" {
		if set.Seconds, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid seconds")
			return
		}
	}
	card, err := s.svc.RankPreview(q.Get("exercise_id"), q.Get("exercise"), set)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleTitles(w http.ResponseWriter, r *http.Request) {
	titles, err := s.svc.Titles(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, titles)
}

func (s *Server) handleActiveGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.ActiveGoal(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if g == nil {
		writeError(w, http.StatusNotFound, "no active goal")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleFinalizeStrength(w http.ResponseWriter, r *http.Request) {
	var req session.StrengthRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.FinalizeStrength(r.Context(), userIDFromContext(r), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleFinalizeCardio(w http.ResponseWriter, r *http.Request) {
	var req session.CardioRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.FinalizeCardio(r.Context(), userIDFromContext(r), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleEquipTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TitleID string `json:"title_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.svc.EquipTitle(r.Context(), userIDFromContext(r), req.TitleID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetGoal(w http.ResponseWriter, r *http.Request) {
	var req session.GoalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := s.svc.SetActiveGoal(r.Context(), userIDFromContext(r), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleClearGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearActiveGoal(r.Context(), userIDFromContext(r)); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNudge(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.ClaimNudge(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if n == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// writeServiceError maps service and storage errors to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidSession):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrTitleLocked):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrDuplicate):
		writeError(w, http.StatusConflict, "session already recorded")
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 12 weeks
		end = time.Now()
		start = end.AddDate(0, 0, -84)
		return
	}

	start, err = parseTimeParam(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if endStr == "" {
		return start, time.Now(), nil
	}
	end, err = parseTimeParam(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if _, dateOnly := time.Parse(time.DateOnly, endStr); dateOnly == nil {
		// End of day for date-only
		end = end.Add(24 * time.Hour)
	}
	return start, end, nil
}

func parseTimeParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}
