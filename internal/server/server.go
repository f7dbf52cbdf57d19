package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/ironrank/internal/ingest"
	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/session"
	"github.com/claude/ironrank/internal/storage"
)

// Store is the storage the dashboard and identity endpoints use directly.
// *storage.DB satisfies it.
type Store interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string, loc *time.Location, userID int) ([]storage.TrainingSummaryPeriod, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
}

// Importer turns an uploaded export into finalized sessions.
type Importer interface {
	Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error)
}

// HAEImporter finalizes the workouts of a Health Auto Export payload.
type HAEImporter interface {
	Ingest(ctx context.Context, payload *models.HAEPayload, userID int) (*ingest.Result, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc       *session.Service
	db        Store
	alpha     Importer
	hae       HAEImporter
	log       *slog.Logger
	apiKey    string
	router    chi.Router
	tailscale whoIser
}

// New creates a new Server with all routes configured.
func New(svc *session.Service, db Store, alphaImporter Importer, haeImporter HAEImporter, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		db:     db,
		alpha:  alphaImporter,
		hae:    haeImporter,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches identity from the dev user to tailnet WhoIs lookups.
func (s *Server) SetTailscale(wc whoIser) {
	s.tailscale = wc
}

// MountMetrics exposes the Prometheus registry at path.
func (s *Server) MountMetrics(path string) {
	s.router.Method(http.MethodGet, path, promhttp.Handler())
}

// MountMCP serves a streamable MCP handler at /mcp behind the API key. The
// request carries the resolved identity; read it with UserID.
func (s *Server) MountMCP(h http.Handler) {
	s.router.With(APIKeyAuth(s.apiKey), s.identity).Handle("/mcp", h)
}

// identity picks the tailnet identity when Tailscale is configured, the dev
// user otherwise.
func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.tailscale == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.tailscale, s.db, s.log)(next).ServeHTTP(w, r)
	})
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)

		r.Get("/me", s.handleMe)
		r.Get("/progress", s.handleProgress)
		r.Get("/history", s.handleHistory)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Get("/exercises", s.handleExercises)
		r.Get("/rank", s.handleRankPreview)
		r.Get("/titles", s.handleTitles)
		r.Get("/goals/active", s.handleActiveGoal)
		r.Get("/stats", s.handleStats)
		r.Get("/stats/summary", s.handleTrainingSummary)
		r.Get("/import-logs", s.handleImportLogs)

		// Mutations (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/sessions", s.handleFinalizeStrength)
			r.Post("/sessions/cardio", s.handleFinalizeCardio)
			r.Put("/titles/active", s.handleEquipTitle)
			r.Put("/goals/active", s.handleSetGoal)
			r.Delete("/goals/active", s.handleClearGoal)
			r.Put("/settings", s.handleSettings)
			r.Post("/nudge", s.handleNudge)
			r.Post("/import/alpha", s.handleAlphaImport)
			r.Post("/import/hae", s.handleHAEImport)
		})
	})
}
