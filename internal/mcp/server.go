package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
)

type userKey struct{}

// WithUserID scopes every tool call made under ctx to userID. The HTTP
// transport sets it from the identity middleware, stdio from a flag.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserIDFromContext returns the user set by WithUserID, or the seeded user 1.
func UserIDFromContext(ctx context.Context) int {
	id, ok := ctx.Value(userKey{}).(int)
	if !ok {
		return 1
	}
	return id
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("IronRank", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("IronRank training progression server. Query level, EXP, streak, exercise ranks, titles and workout history. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
		server.ServerTool{Tool: toolGetHistory, Handler: h.getHistory},
		server.ServerTool{Tool: toolGetExerciseRanks, Handler: h.getExerciseRanks},
		server.ServerTool{Tool: toolPreviewRank, Handler: h.previewRank},
		server.ServerTool{Tool: toolListTitles, Handler: h.listTitles},
		server.ServerTool{Tool: toolGetActiveGoal, Handler: h.getActiveGoal},
		server.ServerTool{Tool: toolGetTrainingSummary, Handler: h.getTrainingSummary},
	)

	s.AddResources(
		server.ServerResource{Resource: resProgress, Handler: h.progressResource},
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
	)

	return s
}

type handlers struct {
	ds  DataSource
	log *slog.Logger
}
