package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

const recentWorkoutsLimit = 20

var resProgress = mcp.NewResource(
	"ironrank://progress",
	"Progress",
	mcp.WithResourceDescription("Current level, EXP, streak, equipped title and unlocked titles"),
	mcp.WithMIMEType("application/json"),
)

var resRecentWorkouts = mcp.NewResource(
	"ironrank://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("The 20 most recent finalized sessions with EXP earned"),
	mcp.WithMIMEType("application/json"),
)

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) progressResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	v, err := h.ds.Progress(ctx, uid)
	if err != nil {
		return nil, err
	}

	goal, err := h.ds.ActiveGoal(ctx, uid)
	if err != nil {
		h.log.Warn("progress resource: goal query failed", "error", err)
	}

	return jsonResource(req.Params.URI, map[string]any{
		"progress":     v.Progress,
		"level":        v.Level,
		"multiplier":   v.Multiplier,
		"active_title": v.ActiveTitle,
		"active_goal":  goal,
	})
}

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	records, err := h.ds.History(ctx, UserIDFromContext(ctx), recentWorkoutsLimit)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, records)
}
