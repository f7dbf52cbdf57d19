package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/ironrank/internal/catalog"
	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/session"
)

// defaultTimeRange returns start/end, defaulting to the given number of days
// before end.
func defaultTimeRange(startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// --- Tool definitions ---

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Current progression: total EXP, level with progress to the next level, daily streak and its EXP multiplier, workout and PR counts, equipped title."),
)

var toolGetHistory = mcp.NewTool("get_history",
	mcp.WithDescription("Finalized workout sessions, newest first. Each record has volume, top lift, time under tension and EXP earned."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions. Defaults to 20."), mcp.Min(1), mcp.Max(500)),
)

var toolGetExerciseRanks = mcp.NewTool("get_exercise_ranks",
	mcp.WithDescription("Rank card (1-20, with name and tier) for every exercise, computed from the user's best recorded attempt, plus the score needed for the next rank."),
	mcp.WithString("muscle_group", mcp.Description("Filter by muscle group"),
		mcp.Enum("chest", "back", "legs", "shoulders", "arms", "abs", "core", "grip", "full_body", "cardio")),
	mcp.WithString("query", mcp.Description("Filter by exercise name (partial match, e.g. 'press')")),
)

var toolPreviewRank = mcp.NewTool("preview_rank",
	mcp.WithDescription("Rank a hypothetical attempt without recording anything, e.g. 'what rank would 100 kg x 5 on bench be?'."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name or alias (e.g. 'Bench Press', 'OHP')")),
	mcp.WithNumber("weight", mcp.Description("Weight in kg")),
	mcp.WithNumber("reps", mcp.Description("Repetitions")),
	mcp.WithNumber("seconds", mcp.Description("Duration in seconds for timed exercises")),
)

var toolListTitles = mcp.NewTool("list_titles",
	mcp.WithDescription("The title catalog with unlock requirements, which titles the user has unlocked and when, and which one is equipped."),
	mcp.WithBoolean("unlocked_only", mcp.Description("Only return unlocked titles. Defaults to false.")),
)

var toolGetActiveGoal = mcp.NewTool("get_active_goal",
	mcp.WithDescription("The user's active goal: its exercises earn a one-time bonus per session when their weight beats the all-time best."),
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Sessions, tonnage, cardio time and EXP aggregated per period."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 6 months ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to '1 week'."), mcp.Enum("1 day", "1 week", "1 month")),
)

// --- Tool handlers ---

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgress(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.ds.Progress(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(v)
}

func (h *handlers) getHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}
	records, err := h.ds.History(ctx, UserIDFromContext(ctx), min(limit, 500))
	if err != nil {
		h.log.Error("mcp get_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(records)
}

func (h *handlers) getExerciseRanks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := catalog.Filter{
		MuscleGroup: models.MuscleGroup(req.GetString("muscle_group", "")),
		Query:       req.GetString("query", ""),
	}
	if f.MuscleGroup != "" && !f.MuscleGroup.Valid() {
		return mcp.NewToolResultError("unknown muscle_group " + string(f.MuscleGroup)), nil
	}
	cards, err := h.ds.ExerciseRanks(ctx, UserIDFromContext(ctx), f)
	if err != nil {
		h.log.Error("mcp get_exercise_ranks", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(cards)
}

func (h *handlers) previewRank(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	set := models.WorkoutSet{
		Weight:  req.GetFloat("weight", 0),
		Reps:    req.GetInt("reps", 0),
		Seconds: req.GetInt("seconds", 0),
	}
	card, err := h.ds.RankPreview(ctx, exercise, set)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(card)
}

func (h *handlers) listTitles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	titles, err := h.ds.Titles(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp list_titles", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if req.GetBool("unlocked_only", false) {
		unlocked := make([]session.TitleView, 0, len(titles))
		for _, t := range titles {
			if t.Unlocked {
				unlocked = append(unlocked, t)
			}
		}
		titles = unlocked
	}
	return jsonResult(titles)
}

func (h *handlers) getActiveGoal(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, err := h.ds.ActiveGoal(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_active_goal", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if g == nil {
		return mcp.NewToolResultText("No active goal."), nil
	}
	return jsonResult(g)
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), 182)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	bucket := req.GetString("bucket", "1 week")

	periods, err := h.ds.TrainingSummary(ctx, start, end, bucket, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_training_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(periods)
}
