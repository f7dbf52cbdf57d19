package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/ironrank/internal/catalog"
	"github.com/claude/ironrank/internal/models"
	"github.com/claude/ironrank/internal/session"
	"github.com/claude/ironrank/internal/storage"
)

// HTTPClient implements DataSource by calling the IronRank REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// bucketToAgg maps MCP bucket values to REST API agg parameter values.
func bucketToAgg(bucket string) string {
	switch bucket {
	case "1 day":
		return "daily"
	case "1 month":
		return "monthly"
	default:
		return "weekly"
	}
}

// errNoContent marks 204 and 404 responses for endpoints where absence is a
// valid answer.
var errNoContent = errors.New("httpclient: no content")

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		return errNoContent
	default:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) Progress(ctx context.Context, _ int) (*session.ProgressView, error) {
	var v session.ProgressView
	if err := c.get(ctx, "/api/v1/progress", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *HTTPClient) History(ctx context.Context, _ int, limit int) ([]models.WorkoutRecord, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var records []models.WorkoutRecord
	if err := c.get(ctx, "/api/v1/history", params, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *HTTPClient) ExerciseRanks(ctx context.Context, _ int, f catalog.Filter) ([]session.RankCard, error) {
	params := url.Values{}
	if f.MuscleGroup != "" {
		params.Set("muscle_group", string(f.MuscleGroup))
	}
	if f.Query != "" {
		params.Set("q", f.Query)
	}
	var cards []session.RankCard
	if err := c.get(ctx, "/api/v1/exercises", params, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (c *HTTPClient) RankPreview(ctx context.Context, exercise string, set models.WorkoutSet) (session.RankCard, error) {
	params := url.Values{}
	params.Set("exercise", exercise)
	params.Set("weight", strconv.FormatFloat(set.Weight, 'f', -1, 64))
	params.Set("reps", strconv.Itoa(set.Reps))
	params.Set("seconds", strconv.Itoa(set.Seconds))
	var card session.RankCard
	if err := c.get(ctx, "/api/v1/rank", params, &card); err != nil {
		return session.RankCard{}, err
	}
	return card, nil
}

func (c *HTTPClient) Titles(ctx context.Context, _ int) ([]session.TitleView, error) {
	var titles []session.TitleView
	if err := c.get(ctx, "/api/v1/titles", nil, &titles); err != nil {
		return nil, err
	}
	return titles, nil
}

func (c *HTTPClient) ActiveGoal(ctx context.Context, _ int) (*models.Goal, error) {
	var g models.Goal
	err := c.get(ctx, "/api/v1/goals/active", nil, &g)
	if errors.Is(err, errNoContent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *HTTPClient) TrainingSummary(ctx context.Context, start, end time.Time, bucket string, _ int) ([]storage.TrainingSummaryPeriod, error) {
	params := url.Values{}
	params.Set("start", start.Format(time.RFC3339))
	params.Set("end", end.Format(time.RFC3339))
	params.Set("agg", bucketToAgg(bucket))
	var periods []storage.TrainingSummaryPeriod
	if err := c.get(ctx, "/api/v1/stats/summary", params, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}
