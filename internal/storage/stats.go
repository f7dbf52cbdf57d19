package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds lifetime aggregates over a user's workout records.
type DataStats struct {
	TotalSessions      int64             `json:"total_sessions"`
	CardioSessions     int64             `json:"cardio_sessions"`
	TotalVolume        float64           `json:"total_volume"`
	TotalCardioSeconds int64             `json:"total_cardio_seconds"`
	TotalExp           int64             `json:"total_exp"`
	EarliestSession    *time.Time        `json:"earliest_session"`
	LatestSession      *time.Time        `json:"latest_session"`
	SessionsByTopLift  []TopExerciseStat `json:"sessions_by_top_exercise"`
}

// TopExerciseStat counts the sessions an exercise was the heaviest lift of.
type TopExerciseStat struct {
	Name      string  `json:"name"`
	Count     int64   `json:"count"`
	MaxWeight float64 `json:"max_weight"`
}

// GetDataStats returns aggregate statistics for a user's records.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE top_weight = 0 AND total_time_under_tension > 0),
		        COALESCE(SUM(total_volume), 0),
		        COALESCE(SUM(total_time_under_tension) FILTER (WHERE top_weight = 0), 0),
		        COALESCE(SUM(exp_earned), 0),
		        MIN(date), MAX(date)
		 FROM workout_records WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSessions, &stats.CardioSessions, &stats.TotalVolume,
		&stats.TotalCardioSeconds, &stats.TotalExp, &stats.EarliestSession, &stats.LatestSession)
	if err != nil {
		return nil, fmt.Errorf("querying record totals: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT top_exercise_name, COUNT(*), MAX(top_weight)
		 FROM workout_records
		 WHERE user_id = $1 AND top_weight > 0
		 GROUP BY top_exercise_name
		 ORDER BY COUNT(*) DESC, top_exercise_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying top exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s TopExerciseStat
		if err := rows.Scan(&s.Name, &s.Count, &s.MaxWeight); err != nil {
			return nil, fmt.Errorf("scanning top exercise stat: %w", err)
		}
		stats.SessionsByTopLift = append(stats.SessionsByTopLift, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// TrainingSummaryPeriod aggregates the sessions of one period.
type TrainingSummaryPeriod struct {
	Period         string  `json:"period"`
	Sessions       int     `json:"sessions"`
	CardioSessions int     `json:"cardio_sessions"`
	TonnageKg      float64 `json:"tonnage_kg"`
	CardioSeconds  int     `json:"cardio_seconds"`
	ExpEarned      int     `json:"exp_earned"`
	AvgExp         float64 `json:"avg_exp_per_session"`
}

// GetTrainingSummary returns per-period totals between start and end, newest
// period first. Periods are truncated in the given zone.
func (db *DB) GetTrainingSummary(ctx context.Context, start, end time.Time, bucket string, loc *time.Location, userID int) ([]TrainingSummaryPeriod, error) {
	if loc == nil {
		loc = time.UTC
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, date AT TIME ZONE $2)::date AS period,
		        COUNT(*)::int,
		        (COUNT(*) FILTER (WHERE top_weight = 0 AND total_time_under_tension > 0))::int,
		        COALESCE(SUM(total_volume), 0),
		        (COALESCE(SUM(total_time_under_tension) FILTER (WHERE top_weight = 0), 0))::int,
		        COALESCE(SUM(exp_earned), 0)::int
		 FROM workout_records
		 WHERE date >= $3 AND date < $4 AND user_id = $5
		 GROUP BY period
		 ORDER BY period DESC`,
		truncInterval(bucket), loc.String(), start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying training summary: %w", err)
	}
	defer rows.Close()

	result := []TrainingSummaryPeriod{}
	for rows.Next() {
		var periodTime time.Time
		var p TrainingSummaryPeriod
		if err := rows.Scan(&periodTime, &p.Sessions, &p.CardioSessions, &p.TonnageKg, &p.CardioSeconds, &p.ExpEarned); err != nil {
			return nil, fmt.Errorf("scanning training summary: %w", err)
		}
		p.Period = periodTime.Format("2006-01-02")
		if p.Sessions > 0 {
			p.AvgExp = float64(p.ExpEarned) / float64(p.Sessions)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// truncInterval converts bucket names to the interval date_trunc expects.
// Unknown buckets fall back to weeks.
func truncInterval(bucket string) string {
	switch bucket {
	case "day", "1 day":
		return "day"
	case "month", "1 month":
		return "month"
	default:
		return "week"
	}
}
