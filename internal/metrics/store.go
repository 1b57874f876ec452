package metrics

import (
	"context"
	"database/sql"
	"time"
)

// SyncMetric records metadata for a single sync operation (save, load,
// delete, or meal fetch).
type SyncMetric struct {
	Operation    string
	Success      bool
	DurationMS   int64
	PayloadBytes int
	Timestamp    time.Time
}

// Store handles persistence of sync metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(m SyncMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO sync_metrics (operation, success, duration_ms, payload_bytes, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		m.Operation, m.Success, m.DurationMS, m.PayloadBytes, ts)
	return err
}

// RecordSync implements the coordinator's Recorder port.
func (s *Store) RecordSync(operation string, success bool, duration time.Duration, payloadBytes int) {
	// Metrics are best-effort; a failed insert must never surface on the
	// sync path.
	_ = s.Record(SyncMetric{
		Operation:    operation,
		Success:      success,
		DurationMS:   duration.Milliseconds(),
		PayloadBytes: payloadBytes,
	})
}

// DailyActivity represents sync operation totals for a single day.
type DailyActivity struct {
	Date       string
	Operations int
	Failures   int
	TotalBytes int
}

// GetDailyActivity retrieves sync activity for the last N days.
func (s *Store) GetDailyActivity(days int) ([]DailyActivity, error) {
	since := time.Now().AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT date(timestamp) AS day,
		        COUNT(*),
		        SUM(CASE WHEN success THEN 0 ELSE 1 END),
		        COALESCE(SUM(payload_bytes), 0)
		 FROM sync_metrics
		 WHERE timestamp >= ?
		 GROUP BY day
		 ORDER BY day DESC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DailyActivity
	for rows.Next() {
		var a DailyActivity
		if err := rows.Scan(&a.Date, &a.Operations, &a.Failures, &a.TotalBytes); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days.
func (s *Store) Cleanup(olderThanDays int) error {
	threshold := time.Now().AddDate(0, 0, -olderThanDays)
	_, err := s.db.ExecContext(context.Background(),
		`DELETE FROM sync_metrics WHERE timestamp < ?`, threshold)
	return err
}
