// Package cache is the local SQLite fallback for the user plan: written
// best-effort on every successful sync and on unload, read back when the
// remote store is empty or unreachable.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"grocery-planner/internal/syncer"
)

// PlanCache stores the single cached plan row.
type PlanCache struct {
	db *sql.DB
}

// NewPlanCache creates a plan cache on an existing database connection.
func NewPlanCache(db *sql.DB) *PlanCache {
	return &PlanCache{db: db}
}

// Put upserts the cached plan payload.
func (c *PlanCache) Put(ctx context.Context, data syncer.PlanData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal plan payload: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO plan_cache (id, payload, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write plan cache: %w", err)
	}
	return nil
}

// Get returns the cached plan and when it was written, or (nil, zero, nil)
// when the cache is empty.
func (c *PlanCache) Get(ctx context.Context) (*syncer.PlanData, time.Time, error) {
	var payload string
	var savedAt time.Time
	err := c.db.QueryRowContext(ctx,
		`SELECT payload, saved_at FROM plan_cache WHERE id = 1`).Scan(&payload, &savedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, fmt.Errorf("failed to read plan cache: %w", err)
	}

	var data syncer.PlanData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal cached plan: %w", err)
	}
	return &data, savedAt, nil
}

// Clear removes the cached plan.
func (c *PlanCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM plan_cache WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear plan cache: %w", err)
	}
	return nil
}
