// Package store persists run summaries so scenarios can be compared across
// invocations.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	coremetrics "github.com/kilianp07/ewsite/core/metrics"
	"github.com/kilianp07/ewsite/core/telemetry"
)

// RunRecord is one persisted run.
type RunRecord struct {
	ID        string            `json:"id"`
	Scenario  string            `json:"scenario"`
	StartedAt time.Time         `json:"started_at"`
	ElapsedMS int64             `json:"elapsed_ms"`
	Chargers  int               `json:"chargers"`
	Machines  int               `json:"machines"`
	Summary   telemetry.Summary `json:"summary"`
}

// NewRunRecord converts a run result. A missing run id is generated.
func NewRunRecord(res coremetrics.RunResult) RunRecord {
	id := res.RunID
	if id == "" {
		id = uuid.NewString()
	}
	return RunRecord{
		ID:        id,
		Scenario:  res.Scenario,
		StartedAt: res.StartedAt.UTC(),
		ElapsedMS: res.Elapsed.Milliseconds(),
		Chargers:  res.Chargers,
		Machines:  res.Machines,
		Summary:   res.Summary,
	}
}

// Query filters stored runs. Zero fields match everything. Results are
// returned oldest first; Limit keeps the most recent ones.
type Query struct {
	Scenario string
	Since    time.Time
	Until    time.Time
	Limit    int
}

func (q Query) match(r RunRecord) bool {
	if q.Scenario != "" && r.Scenario != q.Scenario {
		return false
	}
	if !q.Since.IsZero() && r.StartedAt.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && r.StartedAt.After(q.Until) {
		return false
	}
	return true
}

// RunStore persists RunRecords and supports querying.
type RunStore interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Close() error
}

// Config selects the backend.
type Config struct {
	Backend string `json:"backend"` // jsonl, sqlite or empty to disable
	Path    string `json:"path"`
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Backend {
	case "":
		return nil
	case "jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("store path is required for backend %s", c.Backend)
		}
		return nil
	}
	return fmt.Errorf("unknown store backend %q", c.Backend)
}

// Open returns the configured store, or nil when persistence is disabled.
func Open(cfg Config) (RunStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "jsonl":
		s, err := NewJSONLStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, nil
}

func limit(recs []RunRecord, n int) []RunRecord {
	if n > 0 && len(recs) > n {
		return recs[len(recs)-n:]
	}
	return recs
}
