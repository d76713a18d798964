// Package store persists the reconciled commune table, analysis run
// records and per-run scored zone snapshots. Two backends implement the
// same interface: a zero-config SQLite file for local use and Postgres for
// shared deployments.
package store

import (
	"context"

	"github.com/poubelles-propres/zones-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// ZoneFilter narrows zone listings from one run's snapshot. RunID is
// required; a zero Limit returns every zone of the run so exports stay
// lossless.
type ZoneFilter struct {
	RunID      string  `json:"run_id"`
	MinScore   float64 `json:"min_score,omitempty"`
	Department string  `json:"department,omitempty"`
	Limit      int     `json:"limit,omitempty"`
	Offset     int     `json:"offset,omitempty"`
}

// Store defines the persistence interface for the zone analysis pipeline.
// Zone snapshots are written once when a run completes and are never read
// back as input to a later run.
type Store interface {
	// Communes
	ReplaceCommunes(ctx context.Context, communes []model.Commune) (int64, error)
	LoadCommunes(ctx context.Context) ([]model.Commune, error)
	CountCommunes(ctx context.Context) (int, error)

	// Runs
	CreateRun(ctx context.Context, params model.RunParams) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, stats model.RunStats, zones []model.ScoredZone) error
	FailRun(ctx context.Context, runID string, cause error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	LatestRun(ctx context.Context) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Zone snapshots
	ListZones(ctx context.Context, filter ZoneFilter) ([]model.ScoredZone, error)
	GetZone(ctx context.Context, runID string, zoneID int) (*model.ScoredZone, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
