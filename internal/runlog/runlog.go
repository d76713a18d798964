// Package runlog records analysis run history. Every analyze invocation
// passes through a Recorder, which owns the running -> complete/failed
// transition and writes the final zone snapshot. History is metadata
// (parameters, stage counts, timing) and is never read back as input to a
// later run.
package runlog

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/poubelles-propres/zones-cli/internal/model"
	"github.com/poubelles-propres/zones-cli/internal/store"
)

// Recorder writes run history through a Store.
type Recorder struct {
	store store.Store
}

// New creates a Recorder backed by the given store.
func New(st store.Store) *Recorder {
	return &Recorder{store: st}
}

// Begin opens a run in the running state and returns it.
func (r *Recorder) Begin(ctx context.Context, params model.RunParams) (*model.Run, error) {
	run, err := r.store.CreateRun(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: begin run")
	}
	zap.L().Info("analysis run started",
		zap.String("run_id", run.ID),
		zap.Float64("max_radius_km", params.MaxRadiusKm),
		zap.Float64("min_households", params.MinHouseholds),
		zap.Float64("conversion_rate", params.ConversionRate),
	)
	return run, nil
}

// Complete stores the final zone snapshot and marks the run complete.
func (r *Recorder) Complete(ctx context.Context, run *model.Run, stats model.RunStats, zones []model.ScoredZone) error {
	if err := r.store.CompleteRun(ctx, run.ID, stats, zones); err != nil {
		return eris.Wrapf(err, "runlog: complete run %s", run.ID)
	}
	zap.L().Info("analysis run complete",
		zap.String("run_id", run.ID),
		zap.Int("zones", len(zones)),
		zap.Int("total_communes", stats.TotalCommunes),
		zap.Int("eligible_communes", stats.EligibleCommunes),
		zap.Int64("duration_ms", time.Since(run.CreatedAt).Milliseconds()),
	)
	return nil
}

// Fail marks the run failed. The cause lands in the run record; the
// returned error only reports a failure to write the record itself.
func (r *Recorder) Fail(ctx context.Context, run *model.Run, cause error) error {
	if err := r.store.FailRun(ctx, run.ID, cause); err != nil {
		return eris.Wrapf(err, "runlog: fail run %s", run.ID)
	}
	zap.L().Warn("analysis run failed",
		zap.String("run_id", run.ID),
		zap.Error(cause),
		zap.Int64("duration_ms", time.Since(run.CreatedAt).Milliseconds()),
	)
	return nil
}

// List returns run history, newest first.
func (r *Recorder) List(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	runs, err := r.store.ListRuns(ctx, filter)
	return runs, eris.Wrap(err, "runlog: list runs")
}

// Summary describes the store contents for the status command.
type Summary struct {
	Communes int
	Latest   *model.Run
}

// Status reports the commune table size and the most recent completed run.
// Latest is nil when no run has completed yet.
func (r *Recorder) Status(ctx context.Context) (*Summary, error) {
	count, err := r.store.CountCommunes(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: count communes")
	}
	latest, err := r.store.LatestRun(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: latest run")
	}
	return &Summary{Communes: count, Latest: latest}, nil
}
