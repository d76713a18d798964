// Package analyzer chains the five analysis stages: commune filtering,
// center selection, zone assignment, aggregation and scoring. Each run is
// self-contained; nothing is shared between runs except the immutable
// commune table the Analyzer was built with.
package analyzer

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/poubelles-propres/zones-cli/internal/config"
	"github.com/poubelles-propres/zones-cli/internal/model"
	"github.com/poubelles-propres/zones-cli/internal/scorer"
	"github.com/poubelles-propres/zones-cli/internal/zone"
)

// Result is the outcome of one analysis run.
type Result struct {
	Zones      []model.ScoredZone
	Stats      model.RunStats
	Benchmarks scorer.Benchmarks
}

// Analyzer runs the analysis pipeline over a fixed commune table.
type Analyzer struct {
	communes      []model.Commune
	cfg           config.AnalysisConfig
	benchmarks    scorer.Benchmarks
	engine        *scorer.Engine
	progress      zone.ProgressFunc
	progressEvery int
}

type Option func(*Analyzer)

// WithProgress forwards assignment progress to fn every n communes.
func WithProgress(fn zone.ProgressFunc, n int) Option {
	return func(a *Analyzer) {
		a.progress = fn
		a.progressEvery = n
	}
}

// New builds an Analyzer over the full commune table. National benchmarks
// are computed here, before any filtering, so scoring anchors do not move
// when thresholds change.
func New(communes []model.Commune, analysis config.AnalysisConfig, weights config.ScoringConfig, opts ...Option) *Analyzer {
	a := &Analyzer{
		communes:   communes,
		cfg:        analysis,
		benchmarks: scorer.ComputeBenchmarks(communes),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.engine = scorer.New(scorer.Params{
		Weights:        weights,
		Benchmarks:     a.benchmarks,
		MinHouseholds:  analysis.MinHouseholds,
		ConversionRate: analysis.ConversionRate,
	})
	return a
}

// Run executes the pipeline and returns the ranked zones. An input that
// yields no qualified zones is a valid empty result, not an error; the only
// error paths are cancellation and internal assignment failures.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := zap.L().With(zap.Int("communes", len(a.communes)))
	log.Info("analyzer: starting run",
		zap.Float64("max_radius_km", a.cfg.MaxRadiusKm),
		zap.Float64("min_households", a.cfg.MinHouseholds),
	)

	result := &Result{Benchmarks: a.benchmarks}
	result.Stats.TotalCommunes = len(a.communes)

	criteria := zone.DefaultCommuneCriteria()
	if a.cfg.MinPctMaisons > 0 {
		criteria.MinPctMaisons = a.cfg.MinPctMaisons
	}
	eligible := zone.FilterCommunes(a.communes, criteria)
	result.Stats.EligibleCommunes = len(eligible)
	result.Stats.Centers = len(zone.SelectCenters(eligible))
	log.Info("analyzer: communes filtered",
		zap.Int("eligible", len(eligible)),
		zap.Int("centers", result.Stats.Centers),
	)

	assignerOpts := []zone.Option{
		zone.WithMaxRadiusKm(a.cfg.MaxRadiusKm),
		zone.WithWorkers(a.cfg.Workers),
	}
	if a.progress != nil {
		assignerOpts = append(assignerOpts, zone.WithProgress(a.progress, a.progressEvery))
	}
	assignments, err := zone.NewAssigner(assignerOpts...).Assign(ctx, eligible)
	if err != nil {
		return nil, eris.Wrap(err, "analyzer: assign communes")
	}
	result.Stats.AssignedCommunes = len(assignments)
	log.Info("analyzer: communes assigned", zap.Int("assigned", len(assignments)))

	zones := zone.Aggregate(assignments)
	result.Stats.AggregatedZones = len(zones)

	qualified := zone.FilterZones(zones, zone.DefaultZoneCriteria())
	if a.cfg.MinIncomePercentile > 0 {
		qualified = filterByIncomePercentile(qualified, a.cfg.MinIncomePercentile)
	}
	result.Stats.QualifiedZones = len(qualified)
	log.Info("analyzer: zones qualified",
		zap.Int("aggregated", len(zones)),
		zap.Int("qualified", len(qualified)),
	)

	result.Zones = a.engine.Score(qualified)
	if len(result.Zones) == 0 {
		log.Warn("analyzer: no zones qualified, result is empty")
	}

	log.Info("analyzer: run complete",
		zap.Int("zones", len(result.Zones)),
		zap.Float64("national_median_income", a.benchmarks.NationalMedianIncome),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return result, nil
}

// filterByIncomePercentile drops zones whose median income sits below the
// pth percentile of the qualified set. Off by default; enabled through
// analysis.min_income_percentile.
func filterByIncomePercentile(zones []model.Zone, p float64) []model.Zone {
	if len(zones) == 0 {
		return zones
	}
	threshold := incomePercentile(zones, p)
	kept := make([]model.Zone, 0, len(zones))
	for _, z := range zones {
		if z.RevenuMedian >= threshold {
			kept = append(kept, z)
		}
	}
	return kept
}

// incomePercentile computes the pth percentile of zone median incomes with
// linear interpolation between closest ranks.
func incomePercentile(zones []model.Zone, p float64) float64 {
	values := make([]float64, len(zones))
	for i, z := range zones {
		values[i] = z.RevenuMedian
	}
	sort.Float64s(values)

	if len(values) == 1 {
		return values[0]
	}
	rank := p / 100 * float64(len(values)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return values[lo]
	}
	frac := rank - float64(lo)
	return values[lo] + frac*(values[hi]-values[lo])
}
