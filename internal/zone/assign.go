// Package zone forms candidate franchise zones from the reconciled commune
// table: eligibility filtering, nearest-center assignment, zone-level
// aggregation and filtering.
package zone

import (
	"context"
	"runtime"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/poubelles-propres/zones-cli/internal/geo"
	"github.com/poubelles-propres/zones-cli/internal/model"
)

const (
	// minCenterPopulation qualifies a commune as a zone center.
	minCenterPopulation = 1000

	// fallbackCenterCount caps the population-ranked fallback when no
	// commune reaches minCenterPopulation.
	fallbackCenterCount = 100

	// DefaultMaxRadiusKm bounds the commune-to-center distance.
	DefaultMaxRadiusKm = 15
)

// ProgressFunc receives best-effort progress during assignment. When the
// assigner runs with more than one worker it may be invoked concurrently.
type ProgressFunc func(done, total int)

// Assigner maps eligible communes onto their nearest zone center.
type Assigner struct {
	maxRadiusKm   float64
	workers       int
	progress      ProgressFunc
	progressEvery int
}

// Option configures an Assigner.
type Option func(*Assigner)

// WithMaxRadiusKm overrides the default assignment radius.
func WithMaxRadiusKm(km float64) Option {
	return func(a *Assigner) { a.maxRadiusKm = km }
}

// WithWorkers sets the number of concurrent assignment workers.
func WithWorkers(n int) Option {
	return func(a *Assigner) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithProgress installs a progress callback invoked every n communes.
func WithProgress(fn ProgressFunc, n int) Option {
	return func(a *Assigner) {
		a.progress = fn
		if n > 0 {
			a.progressEvery = n
		}
	}
}

// NewAssigner builds an Assigner with the default radius and one worker per
// CPU.
func NewAssigner(opts ...Option) *Assigner {
	a := &Assigner{
		maxRadiusKm:   DefaultMaxRadiusKm,
		workers:       runtime.GOMAXPROCS(0),
		progressEvery: 100,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SelectCenters picks the zone centers from the eligible communes: every
// commune at or above minCenterPopulation, or the fallbackCenterCount most
// populous communes when none qualify. The returned order is deterministic;
// a center's position in it becomes the zone identifier.
func SelectCenters(eligible []model.Commune) []model.Commune {
	centers := make([]model.Commune, 0, len(eligible))
	for _, c := range eligible {
		if c.Population >= minCenterPopulation {
			centers = append(centers, c)
		}
	}
	if len(centers) > 0 {
		return centers
	}

	// No commune reaches the population bar. Rank everything by population
	// and keep the top of the list, preserving input order on ties.
	ranked := make([]model.Commune, len(eligible))
	copy(ranked, eligible)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Population > ranked[j].Population
	})
	if len(ranked) > fallbackCenterCount {
		ranked = ranked[:fallbackCenterCount]
	}
	return ranked
}

// Assign maps every eligible commune to the zone of its nearest center, as
// long as that center lies within the configured radius. Communes beyond the
// radius are dropped. Centers participate as ordinary communes and land in
// their own zone at distance zero. The result preserves the input order of
// eligible and is identical regardless of worker count.
func (a *Assigner) Assign(ctx context.Context, eligible []model.Commune) ([]model.Assignment, error) {
	centers := SelectCenters(eligible)
	if len(centers) == 0 {
		return nil, nil
	}

	centerPoints := make([]geo.Point, len(centers))
	for i, c := range centers {
		centerPoints[i] = geo.Point{Lat: c.Latitude, Lon: c.Longitude}
	}

	type slot struct {
		assignment model.Assignment
		ok         bool
	}

	total := len(eligible)
	slots := make([]slot, total)

	var done atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	const chunkSize = 256
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gCtx.Err(); err != nil {
					return err
				}

				c := eligible[i]
				idx, km := geo.Nearest(geo.Point{Lat: c.Latitude, Lon: c.Longitude}, centerPoints)
				if idx >= 0 && km <= a.maxRadiusKm {
					slots[i] = slot{
						assignment: model.Assignment{
							Commune:    c,
							ZoneID:     idx,
							DistanceKm: km,
							CentreNom:  centers[idx].Nom,
						},
						ok: true,
					}
				}

				if n := done.Add(1); a.progress != nil && n%int64(a.progressEvery) == 0 {
					a.progress(int(n), total)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if a.progress != nil && total > 0 && total%a.progressEvery != 0 {
		a.progress(total, total)
	}

	assignments := make([]model.Assignment, 0, total)
	for _, s := range slots {
		if s.ok {
			assignments = append(assignments, s.assignment)
		}
	}
	return assignments, nil
}
