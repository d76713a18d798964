package scorer

import (
	"math"
	"sort"

	"github.com/poubelles-propres/zones-cli/internal/config"
	"github.com/poubelles-propres/zones-cli/internal/model"
)

// Sub-factor weights and the income band anchored to the national median.
// These are fixed: only the composite weights are configurable.
const (
	housesWeight  = 0.6
	primaryWeight = 0.4

	medianIncomeWeight = 0.7
	povertyWeight      = 0.3

	incomeFloorFactor   = 0.8
	incomeCeilingFactor = 1.5
)

// Benchmarks holds national reference values computed over the full commune
// table, before any filtering. Anchoring the income band here keeps scores
// comparable between runs with different filter thresholds.
type Benchmarks struct {
	NationalMedianIncome    float64
	NationalMedianHousesPct float64
}

// ComputeBenchmarks derives the national medians from the complete commune
// table. Call it with the unfiltered table, not the surviving candidates.
func ComputeBenchmarks(communes []model.Commune) Benchmarks {
	incomes := make([]float64, len(communes))
	houses := make([]float64, len(communes))
	for i, c := range communes {
		incomes[i] = c.RevenuMedian
		houses[i] = c.PctMaisons
	}
	return Benchmarks{
		NationalMedianIncome:    median(incomes),
		NationalMedianHousesPct: median(houses),
	}
}

// Params fixes everything a scoring pass depends on besides the zones
// themselves.
type Params struct {
	Weights        config.ScoringConfig
	Benchmarks     Benchmarks
	MinHouseholds  float64
	ConversionRate float64
}

// Engine scores and ranks aggregated zones.
type Engine struct {
	params Params
}

func New(p Params) *Engine {
	return &Engine{params: p}
}

// Score computes the three factor scores, the weighted composite and the
// client projection for every zone, then returns the zones ranked by
// descending composite. Ties keep their input order, so ranking is
// deterministic. The input slice is left untouched.
func (e *Engine) Score(zones []model.Zone) []model.ScoredZone {
	if len(zones) == 0 {
		return nil
	}

	b := observeBounds(zones)

	scored := make([]model.ScoredZone, len(zones))
	for i, z := range zones {
		s := model.ScoredZone{Zone: z}
		s.ScoreHousing = e.scoreHousing(z, b)
		s.ScoreIncome = e.scoreIncome(z, b)
		s.ScoreMarketSize = e.scoreMarketSize(z, b)
		s.ScoreTotal = e.params.Weights.HousingWeight*s.ScoreHousing +
			e.params.Weights.IncomeWeight*s.ScoreIncome +
			e.params.Weights.MarketSizeWeight*s.ScoreMarketSize
		s.PotentialClients = z.NbMenages * e.params.ConversionRate
		scored[i] = s
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].ScoreTotal > scored[j].ScoreTotal
	})
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored
}

// scoreHousing rates the housing mix relative to the other zones in the
// set: detached houses carry most of the weight, primary residences the
// rest.
func (e *Engine) scoreHousing(z model.Zone, b setBounds) float64 {
	houses := Normalize(z.PctMaisons, b.minPctMaisons, b.maxPctMaisons)
	primary := Normalize(z.PctResidencesPrincipales, b.minPctRP, b.maxPctRP)
	return housesWeight*houses + primaryWeight*primary
}

// scoreIncome rates purchasing power inside a band of 80% to 150% of the
// national median income, blended with an inverted poverty rate so the
// poorest zone in the set lands at zero on that axis.
func (e *Engine) scoreIncome(z model.Zone, b setBounds) float64 {
	floor := incomeFloorFactor * e.params.Benchmarks.NationalMedianIncome
	ceiling := incomeCeilingFactor * e.params.Benchmarks.NationalMedianIncome
	income := Normalize(z.RevenuMedian, floor, ceiling)
	poverty := Normalize(-z.TauxPauvrete, -b.maxPauvrete, -b.minPauvrete)
	return medianIncomeWeight*income + povertyWeight*poverty
}

// scoreMarketSize rates household volume on a log scale, from the
// configured minimum up to the largest zone in the set. The log keeps one
// metropolis from flattening every mid-size zone to zero.
func (e *Engine) scoreMarketSize(z model.Zone, b setBounds) float64 {
	return Normalize(
		math.Log1p(z.NbMenages),
		math.Log1p(e.params.MinHouseholds),
		math.Log1p(b.maxMenages),
	)
}

// Normalize rescales value onto a 0-100 scale between lower and upper,
// clamping values outside the band. When the band is collapsed
// (lower == upper), values at or above the bound map to 100 and everything
// below it to 0.
func Normalize(value, lower, upper float64) float64 {
	if lower == upper {
		if value >= lower {
			return 100
		}
		return 0
	}
	n := (value - lower) / (upper - lower) * 100
	return math.Min(100, math.Max(0, n))
}

// setBounds are the observed extremes across the zone set, used for the
// relative factors.
type setBounds struct {
	minPctMaisons, maxPctMaisons float64
	minPctRP, maxPctRP           float64
	minPauvrete, maxPauvrete     float64
	maxMenages                   float64
}

func observeBounds(zones []model.Zone) setBounds {
	b := setBounds{
		minPctMaisons: zones[0].PctMaisons,
		maxPctMaisons: zones[0].PctMaisons,
		minPctRP:      zones[0].PctResidencesPrincipales,
		maxPctRP:      zones[0].PctResidencesPrincipales,
		minPauvrete:   zones[0].TauxPauvrete,
		maxPauvrete:   zones[0].TauxPauvrete,
		maxMenages:    zones[0].NbMenages,
	}
	for _, z := range zones[1:] {
		b.minPctMaisons = math.Min(b.minPctMaisons, z.PctMaisons)
		b.maxPctMaisons = math.Max(b.maxPctMaisons, z.PctMaisons)
		b.minPctRP = math.Min(b.minPctRP, z.PctResidencesPrincipales)
		b.maxPctRP = math.Max(b.maxPctRP, z.PctResidencesPrincipales)
		b.minPauvrete = math.Min(b.minPauvrete, z.TauxPauvrete)
		b.maxPauvrete = math.Max(b.maxPauvrete, z.TauxPauvrete)
		b.maxMenages = math.Max(b.maxMenages, z.NbMenages)
	}
	return b
}

// median returns the middle value of vs, averaging the two central values
// for even counts. It copies before sorting and returns NaN for an empty
// input.
func median(vs []float64) float64 {
	if len(vs) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
