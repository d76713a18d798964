package model

import "time"

// RunStatus tracks the lifecycle of an analysis run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunParams records the knobs a run was executed with, so any ranking can
// be traced back to its exact thresholds and weights.
type RunParams struct {
	MaxRadiusKm         float64 `json:"max_radius_km"`
	MinHouseholds       float64 `json:"min_households"`
	MinPctMaisons       float64 `json:"min_pct_maisons"`
	MinIncomePercentile float64 `json:"min_income_percentile"`
	ConversionRate      float64 `json:"conversion_rate"`
	HousingWeight       float64 `json:"housing_weight"`
	IncomeWeight        float64 `json:"income_weight"`
	MarketSizeWeight    float64 `json:"market_size_weight"`
}

// RunStats counts what each analysis stage kept.
type RunStats struct {
	TotalCommunes    int `json:"total_communes"`
	EligibleCommunes int `json:"eligible_communes"`
	Centers          int `json:"centers"`
	AssignedCommunes int `json:"assigned_communes"`
	AggregatedZones  int `json:"aggregated_zones"`
	QualifiedZones   int `json:"qualified_zones"`
}

// Run is one recorded analysis run. Zones are stored separately, keyed by
// the run ID; ZoneCount is denormalized here for listings.
type Run struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	Params    RunParams `json:"params"`
	Stats     *RunStats `json:"stats,omitempty"`
	Error     string    `json:"error,omitempty"`
	ZoneCount int       `json:"zone_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
