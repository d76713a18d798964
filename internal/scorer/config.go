// Package scorer turns aggregated zones into ranked franchise candidates.
// Every factor is normalized to a 0-100 scale before weighting so the
// composite stays comparable across runs with different filter settings.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/poubelles-propres/zones-cli/internal/config"
)

// weightTolerance is how far the composite weights may drift from 1.0
// before validation rejects them. Generous enough for hand-edited YAML.
const weightTolerance = 0.01

// DefaultConfig returns the standard composite weights: housing quality
// dominates, income and market size split the remainder.
func DefaultConfig() config.ScoringConfig {
	return config.ScoringConfig{
		HousingWeight:    0.40,
		IncomeWeight:     0.30,
		MarketSizeWeight: 0.30,
	}
}

// WeightSum reports the sum of the composite weights.
func WeightSum(c config.ScoringConfig) float64 {
	return c.HousingWeight + c.IncomeWeight + c.MarketSizeWeight
}

// ValidateConfig checks that the weights form a usable convex combination.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	for _, w := range []struct {
		name  string
		value float64
	}{
		{"housing_weight", c.HousingWeight},
		{"income_weight", c.IncomeWeight},
		{"market_size_weight", c.MarketSizeWeight},
	} {
		if w.value < 0 {
			errs = append(errs, fmt.Sprintf("%s must not be negative, got %g", w.name, w.value))
		}
	}

	if sum := WeightSum(c); math.Abs(sum-1.0) > weightTolerance {
		errs = append(errs, fmt.Sprintf("weights must sum to 1.0, got %g", sum))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}
