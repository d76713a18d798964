package insee

import (
	"sort"

	"go.uber.org/zap"

	"github.com/poubelles-propres/zones-cli/internal/geo"
	"github.com/poubelles-propres/zones-cli/internal/model"
)

// ReconcileStats reports how the merge went.
type ReconcileStats struct {
	Total          int `json:"total"`
	MissingIncome  int `json:"missing_income"`
	DroppedNoCoord int `json:"dropped_no_coordinates"`
}

// Reconcile joins the parsed sources into the flat commune table, keyed on
// the housing base, which defines the commune universe. Communes absent
// from the income source get the national defaults; communes without
// coordinates are dropped, since they cannot be placed in any zone. The
// result is sorted by commune code so downstream runs are deterministic.
func Reconcile(housing []HousingRecord, income map[string]IncomeRecord, coords map[string]geo.Point) ([]model.Commune, ReconcileStats) {
	stats := ReconcileStats{Total: len(housing)}

	communes := make([]model.Commune, 0, len(housing))
	for _, h := range housing {
		point, ok := coords[h.Code]
		if !ok {
			stats.DroppedNoCoord++
			continue
		}

		inc, ok := income[h.Code]
		if !ok {
			stats.MissingIncome++
			inc = IncomeRecord{
				RevenuMedian:    DefaultRevenuMedian,
				NiveauVieMedian: DefaultRevenuMedian * NiveauVieFactor,
				TauxPauvrete:    DefaultTauxPauvrete,
			}
		}

		logements := h.Logements
		if logements <= 0 {
			logements = 1
		}

		communes = append(communes, model.Commune{
			Code:                     h.Code,
			Nom:                      h.Nom,
			Latitude:                 point.Lat,
			Longitude:                point.Lon,
			Population:               h.Population,
			NbMenages:                h.Menages,
			NbMaisons:                h.Maisons,
			PctMaisons:               clampPct(h.Maisons / logements * 100),
			PctResidencesPrincipales: clampPct(h.Residences / logements * 100),
			RevenuMedian:             inc.RevenuMedian,
			NiveauVieMedian:          inc.NiveauVieMedian,
			TauxPauvrete:             inc.TauxPauvrete,
			CodeDepartement:          DepartmentFromCode(h.Code),
		})
	}

	sort.Slice(communes, func(i, j int) bool {
		return communes[i].Code < communes[j].Code
	})

	if stats.DroppedNoCoord > 0 || stats.MissingIncome > 0 {
		zap.L().Warn("insee: reconciliation gaps",
			zap.Int("dropped_no_coordinates", stats.DroppedNoCoord),
			zap.Int("missing_income", stats.MissingIncome),
		)
	}
	zap.L().Info("insee: commune table reconciled",
		zap.Int("communes", len(communes)),
		zap.Int("source_rows", stats.Total),
	)
	return communes, stats
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
