package zone

import "github.com/poubelles-propres/zones-cli/internal/model"

// CommuneCriteria are the loose commune-level eligibility thresholds applied
// before zone formation. They are deliberately permissive: strict business
// criteria apply at zone level after aggregation, so a weak commune can
// still lift a neighboring zone's average.
type CommuneCriteria struct {
	MinPctMaisons    float64
	MinPctResidences float64
	MinMenages       float64
}

// DefaultCommuneCriteria returns the standard commune-level thresholds.
func DefaultCommuneCriteria() CommuneCriteria {
	return CommuneCriteria{
		MinPctMaisons:    20,
		MinPctResidences: 50,
		MinMenages:       100,
	}
}

// FilterCommunes returns the subset of communes eligible for zone formation.
// An empty result is valid and propagates as zero zones downstream.
func FilterCommunes(communes []model.Commune, c CommuneCriteria) []model.Commune {
	eligible := make([]model.Commune, 0, len(communes))
	for _, cm := range communes {
		if cm.PctMaisons >= c.MinPctMaisons &&
			cm.PctResidencesPrincipales >= c.MinPctResidences &&
			cm.NbMenages >= c.MinMenages {
			eligible = append(eligible, cm)
		}
	}
	return eligible
}

// ZoneCriteria are the strict thresholds applied to aggregated zones. A zone
// average may clear a bar that individual member communes do not.
type ZoneCriteria struct {
	MinPctMaisons    float64
	MinPctResidences float64
	MinCommunes      int
}

// DefaultZoneCriteria returns the standard zone-level thresholds.
func DefaultZoneCriteria() ZoneCriteria {
	return ZoneCriteria{
		MinPctMaisons:    50,
		MinPctResidences: 70,
		MinCommunes:      2,
	}
}

// FilterZones returns the zones meeting the zone-level criteria.
func FilterZones(zones []model.Zone, c ZoneCriteria) []model.Zone {
	kept := make([]model.Zone, 0, len(zones))
	for _, z := range zones {
		if z.PctMaisons >= c.MinPctMaisons &&
			z.PctResidencesPrincipales >= c.MinPctResidences &&
			z.NbCommunes >= c.MinCommunes {
			kept = append(kept, z)
		}
	}
	return kept
}
