package zone

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/poubelles-propres/zones-cli/internal/geo"
	"github.com/poubelles-propres/zones-cli/internal/model"
)

// regionUnknown labels zones whose department falls outside the region table.
const regionUnknown = "Inconnue"

// Aggregate collapses assignments into one Zone per zone identifier. Counts
// and populations are summed, percentages and coordinates averaged, incomes
// taken as medians. Zones come back ordered by ascending zone id, and member
// communes are ordered by commune code before any "first member" field is
// read, so the output is deterministic for a given assignment set.
func Aggregate(assignments []model.Assignment) []model.Zone {
	if len(assignments) == 0 {
		return nil
	}

	groups := make(map[int][]model.Assignment)
	for _, as := range assignments {
		groups[as.ZoneID] = append(groups[as.ZoneID], as)
	}

	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	zones := make([]model.Zone, 0, len(ids))
	for _, id := range ids {
		members := groups[id]
		sort.Slice(members, func(i, j int) bool {
			return members[i].Commune.Code < members[j].Commune.Code
		})
		zones = append(zones, aggregateZone(id, members))
	}
	return zones
}

func aggregateZone(id int, members []model.Assignment) model.Zone {
	z := model.Zone{
		ZoneID:          id,
		NbCommunes:      len(members),
		CentreNom:       members[0].CentreNom,
		CodeDepartement: members[0].Commune.CodeDepartement,
	}

	names := make([]string, len(members))
	incomes := make([]float64, len(members))
	livingStandards := make([]float64, len(members))
	for i, m := range members {
		c := m.Commune
		names[i] = c.Nom
		incomes[i] = c.RevenuMedian
		livingStandards[i] = c.NiveauVieMedian

		z.Population += c.Population
		z.NbMenages += c.NbMenages
		z.NbMaisons += c.NbMaisons
		z.PctMaisons += c.PctMaisons
		z.PctResidencesPrincipales += c.PctResidencesPrincipales
		z.TauxPauvrete += c.TauxPauvrete
		z.Latitude += c.Latitude
		z.Longitude += c.Longitude
	}

	n := float64(len(members))
	z.PctMaisons /= n
	z.PctResidencesPrincipales /= n
	z.TauxPauvrete /= n
	z.Latitude /= n
	z.Longitude /= n

	z.RevenuMedian = median(incomes)
	z.NiveauVieMedian = median(livingStandards)
	z.NomCommune = formatZoneName(names)

	if region, ok := geo.RegionForDepartment(z.CodeDepartement); ok {
		z.Region = region
	} else {
		z.Region = regionUnknown
	}

	return z
}

// formatZoneName builds the readable zone label: up to three member names in
// alphabetical order, with a count suffix for the rest.
func formatZoneName(names []string) string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	if len(sorted) <= 3 {
		return strings.Join(sorted, ", ")
	}
	return fmt.Sprintf("%s +%d autres", strings.Join(sorted[:3], ", "), len(sorted)-3)
}

// median returns the middle value of vs, averaging the two middle values for
// even counts. vs is sorted in place; an empty slice yields NaN.
func median(vs []float64) float64 {
	if len(vs) == 0 {
		return math.NaN()
	}
	sort.Float64s(vs)
	m := len(vs) / 2
	if len(vs)%2 == 0 {
		return (vs[m-1] + vs[m]) / 2
	}
	return vs[m]
}
