// Package export serializes a ranked zone table for the consumers
// downstream of analysis: CSV for spreadsheets, GeoJSON for maps, XLSX
// for the expansion team's workbooks. All writers emit the same canonical
// column order.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/poubelles-propres/zones-cli/internal/model"
)

// Columns is the canonical export order. Every writer and the API's CSV
// endpoint follow it.
var Columns = []string{
	"rank", "zone_id", "nom_commune", "region", "code_departement",
	"nb_communes", "nb_menages", "population_totale", "potential_clients",
	"pct_maisons", "pct_residences_principales", "revenu_median",
	"score_housing", "score_income", "score_market_size", "score_total",
	"latitude", "longitude",
}

// WriteCSV writes the ranked zone table as RFC 4180 CSV with a header row.
func WriteCSV(w io.Writer, zones []model.ScoredZone) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, z := range zones {
		if err := cw.Write(record(z)); err != nil {
			return eris.Wrapf(err, "export: write csv row for zone %d", z.ZoneID)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

func record(z model.ScoredZone) []string {
	return []string{
		strconv.Itoa(z.Rank),
		strconv.Itoa(z.ZoneID),
		z.NomCommune,
		z.Region,
		z.CodeDepartement,
		strconv.Itoa(z.NbCommunes),
		formatFloat(z.NbMenages),
		formatFloat(z.Population),
		formatFloat(z.PotentialClients),
		formatFloat(z.PctMaisons),
		formatFloat(z.PctResidencesPrincipales),
		formatFloat(z.RevenuMedian),
		formatScore(z.ScoreHousing),
		formatScore(z.ScoreIncome),
		formatScore(z.ScoreMarketSize),
		formatScore(z.ScoreTotal),
		formatFloat(z.Latitude),
		formatFloat(z.Longitude),
	}
}

// formatFloat keeps the shortest lossless decimal form, so counts print
// without a trailing ".0".
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatScore pins scores to two decimals.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
