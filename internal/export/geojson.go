package export

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/poubelles-propres/zones-cli/internal/model"
)

// WriteGeoJSON writes the zones as a FeatureCollection of centroid Points
// (WGS84, lon/lat order), one feature per zone with the scored fields as
// properties. Map consumers join on the feature id, which is the zone id.
func WriteGeoJSON(w io.Writer, zones []model.ScoredZone) error {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(zones))}
	for _, z := range zones {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       strconv.Itoa(z.ZoneID),
			Geometry: geom.NewPointFlat(geom.XY, []float64{z.Longitude, z.Latitude}),
			Properties: map[string]any{
				"rank":                       z.Rank,
				"zone_id":                    z.ZoneID,
				"nom_commune":                z.NomCommune,
				"region":                     z.Region,
				"code_departement":           z.CodeDepartement,
				"nb_communes":                z.NbCommunes,
				"nb_menages":                 z.NbMenages,
				"population_totale":          z.Population,
				"potential_clients":          z.PotentialClients,
				"pct_maisons":                z.PctMaisons,
				"pct_residences_principales": z.PctResidencesPrincipales,
				"revenu_median":              z.RevenuMedian,
				"score_housing":              z.ScoreHousing,
				"score_income":               z.ScoreIncome,
				"score_market_size":          z.ScoreMarketSize,
				"score_total":                z.ScoreTotal,
			},
		})
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "export: marshal geojson")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "export: write geojson")
	}
	return nil
}
