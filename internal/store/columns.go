package store

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/poubelles-propres/zones-cli/internal/model"
)

// Column orders are shared by both backends; every scan and insert below
// must follow them exactly.

var communeColumns = []string{
	"code_commune", "nom_commune", "latitude", "longitude",
	"population_totale", "nb_menages", "nb_maisons", "pct_maisons",
	"pct_residences_principales", "revenu_median", "niveau_vie_median",
	"taux_pauvrete", "code_departement",
}

var zoneColumns = []string{
	"run_id", "zone_id", "rank", "nom_commune", "center_commune", "region",
	"code_departement", "nb_communes", "population_totale", "nb_menages",
	"nb_maisons", "pct_maisons", "pct_residences_principales",
	"revenu_median", "niveau_vie_median", "taux_pauvrete",
	"score_housing", "score_income", "score_market_size", "score_total",
	"potential_clients", "latitude", "longitude",
}

// zoneSelectColumns is zoneColumns without the run_id key, the shape every
// zone read uses.
var zoneSelectColumns = zoneColumns[1:]

func communeRow(c model.Commune) []any {
	return []any{
		c.Code, c.Nom, c.Latitude, c.Longitude,
		c.Population, c.NbMenages, c.NbMaisons, c.PctMaisons,
		c.PctResidencesPrincipales, c.RevenuMedian, c.NiveauVieMedian,
		c.TauxPauvrete, c.CodeDepartement,
	}
}

func communeRows(communes []model.Commune) [][]any {
	rows := make([][]any, len(communes))
	for i, c := range communes {
		rows[i] = communeRow(c)
	}
	return rows
}

func zoneRow(runID string, z model.ScoredZone) []any {
	return []any{
		runID, z.ZoneID, z.Rank, z.NomCommune, z.CentreNom, z.Region,
		z.CodeDepartement, z.NbCommunes, z.Population, z.NbMenages,
		z.NbMaisons, z.PctMaisons, z.PctResidencesPrincipales,
		z.RevenuMedian, z.NiveauVieMedian, z.TauxPauvrete,
		z.ScoreHousing, z.ScoreIncome, z.ScoreMarketSize, z.ScoreTotal,
		z.PotentialClients, z.Latitude, z.Longitude,
	}
}

func zoneRows(runID string, zones []model.ScoredZone) [][]any {
	rows := make([][]any, len(zones))
	for i, z := range zones {
		rows[i] = zoneRow(runID, z)
	}
	return rows
}

type scannable interface {
	Scan(dest ...any) error
}

func scanZone(row scannable) (*model.ScoredZone, error) {
	var z model.ScoredZone
	err := row.Scan(
		&z.ZoneID, &z.Rank, &z.NomCommune, &z.CentreNom, &z.Region,
		&z.CodeDepartement, &z.NbCommunes, &z.Population, &z.NbMenages,
		&z.NbMaisons, &z.PctMaisons, &z.PctResidencesPrincipales,
		&z.RevenuMedian, &z.NiveauVieMedian, &z.TauxPauvrete,
		&z.ScoreHousing, &z.ScoreIncome, &z.ScoreMarketSize, &z.ScoreTotal,
		&z.PotentialClients, &z.Latitude, &z.Longitude,
	)
	if err != nil {
		return nil, err
	}
	return &z, nil
}

func scanCommune(row scannable) (*model.Commune, error) {
	var c model.Commune
	err := row.Scan(
		&c.Code, &c.Nom, &c.Latitude, &c.Longitude,
		&c.Population, &c.NbMenages, &c.NbMaisons, &c.PctMaisons,
		&c.PctResidencesPrincipales, &c.RevenuMedian, &c.NiveauVieMedian,
		&c.TauxPauvrete, &c.CodeDepartement,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var runSelectColumns = []string{
	"id", "status", "params", "stats", "error", "zone_count",
	"created_at", "updated_at",
}

// scanRun decodes one run row. Params and stats travel as JSON in both
// backends; a NULL stats column means the run never completed.
func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var status string
	var paramsJSON, statsJSON []byte

	err := row.Scan(&r.ID, &status, &paramsJSON, &statsJSON, &r.Error, &r.ZoneCount, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)

	if err := json.Unmarshal(paramsJSON, &r.Params); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal run params")
	}
	if len(statsJSON) > 0 {
		r.Stats = &model.RunStats{}
		if err := json.Unmarshal(statsJSON, r.Stats); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal run stats")
		}
	}
	return &r, nil
}
