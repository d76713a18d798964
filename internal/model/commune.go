package model

// Commune is one row of the reconciled INSEE commune table. Field names
// follow the INSEE vocabulary used across the data files; the ingestion
// layer guarantees every field is populated (documented defaults are
// substituted for missing source columns) before a Commune enters the
// analysis pipeline.
type Commune struct {
	Code                     string  `json:"code_commune"`
	Nom                      string  `json:"nom_commune"`
	Latitude                 float64 `json:"latitude"`
	Longitude                float64 `json:"longitude"`
	Population               float64 `json:"population_totale"`
	NbMenages                float64 `json:"nb_menages"`
	NbMaisons                float64 `json:"nb_maisons_individuelles"`
	PctMaisons               float64 `json:"pct_maisons"`
	PctResidencesPrincipales float64 `json:"pct_residences_principales"`
	RevenuMedian             float64 `json:"revenu_median"`
	NiveauVieMedian          float64 `json:"niveau_vie_median"`
	TauxPauvrete             float64 `json:"taux_pauvrete"`
	CodeDepartement          string  `json:"code_departement"`
}

// Assignment maps one commune to the zone anchored at its nearest center.
// Each commune appears in at most one Assignment per run.
type Assignment struct {
	Commune    Commune `json:"commune"`
	ZoneID     int     `json:"zone_id"`
	DistanceKm float64 `json:"distance_to_center"`
	CentreNom  string  `json:"center_commune"`
}
