package model

// Zone is the aggregate of all communes assigned to one center. Percentages
// and poverty are arithmetic means across members, incomes are medians,
// population and household counts are sums, coordinates are the simple
// centroid of member coordinates.
type Zone struct {
	ZoneID                   int     `json:"zone_id"`
	NomCommune               string  `json:"nom_commune"`
	CentreNom                string  `json:"center_commune"`
	Region                   string  `json:"region"`
	CodeDepartement          string  `json:"code_departement"`
	NbCommunes               int     `json:"nb_communes"`
	Population               float64 `json:"population_totale"`
	NbMenages                float64 `json:"nb_menages"`
	NbMaisons                float64 `json:"nb_maisons_individuelles"`
	PctMaisons               float64 `json:"pct_maisons"`
	PctResidencesPrincipales float64 `json:"pct_residences_principales"`
	RevenuMedian             float64 `json:"revenu_median"`
	NiveauVieMedian          float64 `json:"niveau_vie_median"`
	TauxPauvrete             float64 `json:"taux_pauvrete"`
	Latitude                 float64 `json:"latitude"`
	Longitude                float64 `json:"longitude"`
}

// ScoredZone is a Zone with its franchise-fit scores attached. All four
// scores live in [0,100]; Rank is 1-based and dense, assigned by descending
// ScoreTotal with ties keeping their pre-sort order.
type ScoredZone struct {
	Zone

	ScoreHousing     float64 `json:"score_housing"`
	ScoreIncome      float64 `json:"score_income"`
	ScoreMarketSize  float64 `json:"score_market_size"`
	ScoreTotal       float64 `json:"score_total"`
	PotentialClients float64 `json:"potential_clients"`
	Rank             int     `json:"rank"`
}
