package analyzer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poubelles-propres/zones-cli/internal/config"
	"github.com/poubelles-propres/zones-cli/internal/model"
	"github.com/poubelles-propres/zones-cli/internal/scorer"
)

func testCommune(code, nom string, lat, lon, population float64) model.Commune {
	return model.Commune{
		Code:                     code,
		Nom:                      nom,
		Latitude:                 lat,
		Longitude:                lon,
		Population:               population,
		NbMenages:                population / 2,
		NbMaisons:                population / 4,
		PctMaisons:               65,
		PctResidencesPrincipales: 80,
		RevenuMedian:             22000,
		NiveauVieMedian:          28600,
		TauxPauvrete:             14,
		CodeDepartement:          code[:2],
	}
}

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		MaxRadiusKm:    15,
		MinHouseholds:  1000,
		MinPctMaisons:  20,
		ConversionRate: 0.02,
		Workers:        1,
	}
}

// twoCenterTable reproduces the canonical scenario: two centers far apart
// and a small commune 5 km north of the first. The small commune must land
// in the first center's zone; the second center stays alone and its
// single-commune zone is filtered out.
func twoCenterTable() []model.Commune {
	return []model.Commune{
		testCommune("75056", "Paris", 48.8566, 2.3522, 2000),
		testCommune("69123", "Lyon", 45.7640, 4.8357, 1500),
		testCommune("93066", "Saint-Denis", 48.9016, 2.3522, 400),
	}
}

func TestRunTwoCenterScenario(t *testing.T) {
	a := New(twoCenterTable(), testAnalysisConfig(), scorer.DefaultConfig())

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Zones, 1)

	z := result.Zones[0]
	assert.Equal(t, 1, z.Rank)
	assert.Equal(t, "Paris", z.CentreNom)
	assert.Equal(t, "Paris, Saint-Denis", z.NomCommune)
	assert.Equal(t, 2, z.NbCommunes)
	assert.Equal(t, "75", z.CodeDepartement)
	assert.Equal(t, "Île-de-France", z.Region)
	assert.InDelta(t, 2400, z.Population, 1e-9)
	assert.InDelta(t, 1200, z.NbMenages, 1e-9)
	assert.InDelta(t, 24, z.PotentialClients, 1e-9)

	// Lone qualified zone: relative factors collapse to 100, the income
	// factor sits at the national median of its absolute band.
	assert.InDelta(t, 100, z.ScoreHousing, 1e-9)
	assert.InDelta(t, 50, z.ScoreIncome, 1e-9)
	assert.InDelta(t, 100, z.ScoreMarketSize, 1e-9)
	assert.InDelta(t, 85, z.ScoreTotal, 1e-9)

	assert.Equal(t, model.RunStats{
		TotalCommunes:    3,
		EligibleCommunes: 3,
		Centers:          2,
		AssignedCommunes: 3,
		AggregatedZones:  2,
		QualifiedZones:   1,
	}, result.Stats)
	assert.InDelta(t, 22000, result.Benchmarks.NationalMedianIncome, 1e-9)
}

func TestRunEmptyInput(t *testing.T) {
	a := New(nil, testAnalysisConfig(), scorer.DefaultConfig())

	result, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Zones)
	assert.Equal(t, model.RunStats{}, result.Stats)
}

func TestRunIdempotent(t *testing.T) {
	table := twoCenterTable()
	table = append(table,
		testCommune("77284", "Meaux", 48.9601, 2.8785, 1200),
		testCommune("77539", "Villenoy", 48.9420, 2.8620, 300),
		testCommune("69266", "Villeurbanne", 45.7719, 4.8902, 1100),
		testCommune("69029", "Bron", 45.7394, 4.9130, 350),
	)

	cfg := testAnalysisConfig()
	first, err := New(table, cfg, scorer.DefaultConfig()).Run(context.Background())
	require.NoError(t, err)
	second, err := New(table, cfg, scorer.DefaultConfig()).Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, first.Zones, second.Zones)
	require.Equal(t, first.Stats, second.Stats)

	firstJSON, err := json.Marshal(first.Zones)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second.Zones)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestRunWorkerCountDoesNotChangeResult(t *testing.T) {
	table := twoCenterTable()
	table = append(table,
		testCommune("77284", "Meaux", 48.9601, 2.8785, 1200),
		testCommune("77539", "Villenoy", 48.9420, 2.8620, 300),
	)

	serial := testAnalysisConfig()
	serial.Workers = 1
	parallel := testAnalysisConfig()
	parallel.Workers = 8

	got1, err := New(table, serial, scorer.DefaultConfig()).Run(context.Background())
	require.NoError(t, err)
	got8, err := New(table, parallel, scorer.DefaultConfig()).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, got1.Zones, got8.Zones)
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(twoCenterTable(), testAnalysisConfig(), scorer.DefaultConfig()).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunForwardsProgress(t *testing.T) {
	var calls [][2]int
	a := New(twoCenterTable(), testAnalysisConfig(), scorer.DefaultConfig(),
		WithProgress(func(done, total int) {
			calls = append(calls, [2]int{done, total})
		}, 1),
	)

	_, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
}

func TestRunMinIncomePercentile(t *testing.T) {
	rich := testCommune("78646", "Versailles", 48.8049, 2.1204, 2000)
	rich.RevenuMedian = 31000
	richSat := testCommune("78640", "Viroflay", 48.8000, 2.1700, 300)
	richSat.RevenuMedian = 31000

	mid := testCommune("69123", "Lyon", 45.7640, 4.8357, 2000)
	mid.RevenuMedian = 23000
	midSat := testCommune("69266", "Villeurbanne", 45.7719, 4.8902, 300)
	midSat.RevenuMedian = 23000

	poor := testCommune("62041", "Auchel", 50.5069, 2.4731, 2000)
	poor.RevenuMedian = 16000
	poorSat := testCommune("62065", "Barlin", 50.4531, 2.6186, 300)
	poorSat.RevenuMedian = 16000

	table := []model.Commune{rich, richSat, mid, midSat, poor, poorSat}

	cfg := testAnalysisConfig()
	baseline, err := New(table, cfg, scorer.DefaultConfig()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, baseline.Zones, 3)

	cfg.MinIncomePercentile = 50
	filtered, err := New(table, cfg, scorer.DefaultConfig()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, filtered.Zones, 2)
	for _, z := range filtered.Zones {
		assert.GreaterOrEqual(t, z.RevenuMedian, 23000.0)
	}
}

func TestIncomePercentile(t *testing.T) {
	zones := []model.Zone{
		{RevenuMedian: 10000},
		{RevenuMedian: 20000},
		{RevenuMedian: 30000},
	}
	assert.InDelta(t, 20000, incomePercentile(zones, 50), 1e-9)
	assert.InDelta(t, 10000, incomePercentile(zones, 0), 1e-9)
	assert.InDelta(t, 30000, incomePercentile(zones, 100), 1e-9)
	assert.InDelta(t, 15000, incomePercentile(zones, 25), 1e-9)
	assert.InDelta(t, 20000, incomePercentile(zones[1:2], 75), 1e-9)
}
