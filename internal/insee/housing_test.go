package insee

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHousing(t *testing.T) {
	csv := strings.Join([]string{
		"CODGEO;LIBGEO;P21_POP;P21_MEN;P21_LOG;P21_MAISON;P21_RP",
		"75056;Paris;2145906;1153044;1398205;15000;1153044",
		"1001;L'Abergement-Clémenciat;806;329;398;350;329",
		";ghost;1;1;1;1;1",
		"97411;Saint-Denis;153810;67041;76316;30000;67041",
	}, "\n")

	records, err := ParseHousing(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 3)

	paris := records[0]
	assert.Equal(t, "75056", paris.Code)
	assert.Equal(t, "Paris", paris.Nom)
	assert.InDelta(t, 2145906, paris.Population, 1e-9)
	assert.InDelta(t, 1153044, paris.Menages, 1e-9)
	assert.InDelta(t, 1398205, paris.Logements, 1e-9)
	assert.InDelta(t, 15000, paris.Maisons, 1e-9)

	// Four-digit codes get their leading zero back.
	assert.Equal(t, "01001", records[1].Code)
	assert.Equal(t, "97411", records[2].Code)
}

func TestParseHousingDefaultsPerCell(t *testing.T) {
	csv := strings.Join([]string{
		"CODGEO;LIBGEO;P21_POP;P21_MEN;P21_LOG;P21_MAISON;P21_RP",
		"01001;;;;;;",
	}, "\n")

	records, err := ParseHousing(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "01001", rec.Nom, "name falls back to the code")
	assert.InDelta(t, 0, rec.Population, 1e-9)
	assert.InDelta(t, 0, rec.Menages, 1e-9)
	assert.InDelta(t, 1, rec.Logements, 1e-9, "empty housing-stock cell defaults to 1")
	assert.InDelta(t, 0, rec.Maisons, 1e-9)
	assert.InDelta(t, 0, rec.Residences, 1e-9)
}

func TestParseHousingEstimatesPopulation(t *testing.T) {
	csv := strings.Join([]string{
		"CODGEO;LIBGEO;P21_MEN;P21_LOG;P21_MAISON;P21_RP",
		"01001;Abergement;1000;1200;900;1000",
	}, "\n")

	records, err := ParseHousing(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 2200, records[0].Population, 1e-9, "population estimated from households")
}

func TestParseHousingMissingCodeColumn(t *testing.T) {
	csv := "LIBGEO;P21_MEN\nParis;100\n"

	_, err := ParseHousing(context.Background(), strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column CODGEO")
}

func TestParseHousingEmptyFile(t *testing.T) {
	_, err := ParseHousing(context.Background(), strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty file")
}
