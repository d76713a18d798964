package insee

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeographyCSV(t *testing.T) {
	csv := strings.Join([]string{
		"code_commune_INSEE,nom_commune,latitude,longitude",
		"75056,Paris,48.8566,2.3522",
		"1001,L'Abergement-Clémenciat,46.1517,4.9306",
		"2a004,Ajaccio,41.9192,8.7386",
		"99999,Nulle-Part,,",
	}, "\n")

	coords, err := ParseGeographyCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, coords, 3)

	paris := coords["75056"]
	assert.InDelta(t, 48.8566, paris.Lat, 1e-9)
	assert.InDelta(t, 2.3522, paris.Lon, 1e-9)

	_, ok := coords["01001"]
	assert.True(t, ok, "numeric codes are zero-padded")
	_, ok = coords["2A004"]
	assert.True(t, ok, "Corsican codes are uppercased")
	_, ok = coords["99999"]
	assert.False(t, ok, "rows without coordinates are dropped")
}

func TestParseGeographyCSVMissingColumns(t *testing.T) {
	csv := "code_commune_INSEE,nom_commune\n75056,Paris\n"

	_, err := ParseGeographyCSV(context.Background(), strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not locate")
}

func TestParseGeographyCSVEmptyFile(t *testing.T) {
	_, err := ParseGeographyCSV(context.Background(), strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty file")
}

func writeCommuneShapefile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "communes.shp")
	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)

	w.SetFields([]shp.Field{shp.StringField("INSEE_COM", 10)})
	w.Write(&shp.Point{X: 2.3522, Y: 48.8566})
	w.WriteAttribute(0, 0, "75056")
	w.Write(&shp.Point{X: 4.8357, Y: 45.7640})
	w.WriteAttribute(1, 0, "69123")
	w.Close()
	return path
}

func TestParseShapefileCentroids(t *testing.T) {
	path := writeCommuneShapefile(t)

	coords, err := ParseShapefileCentroids(path)
	require.NoError(t, err)
	require.Len(t, coords, 2)

	paris := coords["75056"]
	assert.InDelta(t, 48.8566, paris.Lat, 1e-6)
	assert.InDelta(t, 2.3522, paris.Lon, 1e-6)

	lyon := coords["69123"]
	assert.InDelta(t, 45.7640, lyon.Lat, 1e-6)
	assert.InDelta(t, 4.8357, lyon.Lon, 1e-6)
}

func TestParseShapefileCentroidsMissingFile(t *testing.T) {
	_, err := ParseShapefileCentroids(filepath.Join(t.TempDir(), "nope.shp"))
	require.Error(t, err)
}
