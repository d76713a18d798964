package insee

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/poubelles-propres/zones-cli/internal/config"
)

// Registry keys for fetch.sources and the fetch command's --only flag.
const (
	DatasetHousing   = "housing"
	DatasetIncome    = "income"
	DatasetGeography = "geography"
	DatasetShapefile = "shapefile"
)

// Dataset describes one raw artifact the ingestion layer consumes and
// where it lands under the data directory. Source URLs are configured per
// dataset (fetch.sources) because insee.fr file IDs rotate every vintage.
type Dataset struct {
	Name     string // registry key
	Filename string // target name under data.dir
	Zipped   bool   // upstream artifact is a ZIP bundle
}

// Datasets returns the artifact registry for the configured data layout,
// in download order. Housing is the only hard requirement for ingestion;
// income enriches the revenue columns and geography or the shapefile
// supplies coordinates.
func Datasets(data config.DataConfig) []Dataset {
	return []Dataset{
		{Name: DatasetHousing, Filename: data.HousingCSV, Zipped: true},
		{Name: DatasetIncome, Filename: data.IncomeXLSX},
		{Name: DatasetGeography, Filename: data.GeographyCSV},
		{Name: DatasetShapefile, Filename: data.Shapefile, Zipped: true},
	}
}

// DatasetByName returns the registry entry for a key.
func DatasetByName(data config.DataConfig, name string) (Dataset, error) {
	for _, d := range Datasets(data) {
		if d.Name == name {
			return d, nil
		}
	}
	return Dataset{}, eris.Errorf("insee: unknown dataset %q (valid: %s)", name, strings.Join(DatasetNames(), ", "))
}

// DatasetNames returns the registry keys in download order.
func DatasetNames() []string {
	return []string{DatasetHousing, DatasetIncome, DatasetGeography, DatasetShapefile}
}
