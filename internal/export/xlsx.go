package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/poubelles-propres/zones-cli/internal/model"
)

const scoreFormat = "0.00"

// WriteXLSX writes the zones as a single-sheet workbook, header row plus
// one row per zone, in the canonical column order.
func WriteXLSX(w io.Writer, zones []model.ScoredZone) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Zones")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}

	for _, z := range zones {
		row := sheet.AddRow()
		row.AddCell().SetInt(z.Rank)
		row.AddCell().SetInt(z.ZoneID)
		row.AddCell().SetString(z.NomCommune)
		row.AddCell().SetString(z.Region)
		row.AddCell().SetString(z.CodeDepartement)
		row.AddCell().SetInt(z.NbCommunes)
		row.AddCell().SetFloat(z.NbMenages)
		row.AddCell().SetFloat(z.Population)
		row.AddCell().SetFloat(z.PotentialClients)
		row.AddCell().SetFloat(z.PctMaisons)
		row.AddCell().SetFloat(z.PctResidencesPrincipales)
		row.AddCell().SetFloat(z.RevenuMedian)
		row.AddCell().SetFloatWithFormat(z.ScoreHousing, scoreFormat)
		row.AddCell().SetFloatWithFormat(z.ScoreIncome, scoreFormat)
		row.AddCell().SetFloatWithFormat(z.ScoreMarketSize, scoreFormat)
		row.AddCell().SetFloatWithFormat(z.ScoreTotal, scoreFormat)
		row.AddCell().SetFloat(z.Latitude)
		row.AddCell().SetFloat(z.Longitude)
	}

	return eris.Wrap(f.Write(w), "export: write workbook")
}
