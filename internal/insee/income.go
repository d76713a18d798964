package insee

import (
	"github.com/rotisserie/eris"

	"github.com/poubelles-propres/zones-cli/internal/fetcher"
)

// IncomeRecord carries the per-commune income figures from the
// "niveau de vie" workbook.
type IncomeRecord struct {
	RevenuMedian    float64
	NiveauVieMedian float64
	TauxPauvrete    float64
}

// ParseIncome reads the income workbook. Header labels vary between
// vintages of the file, so columns are located by fragment: the code
// column is the first one mentioning CODE or COM (falling back to the
// first column), the revenue column the first mentioning REVENU, NIVEAU,
// MEDIAN or VIE. Without a revenue column every commune gets the national
// defaults. The poverty column is optional and defaults to the national
// rate.
func ParseIncome(path string) (map[string]IncomeRecord, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "insee: income: read workbook")
	}
	if len(rows) == 0 {
		return nil, eris.New("insee: income: empty workbook")
	}

	header := rows[0]
	code := fuzzyColumnIndex(header, "CODE", "COM")
	if code < 0 {
		code = 0
	}
	revenue := fuzzyColumnIndex(header, "REVENU", "NIVEAU", "MEDIAN", "VIE")
	poverty := fuzzyColumnIndex(header, "PAUVRE", "TP60")

	records := make(map[string]IncomeRecord, len(rows)-1)
	for _, row := range rows[1:] {
		c := NormalizeCode(cell(row, code))
		if c == "" {
			continue
		}

		rec := IncomeRecord{
			RevenuMedian:    DefaultRevenuMedian,
			NiveauVieMedian: DefaultNiveauVieMedian,
			TauxPauvrete:    parseNumber(cell(row, poverty), DefaultTauxPauvrete),
		}
		if revenue >= 0 {
			rec.RevenuMedian = parseNumber(cell(row, revenue), DefaultRevenuMedian)
			rec.NiveauVieMedian = rec.RevenuMedian * NiveauVieFactor
		}
		records[c] = rec
	}
	return records, nil
}
