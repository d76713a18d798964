package insee

import (
	"context"
	"io"

	"github.com/rotisserie/eris"

	"github.com/poubelles-propres/zones-cli/internal/fetcher"
)

// HousingRecord is one commune row of the INSEE housing base
// (base-cc-logement), already coerced to numbers.
type HousingRecord struct {
	Code       string
	Nom        string
	Menages    float64
	Population float64
	Logements  float64
	Maisons    float64
	Residences float64
}

// Housing source column names.
const (
	colCodgeo  = "CODGEO"
	colLibgeo  = "LIBGEO"
	colMenages = "P21_MEN"
	colPop     = "P21_POP"
	colLog     = "P21_LOG"
	colMaison  = "P21_MAISON"
	colRP      = "P21_RP"
)

// ParseHousing reads the semicolon-delimited housing base. Only CODGEO is
// required; every other column falls back per record to its documented
// default, and a missing population column is estimated from household
// counts. Rows without a commune code are skipped.
func ParseHousing(ctx context.Context, r io.Reader) ([]HousingRecord, error) {
	headerCh := make(chan []string, 1)
	rows, errs := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		Delimiter: ';',
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var raw [][]string
	for row := range rows {
		raw = append(raw, row)
	}
	if err := <-errs; err != nil {
		return nil, eris.Wrap(err, "insee: housing: read")
	}

	var header []string
	select {
	case header = <-headerCh:
	default:
		return nil, eris.New("insee: housing: empty file")
	}

	code := columnIndex(header, colCodgeo)
	if code < 0 {
		return nil, eris.Errorf("insee: housing: missing column %s", colCodgeo)
	}
	nom := columnIndex(header, colLibgeo)
	menages := columnIndex(header, colMenages)
	pop := columnIndex(header, colPop)
	logements := columnIndex(header, colLog)
	maisons := columnIndex(header, colMaison)
	rp := columnIndex(header, colRP)

	records := make([]HousingRecord, 0, len(raw))
	for _, row := range raw {
		rec := HousingRecord{Code: NormalizeCode(cell(row, code))}
		if rec.Code == "" {
			continue
		}

		rec.Nom = cell(row, nom)
		if rec.Nom == "" {
			rec.Nom = rec.Code
		}
		rec.Menages = parseNumber(cell(row, menages), 0)
		rec.Logements = parseNumber(cell(row, logements), 1)
		rec.Maisons = parseNumber(cell(row, maisons), 0)
		rec.Residences = parseNumber(cell(row, rp), 0)

		if pop < 0 {
			rec.Population = rec.Menages * PersonsPerHousehold
		} else {
			rec.Population = parseNumber(cell(row, pop), 0)
		}

		records = append(records, rec)
	}
	return records, nil
}
