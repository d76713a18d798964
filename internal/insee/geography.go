package insee

import (
	"context"
	"io"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/poubelles-propres/zones-cli/internal/fetcher"
	"github.com/poubelles-propres/zones-cli/internal/geo"
)

// ParseGeographyCSV reads a commune coordinates file (one row per commune,
// comma-delimited). Columns are located by fragment so both the data.gouv
// export and hand-maintained files work. Rows with unparseable coordinates
// are dropped and counted.
func ParseGeographyCSV(ctx context.Context, r io.Reader) (map[string]geo.Point, error) {
	headerCh := make(chan []string, 1)
	rows, errs := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var raw [][]string
	for row := range rows {
		raw = append(raw, row)
	}
	if err := <-errs; err != nil {
		return nil, eris.Wrap(err, "insee: geography: read")
	}

	var header []string
	select {
	case header = <-headerCh:
	default:
		return nil, eris.New("insee: geography: empty file")
	}

	code := fuzzyColumnIndex(header, "INSEE", "CODE")
	lat := fuzzyColumnIndex(header, "LAT")
	lon := fuzzyColumnIndex(header, "LON")
	if code < 0 || lat < 0 || lon < 0 {
		return nil, eris.Errorf("insee: geography: could not locate code/latitude/longitude columns in header %v", header)
	}

	coords := make(map[string]geo.Point, len(raw))
	var skipped int
	for _, row := range raw {
		c := NormalizeCode(cell(row, code))
		if c == "" {
			continue
		}
		p := geo.Point{
			Lat: parseNumber(cell(row, lat), 200),
			Lon: parseNumber(cell(row, lon), 200),
		}
		// 200 is outside any valid coordinate, so it marks parse failures.
		if p.Lat == 200 || p.Lon == 200 {
			skipped++
			continue
		}
		coords[c] = p
	}
	if skipped > 0 {
		zap.L().Warn("insee: geography rows without usable coordinates",
			zap.Int("skipped", skipped),
		)
	}
	return coords, nil
}

// ParseShapefileCentroids reads commune polygons and reduces each to its
// bounding-box midpoint. Good enough as a zone anchor; communes are small
// relative to zone radii. The INSEE code attribute is matched case
// insensitively against the usual field names.
func ParseShapefileCentroids(path string) (map[string]geo.Point, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "insee: shapefile: open")
	}
	defer func() { _ = reader.Close() }()

	codeIdx := -1
	for _, name := range []string{"INSEE_COM", "CODGEO", "CODE_INSEE"} {
		if codeIdx = shapefileFieldIndex(reader, name); codeIdx >= 0 {
			break
		}
	}
	if codeIdx < 0 {
		return nil, eris.New("insee: shapefile: no INSEE code field (INSEE_COM, CODGEO or CODE_INSEE)")
	}

	coords := make(map[string]geo.Point)
	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil {
			continue
		}
		code := NormalizeCode(reader.Attribute(codeIdx))
		if code == "" {
			continue
		}

		box := shape.BBox()
		coords[code] = geo.Point{
			Lat: (box.MinY + box.MaxY) / 2,
			Lon: (box.MinX + box.MaxX) / 2,
		}
	}
	return coords, nil
}

func shapefileFieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
