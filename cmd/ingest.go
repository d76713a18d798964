package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/poubelles-propres/zones-cli/internal/config"
	"github.com/poubelles-propres/zones-cli/internal/geo"
	"github.com/poubelles-propres/zones-cli/internal/insee"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load the INSEE artifacts into the commune table",
	Long: `Parses the housing base, the income workbook and a coordinate source
(geography CSV or commune shapefile) from the data directory, reconciles
them into the flat commune table and replaces the store contents with it.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		housingPath := filepath.Join(cfg.Data.Dir, cfg.Data.HousingCSV)
		f, err := os.Open(housingPath)
		if err != nil {
			return eris.Wrapf(err, "open housing csv %s", housingPath)
		}
		defer f.Close() //nolint:errcheck

		housing, err := insee.ParseHousing(ctx, f)
		if err != nil {
			return err
		}

		income := loadIncome(cfg.Data)
		coords, err := loadCoordinates(ctx, cfg.Data)
		if err != nil {
			return err
		}

		communes, stats := insee.Reconcile(housing, income, coords)
		if len(communes) == 0 {
			return eris.New("reconciliation produced no communes, refusing to replace the table")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.ReplaceCommunes(ctx, communes)
		if err != nil {
			return eris.Wrap(err, "replace communes")
		}

		zap.L().Info("ingest complete",
			zap.Int64("communes", n),
			zap.Int("source_rows", stats.Total),
			zap.Int("missing_income", stats.MissingIncome),
			zap.Int("dropped_no_coordinates", stats.DroppedNoCoord),
		)
		fmt.Printf("Ingested %d communes\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// loadIncome reads the income workbook when it is configured and present.
// An absent workbook is not an error: reconciliation substitutes the
// national defaults for every commune.
func loadIncome(data config.DataConfig) map[string]insee.IncomeRecord {
	if data.IncomeXLSX == "" {
		return nil
	}
	path := filepath.Join(data.Dir, data.IncomeXLSX)
	if _, err := os.Stat(path); err != nil {
		zap.L().Warn("income workbook not found, national defaults apply",
			zap.String("path", path),
		)
		return nil
	}
	income, err := insee.ParseIncome(path)
	if err != nil {
		zap.L().Warn("income workbook unreadable, national defaults apply",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil
	}
	return income
}

// loadCoordinates resolves the coordinate source: the geography CSV when
// present, otherwise commune shapefile centroids.
func loadCoordinates(ctx context.Context, data config.DataConfig) (map[string]geo.Point, error) {
	if data.GeographyCSV != "" {
		path := filepath.Join(data.Dir, data.GeographyCSV)
		if f, err := os.Open(path); err == nil {
			defer f.Close() //nolint:errcheck
			return insee.ParseGeographyCSV(ctx, f)
		}
	}
	if data.Shapefile != "" {
		path := filepath.Join(data.Dir, data.Shapefile)
		if _, err := os.Stat(path); err == nil {
			return insee.ParseShapefileCentroids(path)
		}
	}
	return nil, eris.New("no coordinate source found: configure data.geography_csv or data.shapefile")
}
