package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/poubelles-propres/zones-cli/internal/export"
	"github.com/poubelles-propres/zones-cli/internal/model"
	"github.com/poubelles-propres/zones-cli/internal/store"
	"github.com/poubelles-propres/zones-cli/pkg/notion"
)

var (
	exportRun      string
	exportOut      string
	exportMinScore float64
	exportDept     string
	exportLimit    int
	exportNotion   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a run's ranked zones",
	Long: `Writes the zone snapshot of the latest (or a given) completed run to a
file, picking the format from the extension (.csv, .geojson, .xlsx), or
pushes it to the expansion team's Notion board.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}
		if exportOut == "" && !exportNotion {
			return eris.New("nothing to export: pass --out and/or --notion")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := resolveExportRun(ctx, st, exportRun)
		if err != nil {
			return err
		}

		zones, err := st.ListZones(ctx, store.ZoneFilter{
			RunID:      run.ID,
			MinScore:   exportMinScore,
			Department: exportDept,
			Limit:      exportLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list zones")
		}

		if exportOut != "" {
			if err := writeExportFile(exportOut, zones); err != nil {
				return err
			}
			fmt.Printf("Wrote %d zones to %s\n", len(zones), exportOut)
		}

		if exportNotion {
			if err := pushToNotion(ctx, zones); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRun, "run", "", "run ID to export (default: latest completed run)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path, format from extension (.csv, .geojson, .xlsx)")
	exportCmd.Flags().Float64Var(&exportMinScore, "min-score", 0, "only zones at or above this total score")
	exportCmd.Flags().StringVar(&exportDept, "dept", "", "only zones in this department code")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "max zones to export (0 = all)")
	exportCmd.Flags().BoolVar(&exportNotion, "notion", false, "push the zones to the configured Notion board")
	rootCmd.AddCommand(exportCmd)
}

// resolveExportRun returns the requested run, or the latest completed one
// when no ID is given.
func resolveExportRun(ctx context.Context, st store.Store, runID string) (*model.Run, error) {
	if runID != "" {
		run, err := st.GetRun(ctx, runID)
		if err != nil {
			return nil, eris.Wrapf(err, "run %s", runID)
		}
		return run, nil
	}
	run, err := st.LatestRun(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "latest run")
	}
	if run == nil {
		return nil, eris.New("no completed run to export, run 'zones-cli analyze' first")
	}
	return run, nil
}

// writeExportFile writes the zones to path in the format its extension
// names.
func writeExportFile(path string, zones []model.ScoredZone) error {
	write, err := exportWriter(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := write(f, zones); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func exportWriter(path string) (func(io.Writer, []model.ScoredZone) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return export.WriteCSV, nil
	case ".geojson", ".json":
		return export.WriteGeoJSON, nil
	case ".xlsx":
		return export.WriteXLSX, nil
	default:
		return nil, eris.Errorf("unsupported export format %q (use .csv, .geojson or .xlsx)", filepath.Ext(path))
	}
}

func pushToNotion(ctx context.Context, zones []model.ScoredZone) error {
	if cfg.Notion.Token == "" {
		return eris.New("notion token is required (ZONES_NOTION_TOKEN)")
	}
	if cfg.Notion.ZonesDB == "" {
		return eris.New("notion zones DB ID is required (ZONES_NOTION_ZONES_DB)")
	}

	client := notion.NewClient(cfg.Notion.Token)
	res, err := notion.PushZones(ctx, client, cfg.Notion.ZonesDB, zones)
	if err != nil {
		return eris.Wrap(err, "push zones")
	}
	zap.L().Info("notion push complete",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
	)
	fmt.Printf("Pushed %d zones to Notion (%d created, %d updated)\n",
		res.Created+res.Updated, res.Created, res.Updated)
	return nil
}
