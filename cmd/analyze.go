package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/poubelles-propres/zones-cli/internal/analyzer"
	"github.com/poubelles-propres/zones-cli/internal/config"
	"github.com/poubelles-propres/zones-cli/internal/model"
	"github.com/poubelles-propres/zones-cli/internal/runlog"
)

var (
	analyzeRadius         float64
	analyzeMinHouseholds  float64
	analyzeMinPctMaisons  float64
	analyzeMinIncomePctl  float64
	analyzeConversionRate float64
	analyzeWorkers        int
	analyzeTop            int
	analyzeOut            string
	analyzeJSON           bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the zone analysis over the ingested commune table",
	Long: `Runs the full pipeline: commune filtering, center selection, zone
assignment within the configured radius, aggregation, qualification and
scoring against national benchmarks. The ranked snapshot is recorded in the
store and the top zones are printed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}
		analysis := analysisOverrides(cfg.Analysis)
		if analysis.MaxRadiusKm < config.MinZoneRadiusKm || analysis.MaxRadiusKm > config.MaxZoneRadiusKm {
			return eris.Errorf("--radius %.1f is outside the accepted band %.0f to %.0f km",
				analysis.MaxRadiusKm, config.MinZoneRadiusKm, config.MaxZoneRadiusKm)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		communes, err := st.LoadCommunes(ctx)
		if err != nil {
			return eris.Wrap(err, "load communes")
		}
		if len(communes) == 0 {
			return eris.New("commune table is empty, run 'zones-cli ingest' first")
		}

		params := runParams(analysis, cfg.Scoring)

		recorder := runlog.New(st)
		run, err := recorder.Begin(ctx, params)
		if err != nil {
			return err
		}

		a := analyzer.New(communes, analysis, cfg.Scoring,
			analyzer.WithProgress(func(done, total int) {
				zap.L().Info("assigning communes",
					zap.Int("done", done),
					zap.Int("total", total),
				)
			}, 500),
		)

		result, err := a.Run(ctx)
		if err != nil {
			if failErr := recorder.Fail(ctx, run, err); failErr != nil {
				zap.L().Error("could not record run failure", zap.Error(failErr))
			}
			return eris.Wrap(err, "analyze")
		}

		if err := recorder.Complete(ctx, run, result.Stats, result.Zones); err != nil {
			return err
		}

		if analyzeOut != "" {
			if err := writeExportFile(analyzeOut, result.Zones); err != nil {
				return err
			}
			zap.L().Info("export written",
				zap.String("path", analyzeOut),
				zap.Int("zones", len(result.Zones)),
			)
		}

		top := analyzeTop
		if top == 0 {
			top = cfg.Analysis.TopZones
		}

		if analyzeJSON {
			out := struct {
				RunID string             `json:"run_id"`
				Stats model.RunStats     `json:"stats"`
				Zones []model.ScoredZone `json:"zones"`
			}{run.ID, result.Stats, topZones(result.Zones, top)}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		formatRunSummary(os.Stdout, run.ID, result.Stats)
		if len(result.Zones) == 0 {
			fmt.Fprintln(os.Stdout, "Aucune zone qualifiée.")
			return nil
		}
		formatZonesTable(os.Stdout, topZones(result.Zones, top))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Float64Var(&analyzeRadius, "radius", 0, "max zone radius in km, 10 to 50 (default from config)")
	analyzeCmd.Flags().Float64Var(&analyzeMinHouseholds, "min-households", 0, "household floor for the market size score (default from config)")
	analyzeCmd.Flags().Float64Var(&analyzeMinPctMaisons, "min-pct-maisons", 0, "minimum share of houses per commune (default from config)")
	analyzeCmd.Flags().Float64Var(&analyzeMinIncomePctl, "min-income-percentile", 0, "drop zones below this income percentile (default from config)")
	analyzeCmd.Flags().Float64Var(&analyzeConversionRate, "conversion-rate", 0, "household to client conversion rate (default from config)")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "assignment worker count (default from config)")
	analyzeCmd.Flags().IntVar(&analyzeTop, "top", 0, "number of zones to display (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "also write the full ranking to a file (.csv, .geojson or .xlsx)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the result as JSON instead of a table")
	rootCmd.AddCommand(analyzeCmd)
}

// analysisOverrides applies the analyze flags over the configured values.
// A zero flag means "use the config file".
func analysisOverrides(base config.AnalysisConfig) config.AnalysisConfig {
	out := base
	if analyzeRadius > 0 {
		out.MaxRadiusKm = analyzeRadius
	}
	if analyzeMinHouseholds > 0 {
		out.MinHouseholds = analyzeMinHouseholds
	}
	if analyzeMinPctMaisons > 0 {
		out.MinPctMaisons = analyzeMinPctMaisons
	}
	if analyzeMinIncomePctl > 0 {
		out.MinIncomePercentile = analyzeMinIncomePctl
	}
	if analyzeConversionRate > 0 {
		out.ConversionRate = analyzeConversionRate
	}
	if analyzeWorkers > 0 {
		out.Workers = analyzeWorkers
	}
	return out
}

// runParams freezes the effective knobs into the run record.
func runParams(analysis config.AnalysisConfig, weights config.ScoringConfig) model.RunParams {
	return model.RunParams{
		MaxRadiusKm:         analysis.MaxRadiusKm,
		MinHouseholds:       analysis.MinHouseholds,
		MinPctMaisons:       analysis.MinPctMaisons,
		MinIncomePercentile: analysis.MinIncomePercentile,
		ConversionRate:      analysis.ConversionRate,
		HousingWeight:       weights.HousingWeight,
		IncomeWeight:        weights.IncomeWeight,
		MarketSizeWeight:    weights.MarketSizeWeight,
	}
}

func topZones(zones []model.ScoredZone, n int) []model.ScoredZone {
	if n <= 0 || n >= len(zones) {
		return zones
	}
	return zones[:n]
}

// formatRunSummary writes the stage counts of a finished run.
func formatRunSummary(out io.Writer, runID string, stats model.RunStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", runID)
	_, _ = fmt.Fprintf(w, "Communes analysées:\t%d\n", stats.TotalCommunes)
	_, _ = fmt.Fprintf(w, "Communes éligibles:\t%d\n", stats.EligibleCommunes)
	_, _ = fmt.Fprintf(w, "Centres retenus:\t%d\n", stats.Centers)
	_, _ = fmt.Fprintf(w, "Communes affectées:\t%d\n", stats.AssignedCommunes)
	_, _ = fmt.Fprintf(w, "Zones formées:\t%d\n", stats.AggregatedZones)
	_, _ = fmt.Fprintf(w, "Zones qualifiées:\t%d\n", stats.QualifiedZones)
	_ = w.Flush()
	_, _ = fmt.Fprintln(out)
}

// formatZonesTable writes the ranked zones with French number formatting
// (space-grouped thousands, comma decimals).
func formatZonesTable(out io.Writer, zones []model.ScoredZone) {
	p := message.NewPrinter(language.French)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANG\tZONE\tRÉGION\tDÉPT\tCOMMUNES\tMÉNAGES\tCLIENTS\tSCORE")
	_, _ = fmt.Fprintln(w, "----\t----\t------\t----\t--------\t-------\t-------\t-----")

	for _, z := range zones {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			z.Rank,
			z.NomCommune,
			z.Region,
			z.CodeDepartement,
			z.NbCommunes,
			p.Sprintf("%.0f", z.NbMenages),
			p.Sprintf("%.0f", z.PotentialClients),
			p.Sprintf("%.2f", z.ScoreTotal),
		)
	}
	_ = w.Flush()
}
