package cmd

import (
	"fmt"
	"io"

	"github.com/KaramelBytes/tbburden/internal/analysis"
	"github.com/KaramelBytes/tbburden/internal/chart"
	cfgpkg "github.com/KaramelBytes/tbburden/internal/config"
	"github.com/KaramelBytes/tbburden/internal/dataset"
	"github.com/KaramelBytes/tbburden/internal/logging"
	"github.com/KaramelBytes/tbburden/internal/utils"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

const debugDumpRecords = 3

var (
	anaPlotsDir  string
	anaNoPlots   bool
	anaSeed      int64
	anaRestarts  int
	anaCooks     float64
	anaTop       int
	anaSheetName string
	anaJSON      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Run the burden analysis on a CSV or XLSX snapshot",
	Long: `Analyze loads the snapshot (default: data_path from config), filters to the
latest year, drops incomplete rows and prints the report. Plots are written to
the plots directory unless --no-plots is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		run := *c
		f := cmd.Flags()
		if f.Changed("plots-dir") {
			run.PlotsDir = anaPlotsDir
		}
		if f.Changed("no-plots") {
			run.RenderPlots = !anaNoPlots
		}
		if f.Changed("seed") {
			run.Seed = anaSeed
		}
		if f.Changed("restarts") {
			run.KMeansRestarts = anaRestarts
		}
		if f.Changed("cooks-threshold") {
			run.CooksThreshold = anaCooks
		}
		if f.Changed("top") {
			run.TopN = anaTop
		}
		if f.Changed("sheet-name") {
			run.SheetName = anaSheetName
		}
		if err := run.Validate(); err != nil {
			return err
		}

		path := run.DataPath
		if len(args) == 1 {
			path = args[0]
		} else if found, err := utils.FindDataFile("", run.DataPath); err == nil {
			path = found
		}
		return analyze(cmd.OutOrStdout(), cmd.ErrOrStderr(), path, &run)
	},
}

func analyze(stdout, stderr io.Writer, path string, run *cfgpkg.Global) error {
	log := logging.New("analyze")
	lopt := dataset.DefaultLoadOptions()
	lopt.SheetName = run.SheetName

	tbl, err := dataset.Load(path, lopt)
	if err != nil {
		return err
	}
	log.Info("loaded dataset", "path", path, "rows", len(tbl.Rows), "columns", len(tbl.Header))
	cleaned, err := dataset.Clean(tbl, lopt)
	if err != nil {
		return err
	}
	log.Info("cleaned dataset", "year", cleaned.Stats.LatestYear, "kept", cleaned.Stats.Kept, "dropped", cleaned.Stats.Dropped)
	if debug {
		spew.Fdump(stderr, cleaned.Records[:min(debugDumpRecords, len(cleaned.Records))])
	}

	rep, err := analysis.Run(cleaned, analysis.Options{
		CooksThreshold: run.CooksThreshold,
		TopN:           run.TopN,
		Cluster: analysis.ClusterOptions{
			K:        analysis.DefaultClusterOptions().K,
			Restarts: run.KMeansRestarts,
			Seed:     run.Seed,
		},
	})
	if err != nil {
		return err
	}

	status := stdout
	if anaJSON {
		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(b))
		status = stderr
	} else {
		fmt.Fprintln(stdout, rep.Markdown())
	}

	if !run.RenderPlots {
		return nil
	}
	paths, err := chart.RenderAll(rep, run.PlotsDir)
	if err != nil {
		return fmt.Errorf("render plots: %w", err)
	}
	fmt.Fprintf(status, "✓ Wrote %d plots to %s\n", len(paths), run.PlotsDir)
	return nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&anaPlotsDir, "plots-dir", "", "directory for PNG plots (overrides config)")
	analyzeCmd.Flags().BoolVar(&anaNoPlots, "no-plots", false, "skip rendering plots")
	analyzeCmd.Flags().Int64Var(&anaSeed, "seed", 42, "random seed for k-means starts")
	analyzeCmd.Flags().IntVar(&anaRestarts, "restarts", 25, "number of k-means random starts")
	analyzeCmd.Flags().Float64Var(&anaCooks, "cooks-threshold", analysis.DefaultCooksThreshold, "Cook's distance above which rows are removed before refitting")
	analyzeCmd.Flags().IntVar(&anaTop, "top", analysis.DefaultTopN, "number of countries in the incidence ranking")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet-name", "", "XLSX: sheet name to analyze (default first sheet)")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "print the report as JSON instead of Markdown")
}
