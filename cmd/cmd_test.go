package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/tbburden/internal/dataset"
	"github.com/spf13/pflag"
)

// runCmd executes the root command with args and returns stdout and stderr.
func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	// Reset sticky flags that may persist Changed state across invocations
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(fl *pflag.Flag) {
			_ = fl.Value.Set(fl.DefValue)
			fl.Changed = false
		})
	}
	reset(rootCmd.PersistentFlags())
	reset(analyzeCmd.Flags())
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// writeSnapshot writes a twelve-country snapshot for 2013 plus one older row.
func writeSnapshot(t *testing.T, dir string) string {
	t.Helper()
	inc := []float64{12, 25, 40, 60, 85, 110, 150, 210, 280, 360, 450, 620}
	hiv := []float64{0.5, 1.2, 0.8, 2.5, 4.0, 1.5, 6.0, 12.0, 3.0, 25.0, 18.0, 40.0}
	prev := []float64{15, 30, 55, 70, 120, 130, 210, 260, 400, 420, 600, 700}
	noise := []float64{0.3, -0.2, 0.1, -0.4, 0.25, -0.1, 0.35, -0.3, 0.2, -0.15, 0.05, -0.1}

	var b strings.Builder
	b.WriteString(strings.Join([]string{
		dataset.SourceCountry, dataset.SourceYear, dataset.SourcePopulation, dataset.SourcePrevalence,
		dataset.SourceMortality, dataset.SourceIncidence, dataset.SourceHIVPercent, dataset.SourceDetectionRate,
	}, ","))
	b.WriteString("\n")
	b.WriteString("Country 01,2012,1000000,20,3,15,0.5,85\n")
	for i := range inc {
		mort := 1 + 0.08*inc[i] + 0.3*hiv[i] + 0.02*prev[i] + noise[i]
		fmt.Fprintf(&b, "Country %02d,2013,%d,%g,%g,%g,%g,%d\n",
			i+1, 1_000_000*(i+1), prev[i], mort, inc[i], hiv[i], 90-4*i)
	}
	path := filepath.Join(dir, "TB_Burden_Country.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestCLI_AnalyzeWritesReportAndPlots(t *testing.T) {
	home := withHome(t)
	data := writeSnapshot(t, home)
	plots := filepath.Join(home, "plots")

	out, _, err := runCmd(t, "analyze", data, "--plots-dir", plots)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	for _, want := range []string{"[DATASET SUMMARY]", "Latest year: 2013", "[REGRESSION]", "[TOP 10 INCIDENCE]", "[CLUSTERS]", "High Burden", "✓ Wrote 5 plots"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	for _, name := range []string{"correlation_heatmap.png", "regression_fit.png", "mortality_vs_hiv.png", "top_incidence.png", "clusters.png"} {
		if _, err := os.Stat(filepath.Join(plots, name)); err != nil {
			t.Fatalf("expected plot %s: %v", name, err)
		}
	}
}

func TestCLI_AnalyzeJSON(t *testing.T) {
	home := withHome(t)
	data := writeSnapshot(t, home)

	out, _, err := runCmd(t, "analyze", data, "--json", "--no-plots", "--top", "3", "--seed", "7")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	var rep struct {
		Dataset struct {
			LatestYear int `json:"latest_year"`
			Kept       int `json:"kept"`
		} `json:"dataset"`
		Top        []json.RawMessage `json:"top_incidence"`
		Clustering struct {
			Seed     int64 `json:"seed"`
			Restarts int   `json:"restarts"`
		} `json:"clustering"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, out)
	}
	if len(rep.Top) != 3 {
		t.Fatalf("top_incidence = %d, want 3", len(rep.Top))
	}
	if rep.Clustering.Seed != 7 || rep.Clustering.Restarts != 25 {
		t.Fatalf("clustering options not applied: %+v", rep.Clustering)
	}
	if rep.Dataset.Kept != 12 {
		t.Fatalf("kept = %d, want 12", rep.Dataset.Kept)
	}
}

func TestCLI_AnalyzeMissingFile(t *testing.T) {
	home := withHome(t)
	_, _, err := runCmd(t, "analyze", filepath.Join(home, "nope.csv"), "--no-plots")
	var dle *dataset.DataLoadError
	if !errors.As(err, &dle) {
		t.Fatalf("want DataLoadError, got %v", err)
	}
}

func TestCLI_ConfigSetShowAndDefaultPath(t *testing.T) {
	home := withHome(t)
	data := writeSnapshot(t, home)

	if _, _, err := runCmd(t, "config", "set", "data_path", data); err != nil {
		t.Fatalf("config set data_path: %v", err)
	}
	if _, _, err := runCmd(t, "config", "set", "render_plots", "false"); err != nil {
		t.Fatalf("config set render_plots: %v", err)
	}
	if _, _, err := runCmd(t, "config", "set", "top_n", "zero"); err == nil {
		t.Fatal("expected error for non-numeric top_n")
	}
	out, _, err := runCmd(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "render_plots: false") || !strings.Contains(out, data) {
		t.Fatalf("config show missing values:\n%s", out)
	}

	out, _, err = runCmd(t, "analyze")
	if err != nil {
		t.Fatalf("analyze with configured path: %v", err)
	}
	if !strings.Contains(out, "[CLUSTERS]") || strings.Contains(out, "✓ Wrote") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestCLI_DebugDumpsRecords(t *testing.T) {
	home := withHome(t)
	data := writeSnapshot(t, home)
	_, errOut, err := runCmd(t, "analyze", data, "--no-plots", "--debug")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !strings.Contains(errOut, "dataset.Record") {
		t.Fatalf("expected spew dump on stderr, got:\n%s", errOut)
	}
}
