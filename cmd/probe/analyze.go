package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/probe/internal/analysis"
	"github.com/steveyegge/probe/internal/storage"
)

var analyzeFlags struct {
	findings  string
	analyzers []string
	out       string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Derive entity models and state machines from findings",
	Long: `Run analyzers over collected findings and print their summaries.

Findings are read from --findings (a file or a directory of *.json files).
Without --findings, $PROBE_FINDINGS or the configured output directory is used.

Examples:
  probe analyze                                   # all configured analyzers
  probe analyze -f findings --analyzer state-machine
  probe analyze --out results.json                # also write JSON results`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeFlags.findings, "findings", "f", "", "Findings file or directory")
	f.StringSliceVar(&analyzeFlags.analyzers, "analyzer", nil, "Analyzer ids to run (default from config)")
	f.StringVar(&analyzeFlags.out, "out", "", "Write analysis results as JSON to this file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path, err := findingsPath(analyzeFlags.findings)
	if err != nil {
		return err
	}

	findings, err := storage.LoadFindings(path)
	if err != nil {
		return err
	}

	names := analyzeFlags.analyzers
	if len(names) == 0 {
		names = cfg.Analyzers
	}

	results, err := analysis.DefaultRegistry().RunAll(names, findings)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", gray(fmt.Sprintf("%d findings from %s", len(findings), path)))
	for _, r := range results {
		fmt.Fprintf(out, "\n%s\n", cyan(fmt.Sprintf("=== %s ===", r.Analyzer)))
		fmt.Fprintln(out, r.Summary)
	}

	if analyzeFlags.out != "" {
		if err := storage.WriteResults(analyzeFlags.out, results); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s Results written to %s\n", green("✓"), analyzeFlags.out)
	}
	return nil
}

// findingsPath returns the explicit path or discovers one from the config.
func findingsPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	return storage.DiscoverFindings(cfg.OutDir)
}
