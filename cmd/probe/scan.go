package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/probe/internal/discovery"
	"github.com/steveyegge/probe/internal/discovery/sdk"
	"github.com/steveyegge/probe/internal/discovery/workers"
	"github.com/steveyegge/probe/internal/storage"
)

var scanFlags struct {
	target  string
	env     string
	out     string
	workers int
	probes  []string
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the probes for an environment against a project",
	Long: `Run every probe registered for the environment against the target
project and write the collected findings to <out>/<env>_findings.json.

Built-in probes cover RestAssured test suites (env "test"). YAML probes
found in the configured probe directory are registered alongside them.

Examples:
  probe scan -t ./warehouse-tests                 # env "test", default output dir
  probe scan -t ./warehouse-tests -o out --workers 2
  probe scan -t ./warehouse-tests --probes ra-auth-patterns,ra-endpoint-census`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	f := scanCmd.Flags()
	f.StringVarP(&scanFlags.target, "target", "t", "", "Project directory to scan (required)")
	f.StringVarP(&scanFlags.env, "env", "e", workers.EnvTest, "Environment whose probes are run")
	f.StringVarP(&scanFlags.out, "out", "o", "", "Findings output directory (default from config)")
	f.IntVar(&scanFlags.workers, "workers", 0, "Probes run in parallel (default from config)")
	f.StringSliceVar(&scanFlags.probes, "probes", nil, "Comma-separated probe names (default: all for the env)")
	_ = scanCmd.MarkFlagRequired("target")
}

func runScan(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(scanFlags.target); err != nil {
		return fmt.Errorf("target %s: %w", scanFlags.target, err)
	}

	registry, err := newProbeRegistry(cfg.ProbeDir)
	if err != nil {
		return err
	}

	selected := cfg.Probes
	if cmd.Flags().Changed("probes") {
		selected = scanFlags.probes
	}
	probes, err := registry.Select(scanFlags.env, selected)
	if err != nil {
		return err
	}
	if len(probes) == 0 {
		return fmt.Errorf("unsupported environment %q (available: %s)",
			scanFlags.env, strings.Join(registry.Envs(), ", "))
	}

	n := cfg.Workers
	if cmd.Flags().Changed("workers") {
		n = scanFlags.workers
	}
	outDir := cfg.OutDir
	if cmd.Flags().Changed("out") {
		outDir = scanFlags.out
	}

	result := discovery.NewOrchestrator(n).Run(cmd.Context(), probes, scanFlags.target, scanFlags.env)

	path, err := storage.WriteFindings(outDir, scanFlags.env, result.Dossier.Findings)
	if err != nil {
		return err
	}

	printScanResult(cmd, result, path)
	return nil
}

// newProbeRegistry registers the built-in probes plus the YAML probes in
// probeDir.
func newProbeRegistry(probeDir string) (*discovery.Registry, error) {
	registry := discovery.NewRegistry()
	if err := workers.RegisterAll(registry); err != nil {
		return nil, fmt.Errorf("registering probes: %w", err)
	}

	if probeDir == "" {
		return registry, nil
	}
	custom, err := sdk.LoadYAMLProbesFromDir(probeDir)
	if err != nil {
		return nil, fmt.Errorf("loading YAML probes from %s: %w", probeDir, err)
	}
	for _, p := range custom {
		if err := registry.Register(p); err != nil {
			return nil, fmt.Errorf("registering YAML probe: %w", err)
		}
	}
	return registry, nil
}

func printScanResult(cmd *cobra.Command, result *discovery.CollectionResult, path string) {
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s\n\n", cyan("=== Scan Results ==="))
	fmt.Fprintln(out, result.Summary())

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\n%s\n", red("Failed probes:"))
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  %s %s %s\n", red("✗"), e.Probe, gray(e.Err.Error()))
		}
	}

	fmt.Fprintf(out, "\n%s Findings written to %s\n", green("✓"), path)
}
