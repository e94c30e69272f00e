package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/probe/internal/analysis"
	"github.com/steveyegge/probe/internal/format"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered probes and analyzers",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	registry, err := newProbeRegistry(cfg.ProbeDir)
	if err != nil {
		return err
	}
	analyzers := analysis.DefaultRegistry()

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	out := cmd.OutOrStdout()

	probes := format.NewTable(format.Terminal, "Env", "Probe")
	for _, env := range registry.Envs() {
		for _, p := range registry.ForEnv(env) {
			probes.Row(env, p.Name())
		}
	}
	fmt.Fprintf(out, "%s\n%s\n", cyan("Probes:"), probes)

	described := format.NewTable(format.Terminal, "Analyzer", "Description")
	for _, name := range analyzers.Names() {
		a, err := analyzers.New(name)
		if err != nil {
			return err
		}
		described.Row(name, a.Description())
	}
	fmt.Fprintf(out, "\n%s\n%s\n", cyan("Analyzers:"), described)
	return nil
}
