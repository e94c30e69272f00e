package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/probe/internal/correlator"
	"github.com/steveyegge/probe/internal/storage"
)

var mapFlags struct {
	findings string
	out      string
	target   string
	env      string
}

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Write the Product Map for collected findings",
	Long: `Correlate findings across fact types and write a Markdown Product Map:
API surface, business rules, workflows, role matrix and probe statistics.

Examples:
  probe map                                       # default findings and output
  probe map -f findings/test_findings.json -o docs/product-map.md`,
	Args: cobra.NoArgs,
	RunE: runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)
	f := mapCmd.Flags()
	f.StringVarP(&mapFlags.findings, "findings", "f", "", "Findings file or directory")
	f.StringVarP(&mapFlags.out, "out", "o", "", "Product Map output path (default from config)")
	f.StringVar(&mapFlags.target, "target", "", "Target shown in the header (default: findings path)")
	f.StringVarP(&mapFlags.env, "env", "e", "", "Environment shown in the header (default: from findings)")
}

func runMap(cmd *cobra.Command, args []string) error {
	path, err := findingsPath(mapFlags.findings)
	if err != nil {
		return err
	}

	dossier, err := storage.LoadDossier(path, mapFlags.target, mapFlags.env)
	if err != nil {
		return err
	}

	out := cfg.MapFile
	if mapFlags.out != "" {
		out = mapFlags.out
	}
	if err := correlator.WriteProductMap(dossier, out); err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(cmd.OutOrStdout(), "%s Product Map written to %s (%d findings)\n",
		green("✓"), out, len(dossier.Findings))
	return nil
}
