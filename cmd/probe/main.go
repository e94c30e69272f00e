// probe reverse-engineers a product model from an automated API test suite.
//
// Usage:
//
//	probe scan -t <project> [-e test] [-o findings] [--workers N]
//	probe analyze [-f findings] [--analyzer id ...] [--out results.json]
//	probe map [-f findings] [-o product-map.md]
//	probe list
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/probe/internal/config"
	"github.com/steveyegge/probe/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfg = config.Default()

	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "probe",
	Short: "Reverse-engineer a product map from API tests",
	Long: `Probe reads an automated API test suite, collects atomic findings about
endpoints, business rules, auth and workflows, then derives entity models,
state machines and a Markdown Product Map from them.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

func init() {
	rootCmd.Version = version
	f := rootCmd.PersistentFlags()
	f.StringVar(&configPath, "config", config.DefaultConfigFile, "Config file (YAML)")
	f.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	f.StringVar(&logFormat, "log-format", "", "Log format: text or json (default from config)")
}

// setup loads the config file, applies env and flag overrides, and installs
// the logger.
func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		loaded.LogLevel = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		loaded.LogFormat = logFormat
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	cfg = loaded
	logging.Init(cfg.SlogLevel(), cfg.LogFormat, cmd.ErrOrStderr())
	logging.New("cli").Debug("configuration loaded", "config", cfg.String())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
