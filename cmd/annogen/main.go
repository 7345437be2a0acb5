package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/annogen/am"
	"github.com/teranos/annogen/cmd/annogen/commands"
	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/logger"
	"github.com/teranos/annogen/plugin"
	"github.com/teranos/annogen/processors/builder"
	"github.com/teranos/annogen/processors/enum"
	"github.com/teranos/annogen/version"
)

var (
	configFile string
	jsonLogs   bool
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "annogen",
	Short: "annogen - compile-time code generation from //annogen: directives",
	Long: `annogen - compile-time code generation from //annogen: directives.

annogen loads a Go module, finds declarations carrying //annogen:<marker>
directives and hands them to the processors that support each marker. The
processors build generated code in memory and annogen writes it next to the
annotated declarations, reporting problems against the exact declaration,
directive or attribute that caused them.

Available commands:
  run      - Generate sources (once, or continuously with --watch)
  check    - Verify that generated files are up to date
  list     - List available processors
  am       - Manage annogen configuration
  version  - Show version information

Examples:
  annogen run                  # Generate for the module in the current directory
  annogen run -w               # Regenerate on every change
  annogen check                # Fail if generated files are stale
  annogen am show --sources    # Show configuration and where it comes from`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			am.SetConfigFile(configFile)
		}
		if noColor {
			pterm.DisableColor()
		}

		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput := jsonLogs
		// Config errors surface in the command itself; logging falls back to flags
		if cfg, err := am.Load(); err == nil {
			if cfg.Log.Verbosity > verbosity {
				verbosity = cfg.Log.Verbosity
			}
			jsonOutput = jsonOutput || cfg.Log.JSON
		}
		if err := logger.Initialize(jsonOutput, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
}

func init() {
	initializeRegistry()

	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: nearest annogen.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.ListCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

// initializeRegistry registers the built-in processors
func initializeRegistry() {
	registry := plugin.NewRegistry(version.Version)
	registry.MustRegister(builder.New())
	registry.MustRegister(enum.New())
	plugin.SetDefaultRegistry(registry)
}

func main() {
	err := rootCmd.Execute()
	logger.Cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}
