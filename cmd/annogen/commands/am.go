package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/annogen/am"
	"github.com/teranos/annogen/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage annogen configuration",
	Long: `Display and manage annogen configuration.

Configuration sources (in order of precedence):
1. Environment variables (ANNOGEN_* prefix, e.g. ANNOGEN_GENERATOR_MAX_ROUNDS)
2. Project config (annogen.toml, searched upward from the current directory, or --config)
3. User config (~/.annogen/annogen.toml)
4. System config (/etc/annogen/annogen.toml)
5. Default values

Examples:
  annogen am show                    # Show current configuration
  annogen am show --format json      # Show configuration in JSON format
  annogen am show --sources          # Show where every setting comes from
  annogen am get generator.max_rounds
  annogen am init                    # Write annogen.toml with the defaults
  annogen am validate                # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with the defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAmInit,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate the merged configuration and report unknown keys in every config file",
	RunE:  runAmValidate,
}

var (
	configFormat string
	showSources  bool
	initForce    bool
	initUser     bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amShowCmd.Flags().BoolVar(&showSources, "sources", false, "Show the source of every setting")
	amInitCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file (keeps a .back1 backup)")
	amInitCmd.Flags().BoolVar(&initUser, "user", false, "Write ~/.annogen/annogen.toml instead of ./annogen.toml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amInitCmd)
	AmCmd.AddCommand(amValidateCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	if showSources {
		return showConfigSources(cmd)
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	out := cmd.OutOrStdout()
	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(out, string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# annogen configuration\n%s", data)

	case "toml":
		data, err := am.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s", data)

	default:
		return errors.NewInvalidArgumentError("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	return nil
}

func showConfigSources(cmd *cobra.Command) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return err
	}

	if intro.ConfigFile != "" {
		pterm.Info.Printf("Project config: %s\n", intro.ConfigFile)
	} else {
		pterm.Info.Println("Project config: none (using defaults)")
	}

	data := pterm.TableData{{"Key", "Value", "Source", "From"}}
	for _, s := range intro.Settings {
		data = append(data, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render(); err != nil {
		return err
	}

	for _, k := range intro.Unknown {
		pterm.Warning.Printf("unknown key %s\n", k)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v, err := am.GetViper()
	if err != nil {
		return err
	}
	if !v.IsSet(key) {
		return errors.NewNotFoundError("configuration key %q not found", key)
	}

	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := am.ConfigFileName
	switch {
	case len(args) == 1:
		path = args[0]
	case initUser:
		path = am.UserConfigPath()
		if path == "" {
			return errors.New("could not determine home directory")
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	if err := am.WriteDefault(path, initForce); err != nil {
		return err
	}
	pterm.Success.Printf("Wrote %s\n", path)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	am.Reset()
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}

	unknown := am.UnknownKeys()
	for _, k := range unknown {
		pterm.Warning.Printf("unknown key %s\n", k)
	}
	if len(unknown) > 0 {
		return errors.Newf("configuration has %d unknown key(s)", len(unknown))
	}

	pterm.Success.Println("Configuration is valid")
	return nil
}
