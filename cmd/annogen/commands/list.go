package commands

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/annogen/am"
	"github.com/teranos/annogen/display"
	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/plugin"
)

// ListCmd lists the registered processors
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available processors and the markers they handle",
	RunE:  runList,
}

func init() {
	ListCmd.Flags().BoolP("json", "j", false, "Output processor metadata as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	registry := plugin.GetDefaultRegistry()
	if registry == nil {
		return errors.New("no processor registry")
	}

	enabled := make(map[string]bool)
	if cfg, err := am.Load(); err == nil {
		for _, name := range cfg.Generator.Processors {
			enabled[name] = true
		}
	}

	if display.ShouldOutputJSON(cmd) {
		var metas []plugin.Metadata
		for _, p := range registry.All() {
			metas = append(metas, p.Metadata())
		}
		return display.OutputJSON(cmd.OutOrStdout(), metas)
	}

	data := pterm.TableData{{"Processor", "Version", "Markers", "Enabled", "Description"}}
	for _, p := range registry.All() {
		meta := p.Metadata()
		markers := make([]string, len(meta.SupportedMarkers))
		for i, m := range meta.SupportedMarkers {
			markers[i] = string(m)
		}
		on := "yes"
		if len(enabled) > 0 && !enabled[meta.Name] {
			on = "no"
		}
		data = append(data, []string{meta.Name, meta.Version, strings.Join(markers, ", "), on, meta.Description})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
}
