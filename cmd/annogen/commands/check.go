package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/annogen/display"
	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/host"
)

// CheckCmd verifies that generated files are up to date
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that generated files are up to date",
	Long: `Generate in memory and compare with the files in the module. Nothing is
written. Exits non-zero when a file is missing, differs, or was generated by
an earlier run but no longer is. Suitable for CI.

Examples:
  annogen check
  annogen check -C ./service`,
	RunE: runCheck,
}

func init() {
	CheckCmd.Flags().BoolP("json", "j", false, "Output the result as JSON")
	addSessionFlags(CheckCmd)
}

// checkReport is the JSON form of a check
type checkReport struct {
	UpToDate bool     `json:"up_to_date"`
	Missing  []string `json:"missing,omitempty"`
	Stale    []string `json:"stale,omitempty"`
	Orphaned []string `json:"orphaned,omitempty"`
	Files    int      `json:"files"`
	Errors   int      `json:"errors"`
	Warnings int      `json:"warnings"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	manifest, err := s.loadManifest()
	if err != nil {
		return err
	}

	reporter := s.reporter()
	result, err := host.Check(contextOf(cmd), s.processors, reporter, s.load, host.CheckOptions{
		Root:          s.root,
		Manifest:      manifest,
		DriverOptions: s.driverOptions(reporter),
	})
	if err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		report := checkReport{
			UpToDate: result.UpToDate,
			Missing:  s.relAll(result.Missing),
			Stale:    s.relAll(result.Stale),
			Orphaned: s.relAll(result.Orphaned),
			Files:    len(result.Run.Files),
			Errors:   result.Run.Errors,
			Warnings: result.Run.Warnings,
		}
		if err := display.OutputJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		for _, p := range result.Missing {
			pterm.Warning.Printf("missing  %s\n", s.rel(p))
		}
		for _, p := range result.Stale {
			pterm.Warning.Printf("stale    %s\n", s.rel(p))
		}
		for _, p := range result.Orphaned {
			pterm.Warning.Printf("orphaned %s\n", s.rel(p))
		}
	}

	if result.UpToDate {
		pterm.Success.Printf("%d generated file(s) up to date\n", len(result.Run.Files))
		return nil
	}
	if !result.Run.OK() {
		return errors.Newf("generation failed with %d error(s)", result.Run.Errors)
	}
	return errors.WithHint(
		errors.Newf("%d generated file(s) out of date", len(result.Missing)+len(result.Stale)+len(result.Orphaned)),
		"run 'annogen run --prune' and commit the result",
	)
}
