package logger

// OutputCategory defines a category of output that can be enabled/disabled.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputDiagnostics OutputCategory = iota // Build diagnostics (errors, warnings, notes)
	OutputUserStatus                        // Final success/failure status

	// Level 1 (-v) - Informational
	OutputRoundProgress   // "round 2: 3 files emitted"
	OutputProcessorStatus // Processors registered, claimed markers

	// Level 2 (-vv) - Detailed
	OutputTiming   // Round and load timing
	OutputConfig   // Config values loaded/applied
	OutputPackages // Packages loaded for each round

	// Level 3 (-vvv) - Debug
	OutputUnits // Each unit of work and its target
	OutputFiles // Each output file allocated

	// Level 4 (-vvvv) - Full dump
	OutputRenderedSource // Rendered generated source
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputDiagnostics: VerbosityUser,
	OutputUserStatus:  VerbosityUser,

	OutputRoundProgress:   VerbosityInfo,
	OutputProcessorStatus: VerbosityInfo,

	OutputTiming:   VerbosityDebug,
	OutputConfig:   VerbosityDebug,
	OutputPackages: VerbosityDebug,

	OutputUnits: VerbosityTrace,
	OutputFiles: VerbosityTrace,

	OutputRenderedSource: VerbosityAll,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}

var categoryNames = map[OutputCategory]string{
	OutputDiagnostics:     "diagnostics",
	OutputUserStatus:      "status",
	OutputRoundProgress:   "round-progress",
	OutputProcessorStatus: "processor-status",
	OutputTiming:          "timing",
	OutputConfig:          "config",
	OutputPackages:        "packages",
	OutputUnits:           "units",
	OutputFiles:           "files",
	OutputRenderedSource:  "rendered-source",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}
