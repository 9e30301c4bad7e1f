// Package detector provides environment detection for output mode selection.
package detector

import (
	"os"

	"golang.org/x/term"
)

// OutputMode represents the rendering mode for the application.
type OutputMode int

const (
	// ModeLinear is plain, colored terminal output.
	ModeLinear OutputMode = iota
	// ModeJSON is newline-delimited JSON, for CI and tooling consumption.
	ModeJSON
)

// DetectEnvironment returns the recommended output mode based on the
// environment: JSON when stdout is not a terminal or CI is set, linear
// otherwise.
func DetectEnvironment() OutputMode {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return ModeJSON
	}
	return ModeLinear
}

// ResolveMode applies a user override flag to auto-detection. userFlag
// should be one of: "auto", "linear", "json", or empty.
func ResolveMode(autoDetected OutputMode, userFlag string) OutputMode {
	switch userFlag {
	case "linear":
		return ModeLinear
	case "json":
		return ModeJSON
	case "auto", "":
		return autoDetected
	default:
		return autoDetected
	}
}
