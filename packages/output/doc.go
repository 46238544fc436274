// Package output provides formatters for displaying run results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output
//   - JUnit: JUnit XML format for CI integration
//
// Each formatter implements the Formatter interface.
package output

import "github.com/larkops/bittest/packages/core/runner"

// Formatter renders one run of results.
type Formatter interface {
	FormatHeader(version string)
	FormatResults(results *runner.Results)
	FormatError(err error)
}
