package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/larkops/bittest/packages/core/runner"
	"github.com/larkops/bittest/packages/format"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResults(results *runner.Results) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Run "+results.RunID))

	for _, r := range results.Items {
		symbol := green("✓")
		if !r.Passed {
			symbol = red("✗")
		}

		fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, r.CaseID, cyan(format.FormatDuration(r.Elapsed)))

		if !r.Passed && r.Err != "" {
			fmt.Fprintf(f.writer, "    %s %s\n", red("→"), r.Err)
		}
		if f.verbose && r.Status != 0 {
			fmt.Fprintf(f.writer, "    Status: %d\n", r.Status)
		}
	}

	fmt.Fprintf(f.writer, "\nCases: ")
	if results.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", results.Passed)))
	}
	if results.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", results.Failed)))
	}
	if results.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", results.Skipped)))
	}
	fmt.Fprintf(f.writer, "%d total (%.1f%%)\n", results.Total, results.PassRate())
	fmt.Fprintf(f.writer, "Time:  %s\n", format.FormatDuration(results.Duration))

	if results.Latency.Count > 0 {
		fmt.Fprintf(f.writer, "Latency: p50 %s, p95 %s, p99 %s, max %s\n",
			format.FormatDuration(results.Latency.P50),
			format.FormatDuration(results.Latency.P95),
			format.FormatDuration(results.Latency.P99),
			format.FormatDuration(results.Latency.Max))
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("bittest"), version)
}
