package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/larkops/bittest/packages/bitable"
	"github.com/larkops/bittest/packages/configtable"
	"github.com/larkops/bittest/packages/core/config"
	"github.com/larkops/bittest/packages/core/runner"
	"github.com/larkops/bittest/packages/http"
	"github.com/larkops/bittest/packages/output"
)

const (
	// WatchDebounceDelay is the debounce delay for config watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	tableFlag         string
	outputFlag        string
	outputFileFlag    string
	verboseFlag       bool
	watchFlag         bool
	ensureColumnsFlag bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load cases from the table, execute them, write results back",
	Long: `Run every test case in the configured Bitable table.

Examples:
  bittest run
  bittest run --env staging
  bittest run --table tblXXXX --output json
  bittest run --watch`,
	RunE: runCommand,
}

func init() {
	runCmd.Flags().StringVarP(&tableFlag, "table", "t", "", "Table ID override")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("BITTEST_OUTPUT", "console"), "Output format: console, json, junit (env: BITTEST_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", "", "Write output to file (default: stdout)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the config directory and re-run on changes")
	runCmd.Flags().BoolVar(&ensureColumnsFlag, "ensure-columns", true, "Create missing result columns before running")
}

func newFormatter(w *os.File) (output.Formatter, error) {
	switch strings.ToLower(outputFlag) {
	case "json":
		opts := []output.JSONOption{}
		if w != nil {
			opts = append(opts, output.JSONWithWriter(w))
		}
		return output.NewJSONFormatter(opts...), nil
	case "junit":
		opts := []output.JUnitOption{}
		if w != nil {
			opts = append(opts, output.JUnitWithWriter(w))
		}
		return output.NewJUnitFormatter(opts...), nil
	case "console":
		opts := []output.ConsoleOption{
			output.WithVerbose(verboseFlag),
			output.WithNoColor(noColorFlag),
		}
		if w != nil {
			opts = append(opts, output.WithWriter(w))
		}
		return output.NewConsoleFormatter(opts...), nil
	}
	return nil, fmt.Errorf("unknown output format %q", outputFlag)
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if tableFlag != "" {
		cfg.TableID = tableFlag
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(cmd.ErrOrStderr(), "config: %s\n", p)
		}
		os.Exit(ExitConfigError)
	}

	var outWriter *os.File
	if outputFileFlag != "" {
		outWriter, err = os.Create(outputFileFlag)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer outWriter.Close()
	}

	formatter, err := newFormatter(outWriter)
	if err != nil {
		return err
	}
	formatter.FormatHeader(version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	results, err := runOnce(ctx, cfg, formatter)
	if err != nil {
		formatter.FormatError(err)
		return err
	}

	if !watchFlag {
		if results.Failed > 0 {
			os.Exit(ExitTestFailure)
		}
		return nil
	}

	return watchAndRerun(ctx, cmd, formatter)
}

// runOnce wires the table client, executor, and runner for one full cycle.
func runOnce(ctx context.Context, cfg *config.Config, formatter output.Formatter) (*runner.Results, error) {
	table, err := bitable.NewClient(cfg.PersonalToken, cfg.AppToken,
		bitable.WithDomain(cfg.Domain),
		bitable.WithTimeout(cfg.Timeout()),
		bitable.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	defer table.Close()

	baseURL := cfg.APIBaseURL
	if cfg.ConfigTableID != "" {
		reader := configtable.NewReader(table, cfg.ConfigTableID, configtable.WithLogger(logger))
		if host := reader.APIBaseURL(ctx); host != "" {
			baseURL = host
		}
	}

	exec := http.NewExecutor(
		http.WithBaseURL(baseURL),
		http.WithTimeout(cfg.Timeout()),
		http.WithMaxRetries(cfg.MaxRetries),
		http.WithRetryDelay(cfg.RetryDelayDuration()),
		http.WithLogger(logger),
	)
	defer exec.Close()

	r := runner.New(table, exec, runner.Config{
		TableID:       cfg.TableID,
		CaseDelay:     cfg.RequestDelayDuration(),
		MaxBodyLength: cfg.MaxResponseLength,
		EnsureColumns: ensureColumnsFlag,
	}, runner.WithLogger(logger))

	results, err := r.Run(ctx)
	if err != nil {
		return nil, err
	}
	formatter.FormatResults(results)
	return results, nil
}

// watchAndRerun re-runs the suite whenever a config file changes.
func watchAndRerun(ctx context.Context, cmd *cobra.Command, formatter output.Formatter) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(configDirFlag); err != nil {
		return fmt.Errorf("failed to watch %s: %w", configDirFlag, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes... (press Ctrl+C to stop)\n", configDirFlag)

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) || filepath.Ext(event.Name) != ".yaml" {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nConfig changed: %s\nRe-running cases...\n", event.Name)

				cfg, err := loadConfig()
				if err != nil {
					formatter.FormatError(err)
					return
				}
				if tableFlag != "" {
					cfg.TableID = tableFlag
				}
				if problems := cfg.Validate(); len(problems) > 0 {
					formatter.FormatError(fmt.Errorf("config invalid: %s", strings.Join(problems, "; ")))
					return
				}
				if _, err := runOnce(ctx, cfg, formatter); err != nil {
					formatter.FormatError(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes... (press Ctrl+C to stop)\n", configDirFlag)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}
