package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/larkops/bittest/packages/core/config"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	envFlag       string
	configDirFlag string
	logLevelFlag  string
	noColorFlag   bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "bittest",
	Short: "Run API tests stored in a Bitable table",
	Long: `bittest reads HTTP test cases from a Lark Bitable table, executes
them against a target API, and writes the outcomes back into the
table so the results are visible next to the cases themselves.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitTestFailure)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", getEnvString("BITTEST_ENV", config.DefaultEnvironment), "Environment to use (env: BITTEST_ENV)")
	rootCmd.PersistentFlags().StringVarP(&configDirFlag, "config-dir", "c", getEnvString("BITTEST_CONFIG_DIR", "config"), "Configuration directory (env: BITTEST_CONFIG_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level override: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("BITTEST_NO_COLOR", false), "Disable colored output (env: BITTEST_NO_COLOR)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(envsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

// loadConfig resolves the active environment's configuration and builds the
// logger from it. The logger is stored in the package-level variable so
// every command shares one instance.
func loadConfig() (*config.Config, error) {
	mgr := config.NewManager(configDirFlag)
	cfg, err := mgr.Load(envFlag)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	logger, err = newLogger(level, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	if format != "json" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if !noColorFlag {
			zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}
	return zcfg.Build()
}
