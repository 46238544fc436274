package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/larkops/bittest/packages/core/config"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration directory",
	Long: `Create the configuration directory with a default.yaml template.

This creates:
  - <config-dir>/default.yaml - Configuration template to fill in

Examples:
  bittest init
  bittest init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func initCommand(cmd *cobra.Command, args []string) error {
	mgr := config.NewManager(configDirFlag)
	configFile := filepath.Join(mgr.Dir(), "default.yaml")

	if !forceInit {
		if _, err := os.Stat(configFile); err == nil {
			return fmt.Errorf("file already exists: %s (use --force to overwrite)", configFile)
		}
	}

	cfg := config.Default()
	cfg.PersonalToken = "pt-your-token-here"
	cfg.AppToken = "your-app-token-here"
	cfg.TableID = "your-table-id-here"

	if err := mgr.Save(cfg, config.DefaultEnvironment); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nFill in personal_token, app_token, and table_id, then run 'bittest run'.\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Add <env>.yaml files next to it for per-environment overrides.\n")
	return nil
}
