package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larkops/bittest/packages/core/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration for the active environment",
	Long: `Show the configuration that a run would use, after layering the
default file, the environment file, and environment variables.
Credentials are masked.

Examples:
  bittest config
  bittest config --env staging`,
	RunE: configCommand,
}

func configCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "environment:         %s\n", envFlag)
	fmt.Fprintf(out, "config dir:          %s\n", configDirFlag)
	fmt.Fprintf(out, "personal_token:      %s\n", config.MaskToken(cfg.PersonalToken))
	fmt.Fprintf(out, "app_token:           %s\n", config.MaskToken(cfg.AppToken))
	fmt.Fprintf(out, "table_id:            %s\n", cfg.TableID)
	fmt.Fprintf(out, "config_table_id:     %s\n", cfg.ConfigTableID)
	fmt.Fprintf(out, "domain:              %s\n", cfg.Domain)
	fmt.Fprintf(out, "api_base_url:        %s\n", cfg.APIBaseURL)
	fmt.Fprintf(out, "request_timeout:     %ds\n", cfg.RequestTimeout)
	fmt.Fprintf(out, "max_retries:         %d\n", cfg.MaxRetries)
	fmt.Fprintf(out, "retry_delay:         %.1fs\n", cfg.RetryDelay)
	fmt.Fprintf(out, "request_delay:       %.1fs\n", cfg.RequestDelay)
	fmt.Fprintf(out, "log_level:           %s\n", cfg.LogLevel)
	fmt.Fprintf(out, "log_format:          %s\n", cfg.LogFormat)
	fmt.Fprintf(out, "max_response_length: %d\n", cfg.MaxResponseLength)

	if problems := cfg.Validate(); len(problems) > 0 {
		fmt.Fprintln(out)
		for _, p := range problems {
			fmt.Fprintf(out, "problem: %s\n", p)
		}
	}
	return nil
}
