package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larkops/bittest/packages/core/config"
)

var envsCmd = &cobra.Command{
	Use:   "envs",
	Short: "List the environments that have a configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := config.NewManager(configDirFlag)
		envs := mgr.ListEnvironments()
		if len(envs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no environments in %s (run 'bittest init' to create one)\n", mgr.Dir())
			return nil
		}
		for _, env := range envs {
			marker := " "
			if env == envFlag {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, env)
		}
		return nil
	},
}
