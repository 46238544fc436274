package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/larkops/bittest/packages/bitable"
	"github.com/larkops/bittest/packages/tablecheck"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the test-case table without executing anything",
	Long: `Check every row of the test-case table against the rules the runner
applies, and report the rows it would skip.

Examples:
  bittest validate
  bittest validate --env staging
  bittest validate --table tblXXXX`,
	RunE: validateCommand,
}

func init() {
	validateCmd.Flags().StringVarP(&tableFlag, "table", "t", "", "Table ID override")
}

func validateCommand(cmd *cobra.Command, args []string) error {
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

	table, err := bitable.NewClient(cfg.PersonalToken, cfg.AppToken,
		bitable.WithDomain(cfg.Domain),
		bitable.WithTimeout(cfg.Timeout()),
		bitable.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer table.Close()

	checker, err := tablecheck.NewChecker(table, tablecheck.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := checker.Check(ctx, cfg.TableID)
	if err != nil {
		return err
	}

	if noColorFlag {
		color.NoColor = true
	}
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	out := cmd.OutOrStdout()
	for _, name := range report.MissingColumns {
		fmt.Fprintf(out, "%s missing column: %s\n", yellow("!"), name)
	}
	for _, row := range report.Rows {
		label := row.CaseID
		if label == "" {
			label = row.RecordID
		}
		fmt.Fprintf(out, "%s %s: %s\n", red("✗"), label, strings.Join(row.Problems, "; "))
	}

	fmt.Fprintf(out, "\n%d of %d rows runnable\n", report.Runnable, report.Total)
	if report.OK() {
		fmt.Fprintf(out, "%s table is valid\n", green("✓"))
		return nil
	}
	os.Exit(ExitTestFailure)
	return nil
}
