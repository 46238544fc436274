// Package cmd implements the bittest CLI commands using Cobra.
//
// Available commands:
//   - run: Execute every case in the configured table and write results back
//   - validate: Check the table without executing anything
//   - config: Show the resolved configuration with masked credentials
//   - envs: List configured environments
//   - init: Create a starter configuration directory
//   - version: Show bittest version information
//
// Every command resolves configuration the same way: built-in defaults,
// then default.yaml, then <env>.yaml, then environment variables.
package cmd
