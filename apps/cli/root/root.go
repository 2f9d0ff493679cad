package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the storefront admin CLI. Subcommands (auth, bootstrap, etc.) are attached here.
var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront admin CLI",
	Long:          "Administrative utilities for the multi-tenant storefront (schema bootstrap, dev tokens, host inspection, demo data).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
