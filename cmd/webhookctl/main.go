package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

/* webhookctl is the operator tool for the receiver:
 * secrets and test signatures, catalog checks and schema setup.
 */

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "webhookctl",
		Short:         "Operator tool for the commit webhook receiver",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(genSecretCmd())
	rootCmd.AddCommand(signCmd())
	rootCmd.AddCommand(validateProvidersCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(addReferenceCmd())

	return rootCmd
}
