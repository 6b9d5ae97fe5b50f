package main

import (
	"fmt"
	"strings"

	"github.com/marcelsud/commit-webhooks/config"
	"github.com/marcelsud/commit-webhooks/providers"
	"github.com/marcelsud/commit-webhooks/webhook/verification"
	"github.com/spf13/cobra"
)

func validateProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-providers [providers.yaml]",
		Short: "Load a provider catalog, check its secrets and print it",
		Long: `Load and validate a provider catalog. Without an argument the catalog the
server would use is checked: PROVIDERS_FILE when set, the built-in one otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.GetConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.ProvidersFile = args[0]
			}
			return printCatalog(cmd, cfg)
		},
	}
}

func printCatalog(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	source := cfg.ProvidersFile
	if source == "" {
		source = "built-in catalog"
	}
	fmt.Fprintf(out, "Validating providers: %s\n", source)

	catalog, err := providers.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	list := catalog.List()
	fmt.Fprintf(out, "Loaded %d provider(s):\n", len(list))

	var misconfigured []string
	for i, p := range list {
		fmt.Fprintf(out, "\n%d. Provider: %s\n", i+1, p.ID)
		fmt.Fprintf(out, "   Scheme:     %s\n", p.Scheme)
		fmt.Fprintf(out, "   Path:       %s\n", p.Path)
		fmt.Fprintf(out, "   Headers:    %s\n", strings.Join(p.RequiredHeaders(), ", "))
		fmt.Fprintf(out, "   Tolerance:  %s (skew %s)\n", p.Tolerance, p.Skew)
		fmt.Fprintf(out, "   Max body:   %d bytes\n", p.MaxBodyBytes)

		status := "ok"
		if err := verification.CheckSecret(p.Scheme, cfg.Secret(p.SecretEnv)); err != nil {
			status = err.Error()
			misconfigured = append(misconfigured, p.ID)
		}
		fmt.Fprintf(out, "   Secret:     %s (%s)\n", p.SecretEnv, status)
	}

	if len(misconfigured) > 0 {
		return fmt.Errorf("secrets misconfigured for: %s", strings.Join(misconfigured, ", "))
	}
	fmt.Fprintln(out, "\nAll providers are valid")
	return nil
}
