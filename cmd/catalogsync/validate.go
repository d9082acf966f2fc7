package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config file and print the resolved providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config %s: OK\n", path)
			fmt.Fprintf(out, "catalog: %s\n", cfg.Catalog.BaseURL)
			for _, provider := range cfg.Providers {
				fmt.Fprintf(out, "provider %s: workspace=%s path=%s interval=%s\n",
					provider.ProviderName(), provider.Workspace,
					provider.EffectiveCatalogPath(), provider.Interval)
			}
			return nil
		},
	}
}
