package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbogarthyde/backstage/internal/adapters/driven/auth"
	"github.com/jbogarthyde/backstage/internal/adapters/driven/catalog"
)

func newRefreshCmd() *cobra.Command {
	var flagProvider string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run one full refresh and exit",
		Long: `Run a full refresh for every configured provider (or just the one named
with --provider) without starting the daemon. Useful for first-time
population and for debugging discovery.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			bbTokens, err := bitbucketTokens(cfg)
			if err != nil {
				return err
			}
			catalogTokens := auth.NewStaticProvider(cfg.Catalog.Token)
			catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, catalogTokens)

			engines, err := buildEngines(cfg, bbTokens, catalogClient, catalogTokens)
			if err != nil {
				return err
			}

			matched := false
			for _, entry := range engines {
				if flagProvider != "" && entry.engine.ProviderName() != flagProvider {
					continue
				}
				matched = true
				count, err := entry.engine.Refresh(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d location records\n",
					entry.engine.ProviderName(), count)
			}
			if flagProvider != "" && !matched {
				return fmt.Errorf("no provider named %q", flagProvider)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagProvider, "provider", "", "refresh only the named provider")

	return cmd
}
