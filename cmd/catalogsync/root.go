package main

import (
	"fmt"

	"github.com/spf13/cobra"

	configfile "github.com/jbogarthyde/backstage/internal/adapters/driven/config/file"
	"github.com/jbogarthyde/backstage/internal/logger"
)

var (
	flagConfig  string
	flagVerbose bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "catalogsync",
		Short: "Sync Bitbucket Cloud catalog files into the catalog",
		Long: `catalogsync scans Bitbucket Cloud workspaces for catalog files and keeps
the downstream catalog's location records in sync: a scheduled full refresh
rebuilds each provider's owned set, and push webhooks trigger incremental
updates for the pushed repository.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetVerbose(flagVerbose)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.catalogsync/config.toml)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newRefreshCmd())
	root.AddCommand(newValidateCmd())

	return root
}

// loadConfig resolves the config path and loads the file.
func loadConfig() (*configfile.Config, string, error) {
	path := flagConfig
	if path == "" {
		var err error
		path, err = configfile.DefaultPath()
		if err != nil {
			return nil, "", err
		}
	}
	cfg, err := configfile.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, path, nil
}
