package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbogarthyde/backstage/internal/adapters/driven/auth"
	"github.com/jbogarthyde/backstage/internal/adapters/driven/catalog"
	configfile "github.com/jbogarthyde/backstage/internal/adapters/driven/config/file"
	"github.com/jbogarthyde/backstage/internal/adapters/driven/events"
	"github.com/jbogarthyde/backstage/internal/adapters/driven/storage/sqlite"
	"github.com/jbogarthyde/backstage/internal/connectors/bitbucket"
	"github.com/jbogarthyde/backstage/internal/core/domain"
	"github.com/jbogarthyde/backstage/internal/core/ports/driven"
	"github.com/jbogarthyde/backstage/internal/core/services"
	"github.com/jbogarthyde/backstage/internal/logger"
)

func newRunCmd() *cobra.Command {
	var (
		flagListen  string
		flagDataDir string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sync daemon (scheduled refresh + webhook listener)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			return runDaemon(cmd.Context(), cfg, path, flagListen, flagDataDir)
		},
	}

	cmd.Flags().StringVar(&flagListen, "listen", ":8042", "webhook listen address")
	cmd.Flags().StringVar(&flagDataDir, "data-dir", "", "scheduler state directory (default ~/.catalogsync/data)")

	return cmd
}

func runDaemon(parent context.Context, cfg *configfile.Config, cfgPath, listen, dataDir string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bbTokens, err := bitbucketTokens(cfg)
	if err != nil {
		return err
	}
	catalogTokens := auth.NewStaticProvider(cfg.Catalog.Token)

	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, catalogTokens)

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("open scheduler store: %w", err)
	}
	defer store.Close()

	scheduler := services.NewScheduler(store.SchedulerStore())
	hub := events.NewHub()

	engines, err := buildEngines(cfg, bbTokens, catalogClient, catalogTokens)
	if err != nil {
		return err
	}
	for _, entry := range engines {
		scheduler.Register(entry.engine, entry.interval)
		for _, topic := range entry.engine.Topics() {
			engine := entry.engine
			hub.Subscribe(topic, engine.OnEvent)
		}
		logger.Info("%s: registered (workspace %s, task %s)",
			entry.engine.ProviderName(), entry.workspace, entry.engine.TaskID())
	}

	// Webhook listener
	mux := http.NewServeMux()
	mux.Handle("/webhooks/bitbucket", events.NewWebhookHandler(hub))
	server := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("webhook listener on %s", listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		errCh <- scheduler.Start(ctx)
	}()

	// Config change notification (no hot reload)
	if changes, err := configfile.Watch(ctx, cfgPath); err != nil {
		logger.Warn("config watcher disabled: %v", err)
	} else {
		go func() {
			for range changes {
				logger.Warn("config file %s changed; restart to apply", cfgPath)
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			stop()
			shutdown(server, scheduler)
			return err
		}
	}

	shutdown(server, scheduler)
	return nil
}

func shutdown(server *http.Server, scheduler *services.Scheduler) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	_ = scheduler.Stop()
}

type engineEntry struct {
	engine    *services.Engine
	interval  time.Duration
	workspace string
}

// buildEngines wires one engine per configured provider: a scoped scanner
// over the shared Bitbucket client, the catalog mutation connection, and
// the delta-refresh collaborators.
func buildEngines(
	cfg *configfile.Config,
	bbTokens driven.TokenProvider,
	catalogClient *catalog.Client,
	catalogTokens driven.TokenProvider,
) ([]engineEntry, error) {
	var clientOpts []bitbucket.Option
	if cfg.Bitbucket.BaseURL != "" {
		clientOpts = append(clientOpts, bitbucket.WithBaseURL(cfg.Bitbucket.BaseURL))
	}
	client := bitbucket.NewClient(bbTokens, clientOpts...)

	entries := make([]engineEntry, 0, len(cfg.Providers))
	for _, provider := range cfg.Providers {
		scanner := bitbucket.NewScanner(client, provider)
		engine, err := services.NewEngine(provider, scanner,
			services.WithCatalogAPI(catalogClient, catalogTokens))
		if err != nil {
			return nil, err
		}
		if err := engine.Connect(catalogClient); err != nil {
			return nil, err
		}
		entries = append(entries, engineEntry{
			engine:    engine,
			interval:  provider.Interval,
			workspace: provider.Workspace,
		})
	}
	return entries, nil
}

// bitbucketTokens builds the Bitbucket token provider from config.
func bitbucketTokens(cfg *configfile.Config) (driven.TokenProvider, error) {
	switch cfg.Bitbucket.Auth {
	case "", "static":
		return auth.NewStaticProvider(cfg.Bitbucket.Token), nil
	case "oauth":
		if cfg.Bitbucket.ClientID == "" || cfg.Bitbucket.ClientSecret == "" {
			return nil, fmt.Errorf("%w: bitbucket oauth requires client_id and client_secret",
				domain.ErrInvalidConfig)
		}
		return auth.NewOAuthProvider(cfg.Bitbucket.ClientID, cfg.Bitbucket.ClientSecret, ""), nil
	default:
		return nil, fmt.Errorf("%w: unknown bitbucket auth method %q",
			domain.ErrInvalidConfig, cfg.Bitbucket.Auth)
	}
}
