package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/EugenePawit/expiration-tracker/config"
	"github.com/EugenePawit/expiration-tracker/metrics"
	"github.com/EugenePawit/expiration-tracker/routes"
	"github.com/EugenePawit/expiration-tracker/services"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	root := &cobra.Command{
		Use:           "expiration-tracker",
		Short:         "Food expiry reminder service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(logger), dispatchCmd(logger), vapidKeysCmd())

	if err := root.Execute(); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func serveCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (registration, sync, webhook, cron trigger)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, cleanup, err := buildDeps(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer cleanup()

			r := routes.SetupRouter(deps)
			logger.Info("listening",
				zap.String("addr", deps.Config.Addr),
				zap.String("transport", deps.Config.PushTransport),
				zap.String("store", deps.Config.StoreBackend))
			return r.Run(deps.Config.Addr)
		},
	}
}

func dispatchCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Run one dispatch pass and exit (for schedulers that exec a binary)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, cleanup, err := buildDeps(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer cleanup()

			res, runErr := deps.Dispatcher.Run(cmd.Context())
			out, _ := json.MarshalIndent(res, "", "  ")
			fmt.Println(string(out))
			return runErr
		},
	}
}

func vapidKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid-keys",
		Short: "Generate a fresh VAPID key pair for Web Push",
		RunE: func(_ *cobra.Command, _ []string) error {
			private, public, err := webpush.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			fmt.Println("VAPID_PUBLIC_KEY=" + public)
			fmt.Println("VAPID_PRIVATE_KEY=" + private)
			return nil
		},
	}
}

// buildDeps constructs the store and transport the configuration selects,
// then the dispatcher on top of them. The returned cleanup closes the store.
func buildDeps(ctx context.Context, logger *zap.Logger) (routes.Deps, func(), error) {
	none := func() {}

	cfg, err := config.Load()
	if err != nil {
		return routes.Deps{}, none, err
	}
	if err := cfg.Validate(); err != nil {
		return routes.Deps{}, none, fmt.Errorf("configuration: %w", err)
	}

	var store services.EndpointStore
	switch cfg.StoreBackend {
	case config.StoreRedis:
		store, err = services.NewRedisStore(ctx, cfg.RedisURL, logger)
	case config.StorePostgres:
		store, err = services.NewGormStore(cfg.PostgresDSN(), logger)
	case config.StoreMemory:
		store = services.NewMemoryStore()
	}
	if err != nil {
		return routes.Deps{}, none, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}

	var transport services.PushTransport
	switch cfg.PushTransport {
	case config.TransportWebPush:
		transport = services.NewWebPushTransport(cfg, logger)
	case config.TransportLine:
		transport, err = services.NewLineTransport(cfg, logger)
	case config.TransportSNS:
		transport, err = services.NewSNSTransport(ctx, cfg, logger)
	}
	if err != nil {
		store.Close()
		return routes.Deps{}, none, fmt.Errorf("init %s transport: %w", cfg.PushTransport, err)
	}

	var lineBot *services.LineBotService
	if cfg.LineChannelSecret != "" && cfg.LineChannelToken != "" {
		lineBot, err = services.NewLineBotService(cfg, store, logger)
		if err != nil {
			store.Close()
			return routes.Deps{}, none, fmt.Errorf("init LINE bot: %w", err)
		}
	}

	hub := services.NewRealtimeHub()
	m := metrics.NewDispatchMetrics()
	dispatcher := services.NewDispatcher(store, transport, services.NewComposer(cfg), hub, m, logger, cfg)

	deps := routes.Deps{
		Config:     cfg,
		Store:      store,
		Transport:  transport,
		Dispatcher: dispatcher,
		Hub:        hub,
		LineBot:    lineBot,
		Metrics:    m,
		Logger:     logger,
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}
	return deps, cleanup, nil
}
