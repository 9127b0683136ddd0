package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/resolvarr/resolvarr/internal/config"
	"github.com/resolvarr/resolvarr/internal/database"
	internalhttp "github.com/resolvarr/resolvarr/internal/http"
	"github.com/resolvarr/resolvarr/internal/http/handlers"
	"github.com/resolvarr/resolvarr/internal/httpclient"
	"github.com/resolvarr/resolvarr/internal/monitor"
	"github.com/resolvarr/resolvarr/internal/repository"
	"github.com/resolvarr/resolvarr/internal/resolver"
	"github.com/resolvarr/resolvarr/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the resolvarr server",
	Long: `Start the resolvarr HTTP server and API.

The server provides:
- REST API for resolving streams and checking media compatibility
- Capability profile management
- Health check endpoints
- OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8474, "Port to listen on")
	serveCmd.Flags().String("upstream", "http://localhost:11470", "Streaming server base URL")
	serveCmd.Flags().String("platform", "web", "Playback platform (ios, android, web)")

	mustBindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	mustBindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	mustBindPFlag("upstream.base_url", serveCmd.Flags().Lookup("upstream"))
	mustBindPFlag("upstream.platform", serveCmd.Flags().Lookup("platform"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := database.New(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	if err := db.SeedDefaultProfiles(ctx); err != nil {
		return fmt.Errorf("seeding capability profiles: %w", err)
	}

	// Repositories
	profileRepo := repository.NewCapabilityProfileRepository(db.DB)
	resolutionRepo := repository.NewResolutionRepository(db.DB)

	// Upstream HTTP client
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.Upstream.ProbeTimeout
	clientCfg.RetryAttempts = cfg.HTTPClient.RetryAttempts
	clientCfg.RetryDelay = cfg.HTTPClient.RetryDelay
	if cfg.HTTPClient.UserAgent != "" {
		clientCfg.UserAgent = cfg.HTTPClient.UserAgent
	}
	clientCfg.Logger = logger
	upstreamClient := httpclient.New(clientCfg)

	// Resolver
	res := resolver.New(cfg.Upstream.BaseURL).
		WithPlatform(cfg.Upstream.PlaybackPlatform()).
		WithHTTPClient(upstreamClient).
		WithLogger(logger)

	// The stored default profile for the platform overrides the built-in one.
	if stored, err := profileRepo.GetDefaultForPlatform(ctx, string(res.Platform())); err != nil {
		logger.Warn("loading default capability profile failed", slog.String("error", err.Error()))
	} else if stored != nil {
		if err := res.SetCapabilities(stored.Capabilities()); err != nil {
			logger.Warn("stored capability profile invalid, using built-in defaults",
				slog.String("profile", stored.Name),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("loaded capability profile", slog.String("profile", stored.Name))
		}
	}

	// Upstream monitor
	mon := monitor.New(res, resolutionRepo, cfg.Monitor, logger)
	if err := mon.Start(ctx); err != nil {
		return fmt.Errorf("starting upstream monitor: %w", err)
	}
	defer mon.Stop()

	// HTTP server and handlers
	server := internalhttp.NewServer(cfg.Server, logger, version.Short())

	handlers.NewHealthHandler(version.Short()).
		WithDB(db.DB).
		WithMonitor(mon).
		Register(server.API())
	handlers.NewVersionHandler().Register(server.API())
	handlers.NewStreamHandler(res).
		WithResolutionRepository(resolutionRepo).
		WithProfileRepository(profileRepo).
		WithLogger(logger).
		Register(server.API())
	handlers.NewCapabilityProfileHandler(profileRepo).Register(server.API())
	handlers.NewResolutionHandler(resolutionRepo).Register(server.API())

	logger.Info("resolvarr starting",
		slog.String("version", version.Short()),
		slog.String("upstream", res.BaseURL()),
		slog.String("platform", string(res.Platform())),
	)

	// Shut down on SIGINT/SIGTERM.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	return server.ListenAndServe(ctx)
}
