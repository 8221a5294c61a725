package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/otahub/device-registry/internal/api"
	"github.com/otahub/device-registry/internal/catalog"
	"github.com/otahub/device-registry/internal/config"
	"github.com/otahub/device-registry/internal/devices"
	"github.com/otahub/device-registry/internal/sources"
	"github.com/otahub/device-registry/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the device registry API server",
	Long: `Start the device registry API server to serve merged device data.

The server requires a configuration file (--config) that specifies:
- The OTA catalog directories
- The auxiliary device info sources and their merge settings
- All other operational settings

See examples/ directory for a sample configuration.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	serverRequestTimeout   = 10 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second // Must be > serverRequestTimeout to let middleware handle timeout
	serverIdleTimeout      = 60 * time.Second
)

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides the config file)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		slog.Error("Failed to bind config flag", "error", err)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	setupLogging(viper.GetBool("debug"))

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"catalogs", len(cfg.Catalog),
		"sources", len(cfg.Sources))

	token, err := cfg.GetToken()
	if err != nil {
		return fmt.Errorf("failed to resolve access token: %w", err)
	}

	// The source cache is built exactly once, here. Queries never fetch.
	cache := sources.LoadSources(ctx, cfg.Sources, sources.WithToken(token))
	slog.Info("Source cache ready", "loaded", cache.Len(), "configured", len(cfg.Sources))

	catalogReader := catalog.NewReader(cfg.Catalog)
	reader := devices.NewReader(catalogReader, cache)

	metrics := telemetry.NewMetrics()
	router := api.NewServer(reader,
		api.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(serverRequestTimeout),
			api.LoggingMiddleware,
			metrics.Middleware,
		),
		api.WithMetricsHandler(metrics.Handler()),
	)

	address := viper.GetString("address")
	if address == "" {
		address = cfg.GetAddress()
	}

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		slog.Info("Server listening", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return err
	}

	slog.Info("Server shutdown complete")
	return nil
}

// setupLogging configures the default structured logger
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
