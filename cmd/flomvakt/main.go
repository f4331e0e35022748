// flomvakt polls NVE hydrological stations and serves their latest
// observations, flood statistics and sensor readings over HTTP.
package main

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

	"github.com/torhal/flomvakt/config"
	"github.com/torhal/flomvakt/hydapi"
	"github.com/torhal/flomvakt/monitor"
	"github.com/torhal/flomvakt/secret"
	"github.com/torhal/flomvakt/server"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "flomvakt failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Debug)
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Validate the credential before starting anything. Setup-time
	// failures are fatal with distinct messages; once running, refresh
	// failures are only logged.
	probe := hydapi.NewClient(cfg.BaseURL, cfg.APIKey, httpClient, logger)
	if err := probe.TestConnection(ctx); err != nil {
		switch {
		case errors.Is(err, hydapi.ErrInvalidAPIKey):
			return fmt.Errorf("invalid API key, check FLOMVAKT_API_KEY")
		case errors.Is(err, hydapi.ErrCannotConnect):
			return fmt.Errorf("cannot connect to NVE API: %w", err)
		default:
			return fmt.Errorf("unknown error while validating NVE API access: %w", err)
		}
	}
	logger.Info("NVE API credential validated")

	specs := make([]monitor.StationSpec, 0, len(cfg.Stations))
	for _, station := range cfg.Stations {
		specs = append(specs, monitor.StationSpec{
			ID:     station.StationID,
			Name:   station.StationName,
			Series: station.Series,
		})
	}

	service := monitor.NewService(monitor.ServiceConfig{
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		Interval:       cfg.PollInterval,
		ResolutionTime: cfg.ResolutionTime,
		Stations:       specs,
	}, httpClient, logger)

	if err := service.Start(ctx); err != nil {
		return fmt.Errorf("failed to start monitor service: %w", err)
	}

	secretStore := newSecretStore(cfg)
	defer func() {
		if err := secretStore.Close(); err != nil {
			logger.Error("Failed to close secret store", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(service, secretStore, logger).Router(),
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down")

		// Cancel timers before releasing anything else.
		service.Stop()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
		}
	}()

	logger.Info("Server starting", "addr", cfg.ListenAddr, "stations", len(cfg.Stations))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	return nil
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// newSecretStore seeds the API token from the configuration; without one
// the refresh trigger stays locked unless the token is provided directly
// through the environment.
func newSecretStore(cfg config.Config) secret.Store {
	if cfg.APIToken != "" {
		store := secret.NewInMemoryStore()
		_ = store.Set(secret.KeyAPIToken, cfg.APIToken)
		return store
	}

	return secret.NewEnvStore("FLOMVAKT_")
}
