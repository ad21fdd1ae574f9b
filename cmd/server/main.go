package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bitsafe.io/advisor-api/internal/alerts"
	"bitsafe.io/advisor-api/internal/api"
	"bitsafe.io/advisor-api/internal/config"
	"bitsafe.io/advisor-api/internal/core"
	"bitsafe.io/advisor-api/internal/logging"
	"bitsafe.io/advisor-api/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "server",
		Short:        "Crypto insurance advisor API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "optional YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "alerts",
		Short: "Print the current scam alert feed as JSON and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(configPath); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(alerts.NewService().Recent(cmd.Context()))
		},
	})

	return root
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	logging.Init(cfg.LogLevel)
	return cfg, nil
}

func runServer(cfg config.Config) error {
	slog.Info("service starting", "db_name", cfg.DBName, "provider", cfg.InferenceProvider)

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbStore.Close()

	// Initialize inference client; nil when no credential is set
	generator, err := core.NewGenerator(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize inference client: %w", err)
	}
	if generator != nil {
		defer func() {
			if err := generator.Close(); err != nil {
				slog.Error("error closing inference client", "err", err)
			}
		}()
	}

	chatService := core.NewChatService(dbStore, generator)
	alertService := alerts.NewService()

	apiHandler := api.NewAPIHandler(dbStore, alertService, chatService)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // inference calls can take time
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
		}
		return nil
	case <-quit:
	}
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// dbStore and generator are closed by their defers.
	slog.Info("server exiting gracefully")
	return nil
}
