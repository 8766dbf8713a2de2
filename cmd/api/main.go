package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/joshua-takyi/festora/internal/clock"
	"github.com/joshua-takyi/festora/internal/config"
	"github.com/joshua-takyi/festora/internal/connect"
	"github.com/joshua-takyi/festora/internal/container"
	"github.com/joshua-takyi/festora/internal/routes"
	"github.com/joshua-takyi/festora/internal/wallet"
	"github.com/spf13/pflag"
)

func main() {
	envFile := pflag.String("env-file", ".env.local", "dotenv file to load before reading the environment")
	pflag.Parse()

	// Load environment variables
	_ = godotenv.Load(*envFile)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting Festora API server", "environment", cfg.Environment)

	ctx := context.Background()

	var opened teardown
	fatal := func(msg string, err error) {
		logger.Error(msg, "error", err)
		if closeErr := opened.run(); closeErr != nil {
			logger.Error("Error releasing connections", "error", closeErr)
		}
		os.Exit(1)
	}

	mongoClient, err := connect.MongoDBConnect(ctx, cfg)
	if err != nil {
		fatal("Failed to connect to MongoDB", err)
	}
	opened.add(func() error { return connect.MongoDBDisconnect(mongoClient) })
	logger.Info("Connected to MongoDB successfully")

	ledgerClient, backend, chainID, err := connect.DialLedger(ctx, cfg)
	if err != nil {
		fatal("Failed to connect to ledger", err)
	}
	opened.add(func() error {
		ledgerClient.Close()
		return nil
	})
	logger.Info("Connected to ledger", "contract", backend.Address().Hex(), "chain_id", chainID.String())

	ks, err := connect.OpenKeystore(cfg.KeystoreDir)
	if err != nil {
		fatal("Failed to open keystore", err)
	}

	gateway, err := connect.NewGateway(cfg)
	if err != nil {
		fatal("Failed to configure payment gateway", err)
	}

	publisher, err := connect.NewPublisher(cfg, logger)
	if err != nil {
		fatal("Failed to connect to broker", err)
	}

	clk := clock.NewSystem()
	appContainer := container.NewContainer(container.Deps{
		Logger:        logger,
		MongoDBClient: mongoClient,
		DBName:        cfg.MongoDBDatabase,
		LedgerClient:  ledgerClient,
		Ledger:        backend,
		Wallets:       wallet.NewManager(ks, chainID, cfg.SessionTTL, clk, logger),
		Gateway:       gateway,
		Publisher:     publisher,
		Clock:         clk,
	})

	// the container owns every client from here on
	opened = teardown{appContainer.Close}

	indexCtx, cancelIndex := context.WithTimeout(ctx, 15*time.Second)
	err = appContainer.EventDocs.EnsureIndexes(indexCtx)
	cancelIndex()
	if err != nil {
		fatal("Failed to create indexes", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRoutes(appContainer, routes.Options{
		CORSOrigins:   cfg.CORSOrigins,
		SessionSecret: []byte(cfg.SessionSecret),
		SecureCookie:  cfg.IsProduction(),
	})

	// ledger writes block until mined
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := appContainer.Close(); err != nil {
		logger.Error("Error releasing connections", "error", err)
	}

	logger.Info("Server exited")
}

// teardown releases startup resources in reverse order of acquisition.
type teardown []func() error

func (t *teardown) add(f func() error) {
	*t = append(*t, f)
}

func (t teardown) run() error {
	var errs []error
	for i := len(t) - 1; i >= 0; i-- {
		if err := t[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLevel(cfg.LogLevel),
		})
	}

	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
