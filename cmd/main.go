/*
Package main is the entry point for the Chat Relay application.

It is responsible for loading configuration, initializing the global logging system,
connecting the database pool, the clip storage client, and the pub/sub backbone,
starting the Hub and the persistence gateway, setting up the HTTP server, and
gracefully handling operating system interrupt signals (SIGINT, SIGTERM) to ensure
a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatrelay/internal/app/bus"
	"chatrelay/internal/app/chat"
	"chatrelay/internal/app/db"
	"chatrelay/internal/app/storage"
	"chatrelay/internal/app/store"
	"chatrelay/internal/configs"
	"chatrelay/internal/handler"
	"chatrelay/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("standalone", cfg.NatsURL == "").
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect the database and apply migrations.
	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to initialize database pool")
	}
	defer pool.Close()

	messageStore := store.NewPostgresStore(pool)
	gateway := store.NewGateway(messageStore)

	// Clip storage for presigned voice clip URLs.
	clipStorage, err := storage.NewClipStorage(storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize clip storage")
	}

	// Pub/sub backbone. An empty NATS URL selects the in-process bus, which runs
	// this instance standalone while keeping the same fan-out path.
	var backbone bus.Bus
	if cfg.NatsURL == "" {
		logx.Info("No NATS URL configured, using in-process backbone")
		backbone = bus.NewMemory()
	} else {
		backbone, err = bus.ConnectNATS(cfg.NatsURL)
		if err != nil {
			logx.Fatal(err, "Failed to connect to NATS backbone")
		}
	}

	// Initialize the Hub
	hub := chat.NewHub(backbone, gateway)
	if err := hub.Start(); err != nil {
		logx.Fatal(err, "Failed to start hub")
	}

	// Setup HTTP server and routes
	deps := &handler.AppDeps{
		Hub:     hub,
		Config:  cfg,
		Store:   messageStore,
		Storage: clipStorage,
	}
	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Chat Relay Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	// Stop fan-out first, then drain pending writes, then drop the backbone.
	hub.Shutdown()
	gateway.Close()
	backbone.Close()

	logx.Info("Server gracefully stopped.")
}
