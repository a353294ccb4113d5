package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orbiterp/be-approvals/internal/adapter"
	"github.com/orbiterp/be-approvals/internal/client"
	"github.com/orbiterp/be-approvals/internal/config"
	"github.com/orbiterp/be-approvals/internal/handler"
	"github.com/orbiterp/be-approvals/internal/logger"
	"github.com/orbiterp/be-approvals/internal/middleware"
	"github.com/orbiterp/be-approvals/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting ERP Approvals Service")

	// Collaborator clients
	docsClient := client.NewDocumentsClient(cfg.Backend.ERPBaseURL, cfg.Backend.RequestTimeout)
	directoryClient := client.NewDirectoryClient(cfg.Backend.DirectoryBaseURL, cfg.Backend.RequestTimeout)

	// NATS notification publisher (optional)
	var nc *nats.Conn
	if cfg.NATS.URL != "" {
		nc, err = nats.Connect(cfg.NATS.URL,
			nats.Name(cfg.Service.Name),
			nats.MaxReconnects(-1))
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NATS.URL).
				Msg("NATS connection failed; notifications disabled")
			nc = nil
		} else {
			defer nc.Close()
			log.Info().Str("url", cfg.NATS.URL).Msg("NATS connection established")
		}
	}
	notifier := client.NewNotificationPublisher(nc, log)

	// Core wiring
	adp := adapter.New(directoryClient)
	approvalService := service.NewApprovalService(docsClient, directoryClient, adp, notifier, log)

	// Setup HTTP routes
	httpHandler := handler.NewHTTPHandler(approvalService, log)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Document routes
	mux.HandleFunc("/api/v1/documents", httpHandler.ListDocuments)
	mux.HandleFunc("/api/v1/documents/get", httpHandler.GetDocument)
	mux.HandleFunc("/api/v1/documents/chain", httpHandler.ResolveChain)
	mux.HandleFunc("/api/v1/documents/approve", httpHandler.ApproveDocument)
	mux.HandleFunc("/api/v1/documents/reject", httpHandler.RejectDocument)
	mux.HandleFunc("/api/v1/documents/pay", httpHandler.PayMemo)
	mux.HandleFunc("/api/v1/documents/acknowledge", httpHandler.AcknowledgeMemo)
	mux.HandleFunc("/api/v1/documents/pending", httpHandler.PendingApprovals)

	// Apply middleware
	var h http.Handler = mux
	h = middleware.RequestID(h)
	h = middleware.Logger(log)(h)
	h = middleware.Recovery(log)(h)
	h = middleware.CORS([]string{"*"})(h)
	h = middleware.Timeout(cfg.Server.RequestTimeout)(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
