package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/opsfin/be-cc-approvals/internal/client"
	"github.com/opsfin/be-cc-approvals/internal/config"
	"github.com/opsfin/be-cc-approvals/internal/handler"
	"github.com/opsfin/be-cc-approvals/internal/service"
	"github.com/opsfin/be-cc-approvals/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	level, err := zerolog.ParseLevel(cfg.Service.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().
		Timestamp().
		Str("service", cfg.Service.Name).
		Logger()

	log.Info().
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting Cost Centre Approvals Service")

	// Connect NATS (optional; events are disabled without it)
	var nc *nats.Conn
	if cfg.NATS.URL != "" {
		nc, err = nats.Connect(cfg.NATS.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		defer nc.Close()
		log.Info().Str("url", cfg.NATS.URL).Msg("NATS connection established")
	} else {
		log.Warn().Msg("NATS URL not configured; lifecycle events disabled")
	}
	events := client.NewEventPublisher(nc, log)

	// Initialize persistence service clients
	httpClient := client.NewHTTPClient(cfg.Remote.BaseURL, cfg.Remote.Timeout)
	registryClient := client.NewRegistryClient(httpClient)
	workflowClient := client.NewWorkflowClient(httpClient)
	budgetClient := client.NewBudgetClient(httpClient)
	approvalClient := client.NewApprovalActionClient(httpClient)
	log.Info().Str("base_url", cfg.Remote.BaseURL).Msg("Persistence service clients initialized")

	// Initialize store and services
	workflowStore := store.NewWorkflowStore(workflowClient, log)
	guard := service.NewUsageGuard(workflowClient, log)
	router := service.NewApprovalRouter()

	hierarchyService := service.NewHierarchyService(workflowStore, guard, events, log)
	budgetService := service.NewBudgetService(budgetClient, events, log)
	verificationService := service.NewVerificationService(workflowStore, router, approvalClient, workflowClient, log)

	limitGroups := make(map[int]bool, len(cfg.Workflow.LimitBearingGroups))
	for _, g := range cfg.Workflow.LimitBearingGroups {
		limitGroups[g] = true
	}

	// Drive reject countdowns with a one-second clock
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				verificationService.Tick()
			}
		}
	}()

	// Setup HTTP routes
	httpHandler := handler.NewHTTPHandler(
		hierarchyService, budgetService, verificationService,
		registryClient, limitGroups, log,
	)

	r := mux.NewRouter()
	r.Use(handler.Metrics)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	httpHandler.Register(r)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
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
