package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dart94/utm-whatsapp-tracker/docs"
	"github.com/dart94/utm-whatsapp-tracker/internal/analytics"
	"github.com/dart94/utm-whatsapp-tracker/internal/config"
	"github.com/dart94/utm-whatsapp-tracker/internal/crm"
	"github.com/dart94/utm-whatsapp-tracker/internal/crm/kommo"
	"github.com/dart94/utm-whatsapp-tracker/internal/dedup"
	"github.com/dart94/utm-whatsapp-tracker/internal/handler"
	"github.com/dart94/utm-whatsapp-tracker/internal/landing"
	"github.com/dart94/utm-whatsapp-tracker/internal/logger"
	"github.com/dart94/utm-whatsapp-tracker/internal/probe"
	"github.com/dart94/utm-whatsapp-tracker/internal/reconciler"
	"github.com/dart94/utm-whatsapp-tracker/internal/repository/mysql"
	"github.com/dart94/utm-whatsapp-tracker/internal/tracker"
)

// @title UTM WhatsApp Tracker API
// @version 1.0
// @description Click attribution for WhatsApp campaign traffic with Kommo CRM lead registration
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	// Configure Swagger host dynamically
	docs.SwaggerInfo.Host = cfg.Service.Host

	ctx := context.Background()

	// Initialize MySQL client
	mysqlClient, err := mysql.NewClient(ctx, &cfg.MySQL, log)
	if err != nil {
		log.Fatal("Failed to create MySQL client", zap.Error(err))
	}
	defer func(mysqlClient *mysql.Client) {
		if err := mysqlClient.Close(); err != nil {
			log.Error("Failed to close MySQL client", zap.Error(err))
		}
	}(mysqlClient)

	if err := mysqlClient.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Initialize repositories
	clickRepo := mysql.NewClickRepository(mysqlClient, log)
	campaignRepo := mysql.NewCampaignRepository(mysqlClient, log)

	// Initialize Kommo client and field mapping
	kommoClient := kommo.NewClient(cfg.Kommo, log)
	fieldMapper := crm.NewFieldMapper(cfg.Kommo)

	// Initialize services
	classifier := probe.NewClassifier(cfg.Probe.MetaIPPrefixes)
	evaluator := dedup.NewEvaluator(clickRepo, cfg.Dedup, log)
	clickTracker := tracker.New(clickRepo, kommoClient, fieldMapper, cfg.Dedup.RecordDuplicates, log)
	webhookReconciler := reconciler.New(clickRepo, kommoClient, fieldMapper, cfg.Webhook.LookbackWindow(), log)
	analyticsService := analytics.NewService(clickRepo, log)
	landingRenderer := landing.NewRenderer(cfg.WhatsApp.BaseURL)

	// Initialize handler
	h := handler.NewHandler(handler.Deps{
		Tracker:    clickTracker,
		Classifier: classifier,
		Dedup:      evaluator,
		Reconciler: webhookReconciler,
		Landing:    landingRenderer,
		Analytics:  analyticsService,
		Clicks:     clickRepo,
		Campaigns:  campaignRepo,
		Health:     mysqlClient,
		BaseURL:    cfg.Service.BaseURL,
	}, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	server := &http.Server{Addr: addr, Handler: h}

	go func() {
		log.Info("API server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}

	// Let in-flight Kommo registrations finish before closing the store.
	clickTracker.Wait()

	log.Info("API server stopped")
}
