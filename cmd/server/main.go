// cmd/server/main.go
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

	"hcert-verifier/internal/config"
	"hcert-verifier/internal/database"
	"hcert-verifier/internal/handlers"
	"hcert-verifier/internal/logging"
	"hcert-verifier/internal/middleware"
	"hcert-verifier/internal/repository"
	"hcert-verifier/internal/routes"
	"hcert-verifier/internal/services"
)

func main() {
	logger, err := logging.New(os.Getenv("ENV"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // Flush any buffered log entries

	zap.ReplaceGlobals(logger)

	logger.Info("Starting hcert-verifier server")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("verify_api_url", cfg.Verification.APIURL),
		zap.Bool("audit_log", cfg.Database.Enabled()),
		zap.Bool("auth", cfg.Auth.Enabled()))

	// Audit log is optional
	var (
		auditService services.AuditService
		healthDB     handlers.Pinger
	)
	if cfg.Database.Enabled() {
		db, err := database.NewMongoDB(cfg, logger.Named("database"))
		if err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := db.Close(ctx); err != nil {
				logger.Error("Error closing database connection", zap.Error(err))
			}
		}()

		logger.Info("Successfully connected to MongoDB", zap.String("database", cfg.Database.Database))

		logRepo := repository.NewVerificationLogRepository(db.GetCollection(database.VerificationsCollection))
		auditService = services.NewAuditService(logRepo)
		healthDB = db
	}

	httpClient := &http.Client{
		Timeout: cfg.Verification.APITimeout,
	}
	verificationService := services.NewCertificateVerificationService(httpClient, cfg.Verification.APIURL, logger.Named("verifier"))
	batchService := services.NewBatchVerificationService(verificationService, cfg.Verification.BatchConcurrency)

	h := &routes.Handlers{
		Health:      handlers.NewHealthHandler(healthDB),
		Certificate: handlers.NewCertificateHandler(verificationService, batchService, auditService, cfg.Verification.BatchMaxItems, logger.Named("certificates")),
	}
	if auditService != nil {
		h.Audit = handlers.NewAuditHandler(auditService, logger.Named("audit"))
	}

	var auth *middleware.Authenticator
	if cfg.Auth.Enabled() {
		auth = middleware.NewAuthenticator(cfg.Auth, logger.Named("auth"))
	}

	router := routes.SetupRoutes(h, auth, logger)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("address", serverAddr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Received shutdown signal, shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}
