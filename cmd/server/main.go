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

	"expensely-backend/internal/api/handlers"
	"expensely-backend/internal/api/routes"
	"expensely-backend/internal/auth"
	"expensely-backend/internal/config"
	"expensely-backend/internal/database"
	"expensely-backend/internal/logger"
	"expensely-backend/internal/notification"
	"expensely-backend/internal/realtime"
	"expensely-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	_ "expensely-backend/docs" // This is needed for swag
)

const version = "1.0.0"

//	@title			Expensely Backend API
//	@version		1.0
//	@description	Shared group expenses with push, email and live chat notifications.

//	@contact.name	API Support
//	@contact.email	support@example.com

//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT

//	@host		localhost:3000
//	@BasePath	/api

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and an ID token.

func main() {
	// Load environment variables from .env file in development
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	// Set up logging
	logger.Setup(cfg.LogLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logrus.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	deps := routes.Dependencies{
		Config:  cfg,
		Version: version,
		Checks:  make(map[string]handlers.Pinger),
	}

	// Storage
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logrus.Warn("Using in-memory storage; data is lost on restart")
		deps.Groups = repository.NewMemoryGroupRepository()
		deps.Expenses = repository.NewMemoryExpenseRepository()
	default:
		db, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer func() {
			if err := database.Close(db); err != nil {
				logrus.WithError(err).Warn("Failed to close database")
			}
		}()
		deps.DB = db
		deps.Groups = repository.NewGroupRepository(db)
		deps.Expenses = repository.NewExpenseRepository(db)
	}

	// Identity
	switch cfg.AuthMode {
	case config.AuthFirebase:
		deps.Verifier = auth.NewFirebaseVerifier(cfg.FirebaseProjectID)
	default:
		logrus.Warn("Using HMAC token verification; intended for local development")
		deps.Verifier = auth.NewHMACVerifier(cfg.JWTSecret)
	}

	// Delivery
	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	mailer := newMailer(cfg)

	var throttle notification.Throttle = notification.NewMemoryThrottle()
	if cfg.RedisURL != "" {
		redisThrottle, err := notification.NewRedisThrottle(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisThrottle.Close()
		throttle = redisThrottle
		deps.Checks["redis"] = redisThrottle
	}

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps.Notifier = notification.NewDispatcher(publisher, mailer, throttle,
		notification.NewMetrics(deps.Registry),
		notification.Options{
			Timeout:          cfg.NotifyTimeout,
			MaxConcurrency:   cfg.NotifyMaxConcurrency,
			ReminderCooldown: cfg.ReminderCooldown,
		})

	deps.Hub = realtime.NewHub()
	defer deps.Hub.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRoutes(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logrus.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.StorageDriver == config.StorageSQLite {
		return database.Initialize(database.DriverSQLite, cfg.SQLitePath, nil)
	}
	return database.Initialize(database.DriverPostgres, cfg.DatabaseURL, nil)
}

func newPublisher(ctx context.Context, cfg *config.Config) (notification.Publisher, error) {
	if cfg.PushProvider != config.ProviderFCM {
		logrus.Warn("Push notifications are logged, not delivered")
		return notification.NewLogPublisher(), nil
	}
	credentials, err := os.ReadFile(cfg.FCMCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read FCM credentials: %w", err)
	}
	return notification.NewFCMPublisher(ctx, credentials)
}

func newMailer(cfg *config.Config) notification.Mailer {
	switch cfg.EmailProvider {
	case config.ProviderSMTP:
		return notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			Timeout:  cfg.NotifyTimeout,
		})
	case config.ProviderResend:
		return notification.NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom, &http.Client{Timeout: cfg.NotifyTimeout})
	default:
		logrus.Warn("Emails are logged, not delivered")
		return notification.NewLogMailer()
	}
}
