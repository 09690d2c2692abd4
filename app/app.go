// File: app/app.go
package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"transaction-lookup/config"
	"transaction-lookup/db"
	"transaction-lookup/functionurl"
	"transaction-lookup/handler"
	"transaction-lookup/logger"
	"transaction-lookup/repository"
	"transaction-lookup/router"
	"transaction-lookup/secrets"
	"transaction-lookup/service"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/redis/go-redis/v9"
)

// App is the fully wired application.
type App struct {
	Router http.Handler
	db     *db.Manager
	redis  *redis.Client
}

// New wires every layer from config.AppConfig. It does not touch the database;
// connections are opened per request.
func New(ctx context.Context) (*App, error) {
	provider, err := newCredentialProvider(ctx)
	if err != nil {
		return nil, err
	}
	manager := db.NewManager(provider, config.AppConfig.Database.SSLMode)

	rdb, err := db.ConnectRedis(ctx)
	if err != nil {
		// The cache is optional; run without it.
		logger.Log.WithError(err).Warn("Continuing without lookup cache")
		rdb = nil
	}

	var cache service.ICacheClient
	if rdb != nil {
		cache = rdb
	}

	a := &App{db: manager, redis: rdb}
	a.Router = buildRouter(manager, cache)
	return a, nil
}

// NewTestApp wires the layers over an existing connection source, e.g. a *sql.DB.
func NewTestApp(source repository.ConnSource, cache service.ICacheClient) *App {
	return &App{Router: buildRouter(source, cache)}
}

func buildRouter(source repository.ConnSource, cache service.ICacheClient) http.Handler {
	cfg := config.AppConfig
	policy := cfg.Policy
	if policy == (config.Policy{}) {
		policy = config.DefaultPolicy()
	}

	transactionRepo := repository.NewTransactionRepository(source)
	transactionService := service.NewTransactionService(transactionRepo, cache, cfg.Redis.TTL, policy)
	transactionHandler := handler.NewTransactionHandler(transactionService)

	return router.NewRouter(transactionHandler)
}

func newCredentialProvider(ctx context.Context) (secrets.Provider, error) {
	cfg := config.AppConfig

	var base secrets.Provider
	if cfg.Secret.ARN != "" {
		logger.Log.WithField("region", cfg.Secret.Region).Info("Using Secrets Manager for database credentials")
		sm, err := secrets.NewSecretsManagerProvider(ctx, cfg.Secret.Region, cfg.Secret.ARN)
		if err != nil {
			return nil, err
		}
		base = sm
	} else {
		logger.Log.Info("Using static database credentials from configuration")
		base = secrets.NewStaticProvider(secrets.Credentials{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Name,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
		})
	}

	return secrets.NewCachingProvider(base, cfg.Secret.CacheTTL), nil
}

func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close database handle")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Log.WithError(err).Warn("Failed to close redis client")
		}
	}
}

func setup() *App {
	logger.Init()
	if err := config.LoadConfig("."); err != nil {
		logger.Log.Fatalf("Error loading configuration: %v", err)
	}
	logger.Log.Info("Configuration loaded successfully")

	a, err := New(context.Background())
	if err != nil {
		logger.Log.Fatalf("Error wiring application: %v", err)
	}
	return a
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM.
func Run() {
	a := setup()
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := a.db.Ping(ctx); err != nil {
		logger.Log.WithError(err).Warn("Database not reachable at startup")
	}
	cancel()

	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: a.Router,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}

// RunLambda serves the same router behind an AWS Lambda function URL.
func RunLambda() {
	a := setup()
	lambda.Start(functionurl.New(a.Router).Handle)
}
