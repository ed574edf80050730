package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/sundayezeilo/tinylink/internal/config"
	"github.com/sundayezeilo/tinylink/internal/db/migrations"
	db "github.com/sundayezeilo/tinylink/internal/db/sqlc"
	"github.com/sundayezeilo/tinylink/internal/db/sqlite"
	"github.com/sundayezeilo/tinylink/internal/metrics"
	"github.com/sundayezeilo/tinylink/internal/server"
	"github.com/sundayezeilo/tinylink/internal/shortener"
)

// App holds the application dependencies and configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Server  *server.Server
	Handler *shortener.Handler

	closeStore func()
}

// store bundles a repository with its health probe and release hook.
type store struct {
	repo   shortener.Repository
	pinger server.Pinger
	close  func()
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"service", cfg.Observability.ServiceName,
		"version", cfg.Observability.ServiceVersion,
		"driver", cfg.Database.Driver,
	)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	svcConfig := &shortener.ServiceConfig{
		CodeLength:             cfg.Shortener.CodeLength,
		CodeGenerationAttempts: cfg.Shortener.CodeGenerationAttempts,
		ReservedCodes:          server.ReservedCodes(cfg),
	}
	if cfg.Observability.MetricsEnabled {
		m = metrics.New()
		svcConfig.Metrics = m
	}

	svc := shortener.NewService(st.repo, svcConfig)
	handler := shortener.NewHandler(shortener.HandlerConfig{
		Service: svc,
		Logger:  logger,
		BaseURL: cfg.Server.BaseURL,
	})

	srv := server.New(cfg, logger, handler, st.pinger, m)

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"metrics_enabled", cfg.Observability.MetricsEnabled,
	)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    m,
		Server:     srv,
		Handler:    handler,
		closeStore: st.close,
	}, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("server starting",
		"port", a.Config.Server.Port,
		"base_url", a.Config.Server.BaseURL,
	)

	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.closeStore != nil {
		a.closeStore()
		a.Logger.Info("database connection closed")
	}

	return nil
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		return openSQLite(ctx, cfg, logger)
	default:
		return openPostgres(ctx, cfg, logger)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	pool, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		applied, err := migrations.ApplyPostgres(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("database migrated", "applied", applied)
	}

	return &store{
		repo:   shortener.NewRepository(db.New(pool)),
		pinger: pool,
		close:  pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	logger.Info("opening sqlite database", "path", cfg.Database.Path)

	sqlDB, err := sqlite.Open(ctx, sqlite.Config{
		Path:     cfg.Database.Path,
		MaxConns: int(cfg.Database.MaxConns),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		applied, err := migrations.ApplySQLite(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("database migrated", "applied", applied)
	}

	s := sqlite.New(sqlDB)
	return &store{
		repo:   s,
		pinger: s,
		close:  func() { _ = sqlDB.Close() },
	}, nil
}

// connectDatabase establishes a connection to the PostgreSQL database.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Set pool configuration
	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return pool, nil
}
