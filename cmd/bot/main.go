package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rekard/internal/config"
	"rekard/internal/domain"
	"rekard/internal/handler"
	"rekard/internal/middleware"
	"rekard/internal/repository"
	"rekard/internal/repository/postgres"
	"rekard/internal/repository/sqlite"
	"rekard/internal/service"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

func main() {
	envFile := flag.String("env-file", ".env", "path to the env file")
	migrationsDir := flag.String("migrations", "migrations", "directory holding postgres migrations")
	flag.Parse()

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Rekard Bot")

	// Load configuration
	cfg, err := config.Load(*envFile)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully", zap.String("storage", cfg.Storage.Driver))

	// Open storage and build repositories
	db, userRepo, deckRepo, err := openStorage(cfg, *migrationsDir, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer db.Close()

	// Initialize services
	store := service.NewDeckStore(deckRepo, logger)
	store.Load()

	authService := service.NewAuthService(userRepo, cfg.BotPassword, logger)
	editor := service.NewEditor()
	statsService := service.NewStatsService(store, logger)

	unsubscribe := store.Subscribe(logChanges(logger))
	defer unsubscribe()

	// Initialize Telegram bot
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	logger.Info("Telegram bot initialized")

	// Initialize handler
	bot.Use(middleware.AuthMiddleware(authService, logger))
	h := handler.NewHandler(bot, authService, store, editor, statsService, logger)
	h.RegisterHandlers()

	logger.Info("Handlers registered")

	// Start stats job in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runStatsJob(ctx, statsService, logger)

	// Start bot in background
	go func() {
		logger.Info("Bot started successfully")
		bot.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping bot...")

	// Graceful shutdown
	bot.Stop()
	cancel()

	logger.Info("Bot stopped gracefully")
}

// openStorage connects to the configured database and returns its repositories
func openStorage(cfg *config.Config, migrationsDir string, logger *zap.Logger) (*sql.DB, repository.UserRepository, repository.DeckRepository, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("SQLite database opened", zap.String("path", cfg.Storage.SQLitePath))
		return db, sqlite.NewUserRepo(db), sqlite.NewDeckRepo(db, cfg.Storage.SnapshotKey), nil

	case config.DriverPostgres:
		// Connect to database with retries
		db, err := connectDatabase(cfg.DSN(), logger)
		if err != nil {
			return nil, nil, nil, err
		}

		logger.Info("Database connection established")

		if err := runMigrations(db, migrationsDir, logger); err != nil {
			db.Close()
			return nil, nil, nil, err
		}

		logger.Info("Database migrations completed")
		return db, postgres.NewUserRepo(db), postgres.NewDeckRepo(db, cfg.Storage.SnapshotKey), nil
	}
	return nil, nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations applies the schema migrations found in dir
func runMigrations(db *sql.DB, dir string, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+dir,
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully")
	}

	return nil
}

// logChanges returns a store subscriber that traces every saved change at debug level
func logChanges(logger *zap.Logger) func([]domain.Deck) {
	return func(decks []domain.Deck) {
		cards := 0
		for _, d := range decks {
			cards += len(d.Cards)
		}
		logger.Debug("Decks changed",
			zap.Int("decks", len(decks)),
			zap.Int("cards", cards),
		)
	}
}

// runStatsJob logs collection totals at startup and then once a day
func runStatsJob(ctx context.Context, statsService *service.StatsService, logger *zap.Logger) {
	statsService.LogSummary()

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stats job stopped")
			return
		case <-ticker.C:
			statsService.LogSummary()
		}
	}
}
