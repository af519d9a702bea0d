package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	limitermem "github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/agrodesk/genfin_backend/internal/coordinator"
	"github.com/agrodesk/genfin_backend/internal/core/services"
	"github.com/agrodesk/genfin_backend/internal/events"
	eventskafka "github.com/agrodesk/genfin_backend/internal/events/kafka"
	"github.com/agrodesk/genfin_backend/internal/handlers"
	"github.com/agrodesk/genfin_backend/internal/middleware"
	"github.com/agrodesk/genfin_backend/internal/repositories/database/pgsql"
	"github.com/agrodesk/genfin_backend/internal/repositories/memory"
	"github.com/agrodesk/genfin_backend/pkg/config"
	"github.com/agrodesk/genfin_backend/pkg/database"

	portssvc "github.com/agrodesk/genfin_backend/internal/core/ports/services"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos := buildRepositories(cfg, logger)
	coord := buildCoordinator(cfg, logger)
	publisher := buildPublisher(cfg, logger)

	ledgerSvc := services.NewLedgerService(repos.Account, repos.Journal, coord, publisher)
	sequenceSvc := services.NewSequenceService(repos.Sequence)
	receivablesSvc := services.NewReceivablesService(
		repos.Customer, repos.Invoice, repos.Credit,
		ledgerSvc, sequenceSvc, coord, publisher,
		services.ReceivablesConfig{
			ReceivableAccountID:      cfg.Accounts.Receivable,
			IncomeAccountID:          cfg.Accounts.Income,
			CashAccountID:            cfg.Accounts.Cash,
			CreditLiabilityAccountID: cfg.Accounts.CustomerCredit,
		},
	)
	payablesSvc := services.NewPayablesService(
		repos.Vendor, repos.Bill, repos.Credit, repos.PurchaseOrder,
		ledgerSvc, sequenceSvc, coord, publisher,
		services.PayablesConfig{
			PayableAccountID:     cfg.Accounts.Payable,
			ExpenseAccountID:     cfg.Accounts.Expense,
			CashAccountID:        cfg.Accounts.Cash,
			CreditAssetAccountID: cfg.Accounts.VendorCredit,
		},
	)
	bankingSvc := services.NewBankingService(
		repos.BankAccount, repos.Check, repos.Reconciliation, repos.AchBatch, repos.Journal,
		ledgerSvc, sequenceSvc, coord, publisher,
		services.BankingConfig{DefaultExpenseAccountID: cfg.Accounts.Expense},
	)

	container := &portssvc.ServiceContainer{
		Ledger:      ledgerSvc,
		Sequence:    sequenceSvc,
		Receivables: receivablesSvc,
		Payables:    payablesSvc,
		Banking:     bankingSvc,
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	if rate, err := limiter.NewRateFromFormatted(cfg.RateLimit); err == nil {
		r.Use(middleware.RateLimit(limiter.New(limitermem.NewStore(), rate)))
	} else {
		logger.Warn("Invalid RATE_LIMIT value, rate limiting disabled", slog.String("value", cfg.RateLimit))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, container)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildRepositories connects to PostgreSQL and runs migrations when a
// database URL is configured, otherwise falls back to the in-memory store.
func buildRepositories(cfg *config.Config, logger *slog.Logger) *pgsql.RepositoryContainer {
	if cfg.DatabaseURL == "" {
		logger.Warn("No PGSQL_URL configured, using the in-memory store; state will not survive restarts")
		store := memory.NewStore()
		return &pgsql.RepositoryContainer{
			Account:        store,
			Journal:        store,
			Sequence:       store,
			Customer:       store,
			Vendor:         store,
			Invoice:        store,
			Credit:         store,
			Bill:           store,
			PurchaseOrder:  store,
			BankAccount:    store,
			Check:          store,
			Reconciliation: store,
			AchBatch:       store,
		}
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Database connection pool established.")

	runMigrations(cfg, logger)

	return pgsql.NewRepositoryContainer(dbPool)
}

// runMigrations applies all pending up migrations using a short-lived
// database/sql connection, the way golang-migrate expects.
func runMigrations(cfg *config.Config, logger *slog.Logger) {
	logger.Info("Running database migrations...")
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to open database connection for migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		logger.Error("Could not create postgres driver instance for migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		logger.Error("Could not create migrate instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
}

// buildCoordinator picks the redis-backed coordinator when REDIS_URL is set,
// so multiple server instances share one lock space, and the in-process
// backend otherwise.
func buildCoordinator(cfg *config.Config, logger *slog.Logger) coordinator.Coordinator {
	if cfg.RedisURL == "" {
		return coordinator.NewLockCoordinator(cfg.LockWaitTimeout)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("Invalid REDIS_URL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Using redis-backed concurrency coordinator")
	return coordinator.NewRedisCoordinator(redis.NewClient(opts), cfg.LockWaitTimeout)
}

// buildPublisher wires the Kafka publisher when brokers are configured.
func buildPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NoopPublisher{}
	}
	logger.Info("Publishing engine events to Kafka", slog.Any("brokers", cfg.KafkaBrokers))
	return eventskafka.NewPublisher(cfg.KafkaBrokers)
}
