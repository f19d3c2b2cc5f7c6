package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/config"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/handlers"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/logging"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/metrics"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/middleware"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/repositories"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/services"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/session"
	"github.com/moizayub1255/Tezaabi-Tottay/pkg/rabbitmq"
	"github.com/moizayub1255/Tezaabi-Tottay/pkg/tmdb"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()
	var closers []func() error

	// --- User record store ---
	userRepo, closeStore, err := openUserRepository(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to open user store")
	}
	closers = append(closers, closeStore)
	logging.Info().Str("driver", cfg.DatabaseDriver).Msg("user store ready")

	// --- Session revocation store ---
	var sessions session.Store = session.NewMemoryStore()
	if cfg.RedisURL != "" {
		redisStore, err := session.NewRedisStoreFromURL(ctx, cfg.RedisURL)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to initialize session store")
		}
		sessions = redisStore
		closers = append(closers, redisStore.Close)
	}

	// --- Account events (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to initialize RabbitMQ client")
		}
		closers = append(closers, mqClient.Close)
		publisher = mqClient

		if err := mqClient.ConsumeAccountEvents(logAccountEvent); err != nil {
			logging.Error().Err(err).Msg("failed to start RabbitMQ consumer")
		}
	}

	// --- Upstream catalog ---
	catalogClient := tmdb.NewClient(tmdb.Config{
		APIKey:  cfg.TMDBAPIKey,
		BaseURL: cfg.TMDBBaseURL,
		Observe: metrics.RecordUpstreamRequest,
	})
	if cfg.TMDBAPIKey == "" {
		logging.Warn().Msg("TMDB_API_KEY is not set, catalog requests will fail")
	}

	app := newApp(cfg, appDeps{
		userRepo:  userRepo,
		sessions:  sessions,
		publisher: publisher,
		catalog:   catalogClient,
	})

	// --- Start HTTP Server ---
	logging.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Msg("starting server")

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			logging.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-quit
	logging.Info().Msg("shutting down server")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logging.Error().Err(err).Msg("error during Fiber shutdown")
	}
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logging.Error().Err(err).Msg("error releasing resource")
		}
	}
	logging.Info().Msg("server gracefully stopped")
}

// appDeps are the collaborators newApp wires into the handlers.
type appDeps struct {
	userRepo  repositories.UserRepository
	sessions  session.Store
	publisher services.EventPublisher
	catalog   services.CatalogFetcher
}

// newApp builds the Fiber app with every route registered.
func newApp(cfg config.Config, deps appDeps) *fiber.App {
	// --- Initialize Services ---
	authService := services.NewAuthService(deps.userRepo, deps.sessions, deps.publisher, cfg.JWTSecret, cfg.TokenTTL)
	profileService := services.NewProfileService(deps.userRepo)
	settingsService := services.NewSettingsService(deps.userRepo, deps.publisher)
	watchlistService := services.NewWatchlistService(deps.userRepo, deps.publisher)
	catalogService := services.NewCatalogService(deps.catalog, cfg.TMDBOriginalLanguage)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService, cfg.IsProduction())
	profileHandler := handlers.NewProfileHandler(profileService, watchlistService)
	settingsHandler := handlers.NewSettingsHandler(settingsService, authService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)

	// --- Initialize Fiber App ---
	app := fiber.New(fiber.Config{
		AppName:      "Tezaabi-Tottay",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: errorHandler,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())

	// --- Ops Endpoints ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")
	protect := middleware.ProtectRoute(authService)

	authHandler.RegisterRoutes(apiV1, protect)
	catalogHandler.RegisterRoutes(apiV1)

	protectedRoutes := apiV1.Group("", protect)
	profileHandler.RegisterRoutes(protectedRoutes)
	settingsHandler.RegisterRoutes(protectedRoutes)

	return app
}

// errorHandler renders errors no handler answered, such as unknown routes.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		logging.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// openUserRepository opens the store selected by DATABASE_DRIVER and returns
// a function releasing it.
func openUserRepository(ctx context.Context, cfg config.Config) (repositories.UserRepository, func() error, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMemory:
		return repositories.NewMockUserRepository(), func() error { return nil }, nil

	case config.DriverMongo:
		client, err := repositories.OpenMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		repo := repositories.NewMongoUserRepository(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return repo, func() error { return client.Disconnect(context.Background()) }, nil

	case config.DriverPostgres, config.DriverSQLite:
		db, err := repositories.OpenGORM(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := repositories.Migrate(db); err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		return repositories.NewGORMUserRepository(db), sqlDB.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
}

// logAccountEvent is the consumer of the account queue: it records each event
// in the service log.
func logAccountEvent(msg amqp.Delivery) error {
	var evt models.AccountEvent
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		return fmt.Errorf("failed to decode account event: %w", err)
	}
	logging.Info().
		Str("event", string(evt.Type)).
		Str("user_id", evt.UserID).
		Time("occurred_at", evt.OccurredAt).
		Interface("data", evt.Data).
		Msg("account event")
	return nil
}
