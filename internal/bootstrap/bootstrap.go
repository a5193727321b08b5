package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/adityahegde/counselflow/internal/app/controllers"
	appMigrations "github.com/adityahegde/counselflow/internal/app/migrations"
	appRepos "github.com/adityahegde/counselflow/internal/app/repositories"
	appRoutes "github.com/adityahegde/counselflow/internal/app/routes"
	appServices "github.com/adityahegde/counselflow/internal/app/services"
	"github.com/adityahegde/counselflow/internal/config"
	"github.com/adityahegde/counselflow/internal/db"
	appMiddleware "github.com/adityahegde/counselflow/internal/middleware"
	pkgAuth "github.com/adityahegde/counselflow/internal/pkg/auth"
	"github.com/adityahegde/counselflow/internal/pkg/helpers"
	"github.com/adityahegde/counselflow/internal/pkg/logger"
	"github.com/adityahegde/counselflow/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos                *appRepos.Repositories
	EligibilityService   *appServices.EligibilityService
	ChoiceService        *appServices.ChoiceService
	AllotmentService     *appServices.AllotmentService
	RoundService         *appServices.RoundService
	CatalogController    *appControllers.CatalogController
	ChoiceController     *appControllers.ChoiceController
	AllotmentController  *appControllers.AllotmentController
	RoundController      *appControllers.RoundController
	AuthMiddleware       *appMiddleware.AuthMiddleware
	JWTService           *pkgAuth.JWTService
	RedisClient          *goredis.Client
	TaskClient           *asynq.Client
	Logger               zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}
	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes repositories, services and controllers
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	redisClient, err := db.NewRedisClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	deps.RedisClient = redisClient
	deps.TaskClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	accessExp := helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour)
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: accessExp,
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.EligibilityService = appServices.NewEligibilityService(deps.Repos.StudentRepository)
	deps.ChoiceService = appServices.NewChoiceService(
		dbPool,
		deps.Repos.StudentRepository,
		deps.Repos.CatalogRepository,
		deps.Repos.ChoiceRepository,
		deps.EligibilityService,
		cfg.Counseling.MaxChoices,
		cfg.Counseling.MinChoices,
	)

	decisionWindow := helpers.ParseDuration(cfg.Counseling.DecisionWindow, 72*time.Hour)
	deps.AllotmentService = appServices.NewAllotmentService(
		dbPool,
		deps.Repos.StudentRepository,
		deps.Repos.CatalogRepository,
		deps.Repos.AllotmentRepository,
		deps.Repos.RoundRepository,
		decisionWindow,
	)

	lockTTL := helpers.ParseDuration(cfg.Counseling.RoundLockTTL, 30*time.Minute)
	deps.RoundService = appServices.NewRoundService(
		dbPool,
		redisClient,
		deps.Repos,
		deps.AllotmentService,
		lockTTL,
	)

	deps.CatalogController = appControllers.NewCatalogController(deps.Repos.CatalogRepository)
	deps.ChoiceController = appControllers.NewChoiceController(deps.ChoiceService)
	deps.AllotmentController = appControllers.NewAllotmentController(deps.AllotmentService)
	deps.RoundController = appControllers.NewRoundController(deps.RoundService, deps.AllotmentService, deps.TaskClient)

	return deps, nil
}

// SetupRouter builds the gin engine with middleware and routes
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger())

	appRoutes.SetupRouter(
		router,
		deps.CatalogController,
		deps.ChoiceController,
		deps.AllotmentController,
		deps.RoundController,
		deps.AuthMiddleware,
	)

	lgr.Info().Msg("Router configured")
	return router
}
