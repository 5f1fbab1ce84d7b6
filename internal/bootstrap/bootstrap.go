package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/yigit/knowledgemap/internal/app/controllers"
	"github.com/yigit/knowledgemap/internal/app/hierarchy"
	appMigrations "github.com/yigit/knowledgemap/internal/app/migrations"
	appRepos "github.com/yigit/knowledgemap/internal/app/repositories"
	appRoutes "github.com/yigit/knowledgemap/internal/app/routes"
	appServices "github.com/yigit/knowledgemap/internal/app/services"
	"github.com/yigit/knowledgemap/internal/config"
	"github.com/yigit/knowledgemap/internal/db"
	appMiddleware "github.com/yigit/knowledgemap/internal/middleware"
	"github.com/yigit/knowledgemap/internal/pkg/helpers"
	"github.com/yigit/knowledgemap/internal/pkg/logger"
	"github.com/yigit/knowledgemap/internal/seed"
)

// Storage is the course store selected by configuration together with its owned resources
type Storage struct {
	Repository appRepos.CourseRepository
	Driver     string
	Database   *db.PostgresDB // nil for the memory driver
}

// Close releases the connection pool, if any
func (s *Storage) Close() {
	if s != nil && s.Database != nil {
		s.Database.Close()
	}
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	Engine           *hierarchy.Engine
	Storage          *Storage
	Repos            *appRepos.Repositories
	CourseService    appServices.CourseService
	CourseController *appControllers.CourseController
	HealthController *appControllers.HealthController
	Logger           zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStorage builds the course store named by database.driver.
// For postgres it opens the pool and, when enabled, runs the embedded migrations.
func SetupStorage(ctx context.Context, cfg *config.Config, engine *hierarchy.Engine, lgr zerolog.Logger) (*Storage, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		lgr.Warn().Msg("Using in-memory course storage; data is lost on restart")
		return &Storage{
			Repository: appRepos.NewMemoryCourseRepository(engine),
			Driver:     config.DriverMemory,
		}, nil

	case config.DriverPostgres:
		lgr.Info().Msg("Establishing database connection...")
		database, err := db.NewPostgresDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}

		if cfg.Database.AutoMigrate {
			if err := RunMigrations(ctx, database, lgr); err != nil {
				database.Close()
				return nil, err
			}
		}

		return &Storage{
			Repository: appRepos.NewPostgresCourseRepository(database, engine),
			Driver:     config.DriverPostgres,
			Database:   database,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// RunMigrations applies the embedded schema migrations
func RunMigrations(ctx context.Context, database *db.PostgresDB, lgr zerolog.Logger) error {
	lgr.Info().Msg("Running database migrations...")
	if _, err := appMigrations.NewMigrator(database.Pool).Migrate(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	return nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	deps.Engine = hierarchy.NewEngine(cfg.Hierarchy.MaxDepth)

	storage, err := SetupStorage(ctx, cfg, deps.Engine, lgr)
	if err != nil {
		return nil, err
	}
	deps.Storage = storage
	deps.Repos = appRepos.NewRepositories(storage.Repository)

	deps.CourseService = appServices.NewCourseService(deps.Repos.CourseRepository, deps.Engine)

	if cfg.Database.Seed {
		seedCtx, cancel := context.WithTimeout(ctx, helpers.ParseDuration(cfg.Database.QueryTimeout, 30*time.Second))
		if _, err := seed.CreateDefaultData(seedCtx, deps.CourseService, lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
		cancel()
	}

	deps.CourseController = appControllers.NewCourseController(deps.CourseService)
	deps.HealthController = appControllers.NewHealthController(storage.Repository, storage.Driver)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(),
		appMiddleware.CORS(cfg.Server.AllowedOrigins),
	)

	appRoutes.SetupRouter(router, deps.CourseController, deps.HealthController)

	return router
}
