package bootstrap

import (
	"context"
	"fmt"

	"reviewrota/internal/api"
	"reviewrota/internal/api/handler"
	"reviewrota/internal/notify"
	"reviewrota/internal/pkg/config"
	"reviewrota/internal/pkg/logger"
	"reviewrota/internal/pkg/postgres"
	"reviewrota/internal/repository"
	"reviewrota/internal/service"
)

type Application struct {
	Config   *config.Config
	Logger   *logger.Logger
	Postgres *postgres.Connection
	Migrator *postgres.Migrator

	ReviewStore repository.ReviewStore
	Directory   repository.ReviewerDirectory

	Notifier *notify.ChatWebhook
	Reporter *notify.OperatorReporter

	Selector *service.Selector
	Locks    *service.RequestLocks
	Engine   *service.Engine
	Pool     *service.PoolService
	Sweeper  *service.Sweeper

	ReviewHandler   *handler.ReviewHandler
	ReviewerHandler *handler.ReviewerHandler
	SweepHandler    *handler.SweepHandler

	HTTPServer *api.HTTPServer

	stopSweeper context.CancelFunc
}

func New() (*Application, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: cfg.LogAddSource,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	pg, err := postgres.New(log, &postgres.Config{
		Host:              cfg.DatabaseHost,
		Port:              cfg.DatabasePort,
		Username:          cfg.DatabaseUser,
		Password:          cfg.DatabasePassword,
		Database:          cfg.DatabaseName,
		Schema:            cfg.DatabaseSchema,
		SSLMode:           cfg.DatabaseSSLMode,
		MaxConns:          cfg.DatabaseMaxConns,
		MinConns:          cfg.DatabaseMinConns,
		MaxConnLifetime:   cfg.DatabaseMaxConnLifetime,
		MaxConnIdleTime:   cfg.DatabaseMaxConnIdleTime,
		HealthCheckPeriod: cfg.DatabaseHealthCheckPeriod,
		ConnectTimeout:    cfg.DatabaseConnectTimeout,
		AcquireTimeout:    cfg.DatabaseAcquireTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres connection: %w", err)
	}

	return &Application{
		Config:   cfg,
		Logger:   log,
		Postgres: pg,
	}, nil
}

func (app *Application) Init(ctx context.Context) error {
	app.Logger.Info("initializing application")

	if err := app.Postgres.Connect(ctx); err != nil {
		return fmt.Errorf("postgres connection failed: %w", err)
	}

	app.Migrator = postgres.NewMigrator(app.Postgres.Pool(), &postgres.MigrationConfig{
		Timeout:   app.Config.DatabaseMigrationTimeout,
		TableName: app.Config.DatabaseMigrationTable,
		Enabled:   app.Config.DatabaseMigrationEnabled,
	}, app.Logger)

	if err := app.Migrator.RunMigrations(ctx); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	app.ReviewStore = repository.NewReviewRepo(app.Postgres.Pool(), app.Logger)
	app.Directory = repository.NewReviewerRepo(app.Postgres.Pool(), app.Logger)

	app.Notifier = notify.NewChatWebhook(app.Config.ChatWebhookURL, app.Config.ChatTimeout, app.Logger)
	app.Reporter = notify.NewOperatorReporter(app.Config.OpsWebhookURL, app.Config.ChatTimeout, app.Logger)

	app.Selector = service.NewSelector(app.Directory, app.Logger)
	app.Locks = service.NewRequestLocks()

	expiry := service.NewExpiryCalc(
		app.Config.ReviewExpiryMinutes,
		app.Config.WorkHoursStart,
		app.Config.WorkHoursEnd,
	)

	app.Engine = service.NewEngine(
		app.ReviewStore,
		app.Directory,
		app.Selector,
		app.Locks,
		expiry,
		app.Notifier,
		app.Reporter,
		app.Logger,
	)
	app.Pool = service.NewPoolService(app.Directory, app.Logger)
	app.Sweeper = service.NewSweeper(app.ReviewStore, app.Engine, app.Reporter, app.Config.SweepInterval, app.Logger)

	// sweeper outlives the Init ctx and stops during Shutdown
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	app.stopSweeper = stopSweeper
	go app.Sweeper.Run(sweepCtx)

	app.ReviewHandler = handler.NewReviewHandler(app.Engine, app.Logger)
	app.ReviewerHandler = handler.NewReviewerHandler(app.Pool, app.Logger)
	app.SweepHandler = handler.NewSweepHandler(app.Sweeper, app.Logger)

	serverConfig := &api.ServerConfig{
		Host:         app.Config.ServerHost,
		Port:         app.Config.ServerPort,
		ReadTimeout:  app.Config.ServerReadTimeout,
		WriteTimeout: app.Config.ServerWriteTimeout,
		IdleTimeout:  app.Config.ServerIdleTimeout,
		ManualSweep:  app.Config.Environment != "production",
	}

	app.HTTPServer = api.NewHTTPServer(
		serverConfig,
		app.ReviewHandler,
		app.ReviewerHandler,
		app.SweepHandler,
		app.Logger,
	)

	if err := app.HTTPServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start http server: %w", err)
	}

	app.Logger.Info("application initialized successfully")
	return nil
}

func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("shutting down application")

	if app.HTTPServer != nil {
		if err := app.HTTPServer.Stop(ctx); err != nil {
			app.Logger.Error("error stopping http server", "error", err)
		}
	}

	if app.stopSweeper != nil {
		app.stopSweeper()
	}

	app.Postgres.Close()

	app.Logger.Info("application shutdown completed")
	return nil
}

func (app *Application) Health(ctx context.Context) error {
	if err := app.Postgres.Health(ctx); err != nil {
		return fmt.Errorf("postgres health check failed: %w", err)
	}
	if err := app.Migrator.Health(ctx); err != nil {
		return fmt.Errorf("migrator health check failed: %w", err)
	}
	return nil
}
