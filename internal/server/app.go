// Package server wires configuration, storage, services, transports and the
// reminder scheduler into one process and runs them until a signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/credstack/internal/logging"
	"github.com/dmitrijs2005/credstack/internal/server/archive"
	"github.com/dmitrijs2005/credstack/internal/server/config"
	"github.com/dmitrijs2005/credstack/internal/server/httpapi"
	"github.com/dmitrijs2005/credstack/internal/server/notify"
	"github.com/dmitrijs2005/credstack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credstack/internal/server/scheduler"
	"github.com/dmitrijs2005/credstack/internal/server/services"

	gs "github.com/dmitrijs2005/credstack/internal/server/grpc"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	userService     *services.UserService
	reminderService *services.ReminderService
	notifier        notify.Notifier
	archiver        scheduler.Archiver
}

// NewApp connects to the database, migrates it and builds every component.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if c.UsesDevSecret() {
		logger.Warn(ctx, "using the built-in development secret key; set CREDSTACK_SECRET_KEY in production")
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository manager init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	notifier, err := notify.New(ctx, c, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("notifier init error: %w", err)
	}

	app := &App{
		config:          c,
		logger:          logger,
		db:              db,
		userService:     services.NewUserService(db, rm, c),
		reminderService: services.NewReminderService(db, rm, c),
		notifier:        notifier,
	}

	if c.S3Bucket != "" {
		a, err := archive.NewS3Archiver(ctx, c)
		if err != nil {
			_ = notifier.Close()
			_ = db.Close()
			return nil, fmt.Errorf("archiver init error: %w", err)
		}
		app.archiver = a
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runComponent runs fn and cancels the whole app if it fails.
func (app *App) runComponent(ctx context.Context, cancelFunc context.CancelFunc, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		app.logger.Error(ctx, "component failed", "component", name, "error", err)
		cancelFunc()
	}
}

// Run blocks until a signal arrives or a component fails, then waits for
// all components to stop and releases resources.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	grpcServer := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService)
	httpServer := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.userService)

	loop := scheduler.NewLoop(app.reminderService, app.notifier, app.archiver, app.logger,
		app.config.SchedulerInterval, app.config.SchedulerTickTimeout)

	components := map[string]func(context.Context) error{
		"grpc":      grpcServer.Run,
		"http":      httpServer.Run,
		"scheduler": loop.Run,
	}

	var wg sync.WaitGroup
	for name, fn := range components {
		name, fn := name, fn
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.runComponent(ctx, cancelFunc, name, fn)
		}()
	}

	wg.Wait()
	app.close()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close() {
	if err := app.notifier.Close(); err != nil {
		app.logger.Warn(context.Background(), "notifier close", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(context.Background(), "db close", "error", err)
	}
}
