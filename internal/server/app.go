// Package server wires configuration, storage, services and the HTTP
// front end together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dominiquedave/Time-Financial/internal/logging"
	"github.com/dominiquedave/Time-Financial/internal/server/access"
	"github.com/dominiquedave/Time-Financial/internal/server/config"
	"github.com/dominiquedave/Time-Financial/internal/server/repositories/repomanager"
	"github.com/dominiquedave/Time-Financial/internal/server/services"
	"github.com/dominiquedave/Time-Financial/internal/server/web"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	web    *web.Server
}

// openDB is a seam for tests.
var openDB = repomanager.Open

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)

	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	sessions := services.NewSessionService(db, rm, c, logger)
	gate := access.NewResolver(sessions, rm.Profiles(db), c.GateTimeout, logger)

	ws, err := web.NewServer(web.Options{
		Address:       c.HTTPAddr,
		Logger:        logger,
		Sessions:      sessions,
		Gate:          gate,
		Leads:         services.NewLeadService(db, rm, logger),
		Admin:         services.NewAdminService(db, rm, logger),
		Exports:       services.NewExportService(c, logger),
		Location:      loc,
		CSRFKey:       []byte(c.CSRFKey),
		SecureCookies: c.SecureCookies,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("web init error: %w", err)
	}

	return &App{config: c, logger: logger, db: db, web: ws}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.web.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err.Error())
	}
	app.logger.Info(ctx, "App stopped")
}
