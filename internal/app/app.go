package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/weekcal/internal/clock"
	"github.com/klokku/weekcal/internal/config"
	"github.com/klokku/weekcal/internal/database"
	"github.com/klokku/weekcal/internal/rest"
	log "github.com/sirupsen/logrus"
)

const (
	configPath      = "./config/application.yaml"
	shutdownTimeout = 10 * time.Second
)

// Application wires configuration, database, router, and server lifecycle.
type Application struct {
	cfg  config.Application
	db   *pgxpool.Pool
	deps *Dependencies
	srv  *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(cfg.Database); err != nil {
		db.Close()
		return nil, err
	}

	deps, err := BuildDependencies(db, cfg, clock.System{})
	if err != nil {
		db.Close()
		return nil, err
	}

	srv := &http.Server{
		Handler:      NewRouter(deps, cfg),
		Addr:         cfg.Listen,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, deps: deps, srv: srv}, nil
}

// NewRouter builds the HTTP handler: API routes, the optional frontend, and the
// middleware around them.
func NewRouter(deps *Dependencies, cfg config.Application) http.Handler {
	r := mux.NewRouter()
	SetupMiddleware(r, deps)
	RegisterRoutes(r, deps)

	if cfg.Frontend.Enabled {
		frontend := rest.NewFrontendHandler(cfg.Frontend.Dir, "index.html")
		r.PathPrefix("/").Handler(frontend)
	}
	return wrapHandler(r, cfg.Cors)
}

// Run starts the now line ticker and the HTTP server, and blocks until SIGINT
// or SIGTERM, then shuts both down.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.db.Close()

	a.deps.NowLineTicker.Start()
	defer func() {
		<-a.deps.NowLineTicker.Stop().Done()
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		log.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-serverErr
}
