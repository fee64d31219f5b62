package core

import (
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/vrsandeep/tvguide/internal/collector"
	"github.com/vrsandeep/tvguide/internal/config"
	"github.com/vrsandeep/tvguide/internal/db"
	"github.com/vrsandeep/tvguide/internal/jobs"
	"github.com/vrsandeep/tvguide/internal/store"
	"github.com/vrsandeep/tvguide/internal/telkussa"
	"github.com/vrsandeep/tvguide/internal/websocket"
)

// App holds the core components of the application that are shared
// between the server and the CLI.
type App struct {
	config     *config.Config
	db         *sql.DB
	store      *store.Store
	collector  *collector.Collector
	jobManager *jobs.JobManager
	wsHub      *websocket.Hub
	Version    string
}

// New loads config.yml, opens the database, applies migrations and wires
// the collector and job manager.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	config.ConfigureLogging(cfg)

	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(database); err != nil {
		// Can't proceed without a valid schema.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	app := NewWithDB(cfg, database)
	log.WithField("database", cfg.Database.Path).Info("core application setup complete")
	return app, nil
}

// NewWithDB wires an App around an already migrated database.
func NewWithDB(cfg *config.Config, database *sql.DB) *App {
	st := store.New(database)
	client := telkussa.New(cfg.Source.BaseURL, cfg.Source.UserAgent, cfg.Source.Timeout)
	c := collector.New(client, st,
		collector.WithRateLimit(cfg.Collector.RateLimit),
		collector.WithLocation(cfg.Location()),
	)

	hub := websocket.NewHub()
	go hub.Run()

	jm := jobs.NewManager(hub)
	jobs.RegisterCollectorJobs(jm, c)

	return &App{
		config:     cfg,
		db:         database,
		store:      st,
		collector:  c,
		jobManager: jm,
		wsHub:      hub,
		Version:    "dev",
	}
}

func (a *App) Config() *config.Config          { return a.config }
func (a *App) DB() *sql.DB                     { return a.db }
func (a *App) Store() *store.Store             { return a.store }
func (a *App) Collector() *collector.Collector { return a.collector }
func (a *App) JobManager() *jobs.JobManager    { return a.jobManager }
func (a *App) WsHub() *websocket.Hub           { return a.wsHub }

// Close releases the database connection.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
