package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vrsandeep/tvguide/internal/api"
	"github.com/vrsandeep/tvguide/internal/config"
	"github.com/vrsandeep/tvguide/internal/core"
	"github.com/vrsandeep/tvguide/internal/jobs"
	"golang.org/x/net/netutil"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	app, err := core.New()
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()
	app.Version = version

	cfg := app.Config()
	config.Watch(func(updated *config.Config) {
		config.ConfigureLogging(updated)
	})

	if cfg.Admin.PasswordHash == "" {
		log.Warn("admin.password_hash is not set, admin routes are disabled. Generate one with `tvguide-cli hash-password`.")
	}

	scheduler, err := jobs.NewScheduler(cfg, app.JobManager())
	if err != nil {
		log.Fatalf("Could not set up scheduler: %v", err)
	}
	scheduler.Start()

	server := api.NewServer(app, api.WithScheduler(scheduler))
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		log.Fatalf("Could not listen on %s: %v", httpServer.Addr, err)
	}
	if cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConnections)
	}

	go func() {
		log.WithFields(log.Fields{"addr": httpServer.Addr, "version": version}).Info("starting web server")
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	if err := app.JobManager().Shutdown(ctx); err != nil {
		log.WithError(err).Warn("background jobs did not finish in time")
	}

	log.Info("server exiting")
}
