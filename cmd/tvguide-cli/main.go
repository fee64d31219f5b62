package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vrsandeep/tvguide/internal/auth"
	"github.com/vrsandeep/tvguide/internal/core"
	"github.com/vrsandeep/tvguide/internal/jobs"
)

const usage = `Usage: tvguide-cli <command> [flags]

Commands:
  fetch [-days N]          fetch programs for today plus N days
  update-channels          refresh the channel list
  cleanup [-days N]        remove programs and fetch logs older than N days
  stats                    print schedule statistics as JSON
  hash-password <password> print a bcrypt hash for admin.password_hash
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	if cmd == "hash-password" {
		if len(args) != 1 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	app, err := core.New()
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.Config()
	switch cmd {
	case "fetch":
		fs := flag.NewFlagSet("fetch", flag.ExitOnError)
		days := fs.Int("days", cfg.Collector.DaysAhead, "days ahead to fetch")
		fs.Parse(args)
		runJob(ctx, app, jobs.JobFetchPrograms, *days)
	case "update-channels":
		runJob(ctx, app, jobs.JobUpdateChannels, 0)
	case "cleanup":
		fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
		days := fs.Int("days", cfg.Retention.Days, "retention in days")
		fs.Parse(args)
		runJob(ctx, app, jobs.JobCleanup, *days)
	case "stats":
		stats, err := app.Store().GetStats(time.Now())
		if err != nil {
			log.Fatalf("Failed to compute stats: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(stats)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
}

func runJob(ctx context.Context, app *core.App, id string, days int) {
	if err := app.JobManager().Run(ctx, id, days); err != nil {
		log.Fatalf("%s failed: %v", id, err)
	}
	for _, s := range app.JobManager().GetStatus() {
		if s.ID == id {
			fmt.Println(s.Message)
		}
	}
}
