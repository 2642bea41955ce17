package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"weekplan/internal/capture"
	"weekplan/internal/config"
	"weekplan/internal/ics"
	applog "weekplan/internal/log"
	"weekplan/internal/model"
	"weekplan/internal/store"
	"weekplan/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	snapshot   string
	cacheDir   string
}

func main() {
	// Optional .env for local development; a missing file is fine.
	_ = godotenv.Load()

	applog.Info("weekplan starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		applog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	applog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"state_path", conf.StatePath,
		"ics_count", len(conf.ICS),
		"minimum_viable_day", conf.MinimumViableDay,
	)

	st, err := store.New(conf.StatePath)
	if err != nil {
		applog.Error("failed to open state store", err, "state_path", conf.StatePath)
		os.Exit(1)
	}

	fetcher := ics.NewFetcher(flags.cacheDir)
	planner := web.NewPlanner(conf, st, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		applog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	refresh := func() {
		week := model.WeekStart(time.Now().In(conf.Location()), conf.Location())
		plan, err := planner.RefreshWeek(ctx, week)
		if err != nil {
			applog.Error("refresh failed", err)
			return
		}
		applog.Info("week replanned",
			"week", model.DateKey(plan.WeekStart),
			"blocks", len(plan.Blocks),
			"conflicts", len(plan.Conflicts),
		)
	}

	if flags.once {
		refresh()
		if flags.snapshot != "" {
			runSnapshot(ctx, conf, planner, flags.snapshot)
		}
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, refresh); err != nil {
		applog.Error("invalid refresh cron spec", err, "spec", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	// Plan immediately so the UI has data before the first cron tick.
	go refresh()

	go func() {
		if err := web.Start(ctx, conf, planner); err != nil {
			applog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	<-ctx.Done()
	time.Sleep(100 * time.Millisecond)
	applog.Info("weekplan exiting")
}

func runSnapshot(ctx context.Context, conf *config.Config, planner *web.Planner, outputPath string) {
	// The snapshot needs a live server to render /week; serve on the
	// configured address just for this run.
	go func() {
		if err := web.Start(ctx, conf, planner); err != nil {
			applog.Error("snapshot server failed", err)
		}
	}()
	time.Sleep(300 * time.Millisecond)

	err := capture.WeekPNG(ctx, capture.Options{
		URL:        "http://" + conf.Listen + "/week",
		OutputPath: outputPath,
	})
	if err != nil {
		applog.Error("snapshot failed", err, "output", outputPath)
		return
	}
	applog.Info("snapshot written", "output", outputPath)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./weekplan.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Replan the current week once and exit")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "With -once: write a PNG snapshot of the week view to this path")
	flag.StringVar(&cfg.cacheDir, "ics-cache", "", "ICS fetch cache directory (default ./var/ics-cache)")

	flag.Parse()

	return cfg
}
