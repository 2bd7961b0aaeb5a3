package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"PricePulse/internal/cache"
	"PricePulse/internal/config"
	"PricePulse/internal/httpapi"
	"PricePulse/internal/logger"
	"PricePulse/internal/metrics"
	"PricePulse/internal/model"
	"PricePulse/internal/notifier"
	"PricePulse/internal/query"
	"PricePulse/internal/recorder"
	"PricePulse/internal/report"
	"PricePulse/internal/scheduler"
	"PricePulse/internal/series"
)

func main() {
	cfgPath := flag.String("config", "", "config file (default $CONFIG_PATH or configs/config.yaml)")
	generate := flag.Bool("generate", false, "generate today's report once and exit")
	flag.Parse()

	path := *cfgPath
	if path == "" {
		path = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	log, closeLog, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log, *generate); err != nil {
		log.Error().Err(err).Msg("PricePulse exited with error")
		closeLog()
		os.Exit(1)
	}
	closeLog()
}

func run(cfg *config.Config, log zerolog.Logger, generateOnly bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("source", cfg.Source.Path).Str("reports", cfg.Reports.Dir).Msg("PricePulse starting")

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("resolve location: %w", err)
	}
	m := metrics.New(prometheus.DefaultRegisterer)

	// Series source, optionally memoized
	store := series.NewFileStore(cfg.Source.Path, loc, log.With().Str("component", "series").Logger())
	var src series.Source = store
	c, closeCache := openCache(ctx, cfg, log)
	defer closeCache()
	if c != nil {
		cs := series.NewCachedStore(store, c, cfg.Cache.TTL, log)
		cs.OnLookup = m.RecordCacheLookup
		src = cs
	}

	q := query.New(src, report.NewCatalog(cfg.Reports.Dir),
		query.WithTimeout(cfg.Source.ReadTimeout),
		query.WithLocation(loc),
		query.WithMetrics(m),
		query.WithLogger(log),
	)

	rec := openRecorder(cfg, log)
	defer rec.Close()

	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy,
			log.With().Str("component", "telegram").Logger())
		sender = tn
	} else {
		log.Info().Msg("telegram not configured, notifications disabled")
	}

	gen := report.NewGenerator(cfg.Reports.Dir, log)
	sched := scheduler.NewScheduler(ctx, q, gen, sender, rec, m, loc, log.With().Str("component", "scheduler").Logger())

	if generateOnly {
		_, _, err := sched.Generate(ctx, model.TriggerManual)
		if errors.Is(err, report.ErrEmptySeries) {
			log.Warn().Msg("no samples available, nothing generated")
			return nil
		}
		return err
	}

	if err := sched.Register(cfg.Reports.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, generating today's report now")
		go sched.RunDailyNow()
	}

	srv := httpapi.NewServer(httpapi.NewAPI(q, sched, rec, log),
		httpapi.WithAddress(cfg.Server.Host, cfg.Server.Port),
		httpapi.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		httpapi.WithMetrics(m, promhttp.Handler()),
		httpapi.WithLogger(log.With().Str("component", "http").Logger()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if tn != nil {
		g.Go(func() error {
			tn.StartPolling(gctx, sched.HandleCommand)
			return nil
		})
		log.Info().Msg("telegram polling started")
	}

	log.Info().Msg("PricePulse is running. Press Ctrl+C to stop.")
	err = g.Wait()
	log.Info().Msg("PricePulse stopped")
	return err
}

func openCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (cache.Cache, func()) {
	switch cfg.Cache.Backend {
	case "memory":
		return cache.NewMemory(0), func() {}
	case "redis":
		rc, err := cache.NewRedis(ctx, cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, falling back to memory cache")
			return cache.NewMemory(0), func() {}
		}
		return rc, func() { _ = rc.Close() }
	default:
		return nil, func() {}
	}
}

func openRecorder(cfg *config.Config, log zerolog.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log.With().Str("component", "recorder").Logger())
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}
