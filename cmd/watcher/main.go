package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"SentimentWatch/internal/collector"
	"SentimentWatch/internal/config"
	"SentimentWatch/internal/detector"
	"SentimentWatch/internal/logger"
	"SentimentWatch/internal/metrics"
	"SentimentWatch/internal/model"
	"SentimentWatch/internal/notifier"
	"SentimentWatch/internal/pipeline"
	"SentimentWatch/internal/recorder"
	"SentimentWatch/internal/scheduler"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("config validation: %v", err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		logrus.Fatalf("init logger: %v", err)
	}
	log := logger.Component("main")
	log.Info("SentimentWatch starting...")

	// Sources
	sources := []collector.Source{
		collector.NewMarkupSource(collector.MarkupOptions{
			URL:                cfg.Markup.URL,
			UserAgent:          cfg.Markup.UserAgent,
			Timeout:            cfg.Markup.Timeout,
			Proxy:              cfg.Proxy,
			PrimarySelector:    cfg.Markup.PrimarySelector,
			FallbackSelector:   cfg.Markup.FallbackSelector,
			PlaceholderOnEmpty: cfg.Markup.PlaceholderOnEmpty,
		}),
	}
	if !cfg.FearGreed.Disabled {
		sources = append(sources, collector.NewFearGreedSource(collector.FearGreedOptions{
			Endpoint:   cfg.FearGreed.Endpoint,
			Instrument: cfg.FearGreed.Instrument,
			UserAgent:  cfg.FearGreed.UserAgent,
			Timeout:    cfg.FearGreed.Timeout,
			Proxy:      cfg.Proxy,
		}))
	}
	for _, s := range sources {
		log.WithField("source", s.Name()).Info("source enabled")
	}

	// Detector state
	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("init detector store: %v", err)
	}
	defer closeStore()

	// Recorders
	rec := recorder.Multi{}
	csv, err := recorder.NewCSVRecorder(cfg.Recorder.CSVDir)
	if err != nil {
		log.Fatalf("init csv recorder: %v", err)
	}
	rec = append(rec, csv)
	if cfg.Recorder.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Recorder.SQLitePath)
		if err != nil {
			log.WithError(err).Warn("init sqlite recorder failed, continuing with csv only")
		} else {
			rec = append(rec, sr)
		}
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := pipeline.Deps{
		Collector:     collector.NewCollector(sources...),
		Detector:      detector.New(store),
		Recorder:      rec,
		Metrics:       metrics.New(prometheus.DefaultRegisterer),
		MinImportance: model.Importance(cfg.Telegram.MinImportance),
	}

	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		deps.Alerter = tn
	} else {
		log.Info("telegram not configured, alerts disabled")
	}

	pl := pipeline.New(deps)
	sched := scheduler.New(pl.Run,
		scheduler.WithGracePeriod(cfg.Schedule.GracePeriod),
		scheduler.WithHardWait(cfg.Schedule.HardWait),
	)

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, prometheus.DefaultGatherer); err != nil {
				log.WithError(err).Error("metrics endpoint failed")
			}
		}()
	}

	if tn != nil {
		cmds := &notifier.Commands{Runner: sched, History: pl}
		go tn.StartPolling(ctx, cmds.Handle)
		log.Info("telegram polling started")
	}

	switch cfg.Schedule.Mode {
	case "immediate":
		err = sched.StartImmediately()
	case "interval":
		err = sched.StartWithCustomInterval(cfg.Schedule.IntervalMinutes)
	default:
		err = sched.StartAtNextHourBoundary()
	}
	if err != nil {
		log.Fatalf("start scheduler: %v", err)
	}
	log.WithField("next_run", sched.NextRun()).Info("SentimentWatch is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping...")
	sched.Stop()
	cancel()
	if err := rec.Close(); err != nil {
		log.WithError(err).Error("close recorders")
	}
	log.Info("SentimentWatch stopped")
}

func openStore(cfg *config.Config) (detector.Store, func(), error) {
	switch cfg.Detector.Store {
	case "memory":
		return detector.NewMemoryStore(), func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Detector.Redis.Addr,
			Password: cfg.Detector.Redis.Password,
			DB:       cfg.Detector.Redis.DB,
		})
		return detector.NewRedisStore(client, cfg.Detector.Redis.Key), func() { client.Close() }, nil
	default:
		fs, err := detector.NewFileStore(cfg.Detector.StateFile)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}
