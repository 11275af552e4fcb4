package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/redis/go-redis/v9"

	"PremiumScreener/internal/collector"
	"PremiumScreener/internal/config"
	"PremiumScreener/internal/logging"
	"PremiumScreener/internal/metrics"
	"PremiumScreener/internal/notifier"
	"PremiumScreener/internal/publisher"
	"PremiumScreener/internal/recorder"
	"PremiumScreener/internal/scheduler"
	"PremiumScreener/internal/screener"
	"PremiumScreener/internal/universe"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger := logging.New("info", "logfmt")
		_ = level.Error(logger).Log("msg", "load config", "path", cfgPath, "err", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		_ = level.Error(logger).Log("msg", "config validation", "err", err)
		os.Exit(1)
	}
	_ = level.Info(logger).Log("msg", "PremiumScreener starting", "config", cfgPath)

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher := newFetcher(ctx, cfg, logger)
	_ = level.Info(logger).Log("msg", "data source", "fetcher", fetcher.Name(),
		"period", cfg.DataSource.Period, "interval", cfg.DataSource.Interval)

	col := collector.NewCollector(fetcher, cfg.DataSource.Period, cfg.DataSource.Interval)
	scr := screener.New(col, cfg.Criteria, cfg.Screener.Workers, logger)

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			_ = level.Warn(logger).Log("msg", "init sqlite recorder failed, using noop", "err", err)
		} else {
			rec = sr
			defer sr.Close()
			if n, err := sr.RunCount(); err == nil {
				_ = level.Info(logger).Log("msg", "sqlite recorder ready", "path", cfg.Database.SQLitePath, "runs", n)
			}
		}
	}

	// Init publisher
	var pub publisher.Publisher = publisher.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := publisher.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		pub = kp
		defer kp.Close()
		_ = level.Info(logger).Log("msg", "publishing signals", "topic", cfg.Kafka.Topic, "brokers", len(cfg.Kafka.Brokers))
	}

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	opts := scheduler.Options{
		Source:          universe.NewWikipediaSource(cfg.Universe.SourceURL, cfg.Proxy),
		Fallback:        cfg.Universe.Fallback,
		Limit:           cfg.Universe.Limit,
		Screener:        scr,
		ReportDir:       cfg.Report.Dir,
		Preview:         cfg.Report.Preview,
		Recorder:        rec,
		Publisher:       pub,
		Metrics:         metrics.NewMetrics(),
		MetricsTextfile: cfg.Metrics.Textfile,
	}
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		opts.Notifier = tn
	}

	sched := scheduler.NewScheduler(ctx, opts, logger)

	// One-shot mode
	if cfg.Schedule.Cron == "" {
		if _, err := sched.RunScan(ctx); err != nil {
			_ = level.Error(logger).Log("msg", "scan failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		_ = level.Error(logger).Log("msg", "register cron task", "err", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		_ = level.Info(logger).Log("msg", "telegram polling started")
	}

	if cfg.Schedule.RunOnStart {
		_ = level.Info(logger).Log("msg", "run_on_start enabled, executing scan now")
		go sched.RunNow()
	}

	_ = level.Info(logger).Log("msg", "PremiumScreener is running", "cron", cfg.Schedule.Cron)
	<-ctx.Done()
	_ = level.Info(logger).Log("msg", "shutdown signal received, stopping")
}

func newFetcher(ctx context.Context, cfg *config.Config, logger log.Logger) collector.Fetcher {
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "vstrader":
		vf := collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
		vf.Client.Timeout = cfg.DataSource.Timeout
		fetcher = vf
	case "mock":
		fetcher = &collector.MockFetcher{}
	default:
		yf := collector.NewYahooFetcher(cfg.Proxy)
		yf.Client.Timeout = cfg.DataSource.Timeout
		fetcher = yf
	}

	if cfg.Redis.Addr == "" {
		return fetcher
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = level.Warn(logger).Log("msg", "redis unavailable, bar cache disabled", "addr", cfg.Redis.Addr, "err", err)
		client.Close()
		return fetcher
	}
	return collector.NewCachedFetcher(fetcher, client, cfg.Redis.TTL, logger)
}
