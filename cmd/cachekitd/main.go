// Command cachekitd runs a standalone cache daemon: a hot-key aware
// manager plus a two-level cache backed by a durable store, exposed
// over an HTTP inspection API with Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cachekit/pkg/api"
	"cachekit/pkg/cache"
	"cachekit/pkg/cache/lru"
	"cachekit/pkg/cache/persistent"
	"cachekit/pkg/cache/twolevel"
	"cachekit/pkg/config"
	"cachekit/pkg/logging"
	"cachekit/pkg/manager"
	promcollector "cachekit/pkg/metrics/prometheus"
	"cachekit/pkg/store/postgres"
	"cachekit/pkg/store/redis"
	"cachekit/pkg/store/resilient"
	"cachekit/pkg/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.MustNew(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	instanceID := uuid.NewString()
	logger = logger.With(zap.String("instance", instanceID))
	logger.Info("starting cachekitd",
		zap.String("backend", cfg.Store.Backend),
		zap.String("listen", cfg.Listen))

	if err := run(cfg, logger); err != nil {
		logger.Fatal("daemon failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	backend, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	store := resilient.New(cfg.Store.Backend, backend, resilient.DefaultConfig(), logger)

	// Metrics registry with the collector plus process/runtime stats.
	collector := promcollector.New("cachekit")
	registry := prometheus.NewRegistry()
	if err := collector.Register(registry); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	l1 := lru.New[manager.Payload](cfg.Cache.L1MaxSize, cfg.Cache.DefaultTTL())
	l2 := persistent.New[manager.Payload](cfg.Cache.Name, store, cfg.Cache.DefaultTTL(),
		persistent.WithLogger[manager.Payload](logger),
		persistent.WithCollector[manager.Payload](collector),
		persistent.WithFlushInterval[manager.Payload](cfg.Store.FlushInterval()),
	)

	tiered := twolevel.New(l1, l2,
		twolevel.WithLogger[manager.Payload](logger),
		twolevel.WithCollector[manager.Payload](collector),
		twolevel.WithBloomFilter[manager.Payload](uint(cfg.Cache.L1MaxSize*10), 0.01),
	)

	setupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	tiered.Setup(setupCtx)
	cancel()

	mgr := manager.New(cfg.Cache.ManagerMaxSize,
		manager.WithLogger(logger),
		manager.WithCollector(collector),
	)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Address = cfg.Listen
	serverConfig.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	server := api.NewServer(mgr, tiered, logger, serverConfig)
	server.Start()

	// Periodic maintenance keeps expired entries from lingering between
	// reads.
	maintenanceDone := make(chan struct{})
	go maintenanceLoop(mgr, collector, logger, maintenanceDone)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	close(maintenanceDone)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if err := tiered.Close(); err != nil {
		logger.Error("cache close error", zap.Error(err))
	}

	logger.Info("stopped")
	return nil
}

// openStore builds the configured durable backend.
func openStore(cfg config.Config, logger *zap.Logger) (cache.Store, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		return sqlite.Open(cfg.Store.SQLitePath)
	case "redis":
		rc := redis.DefaultConfig()
		rc.Addr = cfg.Store.RedisAddr
		rc.Password = cfg.Store.RedisPassword
		rc.DB = cfg.Store.RedisDB
		return redis.New(cfg.Cache.Name, rc)
	case "postgres":
		pc := postgres.DefaultConfig()
		pc.Host = cfg.Store.PostgresHost
		pc.Port = cfg.Store.PostgresPort
		pc.User = cfg.Store.PostgresUser
		pc.Password = cfg.Store.PostgresPassword
		pc.Database = cfg.Store.PostgresDatabase
		return postgres.New(cfg.Cache.Name, pc)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// maintenanceLoop runs Optimize on a fixed cadence until done is closed.
func maintenanceLoop(mgr *manager.Manager, collector *promcollector.Collector, logger *zap.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			report := mgr.Optimize()
			collector.RecordHotKeys(report.HotKeys)
			if report.Expired > 0 || report.Promoted > 0 || report.Demoted > 0 {
				logger.Debug("maintenance pass",
					zap.Int("expired", report.Expired),
					zap.Int("promoted", report.Promoted),
					zap.Int("demoted", report.Demoted),
					zap.Int("hot_keys", report.HotKeys))
			}
		case <-done:
			return
		}
	}
}
