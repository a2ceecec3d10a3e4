package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clarityops/console-sentinel/internal/browser"
	"github.com/clarityops/console-sentinel/internal/cache"
	"github.com/clarityops/console-sentinel/internal/classify"
	"github.com/clarityops/console-sentinel/internal/config"
	"github.com/clarityops/console-sentinel/internal/correlate"
	"github.com/clarityops/console-sentinel/internal/metrics"
	"github.com/clarityops/console-sentinel/internal/models"
	"github.com/clarityops/console-sentinel/internal/monitor"
	"github.com/clarityops/console-sentinel/internal/runner"
	"github.com/clarityops/console-sentinel/internal/storage"
	"github.com/clarityops/console-sentinel/internal/utils"
)

// Exit codes: 0 clean, 1 infrastructure error, 2 fatal monitoring
// signal, 3 deployment verdict NOT_READY.
const (
	exitOK       = 0
	exitInfra    = 1
	exitFatal    = 2
	exitNotReady = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		return exitInfra
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting console-sentinel", slog.Int("targets", len(cfg.Targets)))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		return exitInfra
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Metrics.Enabled && cfg.Metrics.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Metrics.Address,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Metrics.Address))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server shutdown", slog.Any("error", err))
			}
		}()
	}

	cacheProvider := newCacheProvider(cfg.Cache, logger)
	defer cacheProvider.Close()

	var publisher *cache.StatusPublisher
	if cfg.Cache.Provider != "" && cfg.Cache.Provider != "none" {
		publisher = cache.NewStatusPublisher(cacheProvider, cfg.Cache.StatusTTL, logger)
	}

	classifier, err := classify.LoadRulePack(cfg.Rules.Path, logger)
	if err != nil {
		logger.Error("failed to load rule pack", slog.Any("error", err))
		return exitInfra
	}

	mon := monitor.New(logger, classifier, monitor.Config{
		ZeroTolerance:      cfg.Monitor.ZeroTolerance,
		FailureTriggers:    parseSeverities(cfg.Monitor.FailureTriggers),
		MaxAllowedWarnings: cfg.Monitor.MaxAllowedWarnings,
		CorrelationWindow:  cfg.Monitor.CorrelationWindow,
	})
	system := correlate.New(logger, mon, cfg.Monitor.CorrelationWindow)
	writer := storage.NewWriter(cfg.Output.LogDir, cfg.Output.ReportDir, logger)

	b, err := browser.Launch(browser.Config{
		DebuggerURL:            cfg.Browser.DebuggerURL,
		Headless:               cfg.Browser.Headless,
		ViewportWidth:          cfg.Browser.ViewportWidth,
		ViewportHeight:         cfg.Browser.ViewportHeight,
		NavigationTimeout:      cfg.Browser.NavigationTimeout,
		ResponseSampleInterval: cfg.Browser.ResponseSampleInterval,
	}, logger)
	if err != nil {
		logger.Error("failed to launch browser", slog.Any("error", err))
		return exitInfra
	}
	defer b.Close()

	page, err := b.NewPage()
	if err != nil {
		logger.Error("failed to open page", slog.Any("error", err))
		return exitInfra
	}
	defer page.Close()

	if err := page.Attach(ctx, mon); err != nil {
		logger.Error("failed to attach monitor", slog.Any("error", err))
		return exitInfra
	}

	logger.Info("monitoring session started", slog.String("sessionId", mon.SessionID()))

	r := runner.New(logger, page, mon, system, writer, publisher, buildTargets(cfg.Targets), cfg.Output.ScreenshotDir)
	result, err := r.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run failed", slog.Any("error", err))
		return exitInfra
	}

	logger.Info("session complete",
		slog.String("sessionId", mon.SessionID()),
		slog.String("status", string(result.Status.OverallStatus)),
		slog.String("readiness", string(result.Readiness.Status)),
		slog.Int("artifacts", len(result.Artifacts)),
	)

	switch {
	case result.Fatal != nil:
		logger.Error("fatal monitoring signal", slog.Any("error", result.Fatal))
		return exitFatal
	case result.Readiness.Status == models.ReadinessNotReady:
		logger.Error("deployment verdict", slog.String("reason", result.Readiness.Reason))
		return exitNotReady
	default:
		return exitOK
	}
}

func newCacheProvider(cfg config.CacheConfig, logger *slog.Logger) cache.Provider {
	switch cfg.Provider {
	case "valkey":
		provider, err := cache.NewValkeyProvider(cache.ValkeyConfig{
			Addr:         cfg.Addr,
			Username:     cfg.Username,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			MaxRetries:   cfg.MaxRetries,
			TLS:          cfg.TLS,
		})
		if err != nil {
			logger.Warn("valkey unavailable, status publishing disabled", slog.Any("error", err))
			return cache.NoopProvider{}
		}
		return provider
	case "memory":
		return cache.NewMemoryProvider()
	default:
		return cache.NoopProvider{}
	}
}

func parseSeverities(values []string) []models.Severity {
	out := make([]models.Severity, 0, len(values))
	for _, v := range values {
		for _, sev := range models.Severities {
			if string(sev) == v {
				out = append(out, sev)
				break
			}
		}
	}
	return out
}

func buildTargets(targets []config.TargetConfig) []runner.Target {
	out := make([]runner.Target, 0, len(targets))
	for _, t := range targets {
		out = append(out, runner.Target{
			Name:        t.Name,
			URL:         t.URL,
			UserAction:  t.UserAction,
			SettleDelay: t.SettleDelay,
			Screenshot:  t.Screenshot,
		})
	}
	return out
}
