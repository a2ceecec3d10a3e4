// Package browser drives a Chromium instance over CDP and feeds page
// event streams (console, exceptions, network) into an event sink.
package browser

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/clarityops/console-sentinel/internal/utils"
)

// Config holds browser connection and capture settings.
type Config struct {
	// DebuggerURL attaches to an already-running Chrome instead of
	// launching one.
	DebuggerURL       string
	Headless          bool
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
	// ResponseSampleInterval throttles latency sampling of OK responses.
	// Error responses and failures are never throttled.
	ResponseSampleInterval time.Duration
}

// DefaultConfig returns the capture defaults used by the CLI.
func DefaultConfig() Config {
	return Config{
		Headless:               true,
		ViewportWidth:          1440,
		ViewportHeight:         900,
		NavigationTimeout:      30 * time.Second,
		ResponseSampleInterval: 0,
	}
}

// Browser owns the Chromium connection and, when it launched the process
// itself, the launcher used to clean it up.
type Browser struct {
	logger   *slog.Logger
	cfg      Config
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// Launch connects to cfg.DebuggerURL when set, otherwise starts a managed
// Chromium process.
func Launch(cfg Config, logger *slog.Logger) (*Browser, error) {
	if logger == nil {
		logger = slog.Default()
	}

	controlURL := cfg.DebuggerURL
	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().Headless(cfg.Headless)
		u, err := l.Launch()
		if err != nil {
			return nil, utils.NewAppError("browser", "launch chromium", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Cleanup()
		}
		return nil, utils.NewAppError("browser", fmt.Sprintf("connect to %s", controlURL), err)
	}

	logger.Info("browser connected",
		slog.Bool("headless", cfg.Headless),
		slog.Bool("managed", l != nil),
	)
	return &Browser{logger: logger, cfg: cfg, browser: b, launcher: l}, nil
}

// NewPage opens a blank page with the configured viewport.
func (b *Browser) NewPage() (*Page, error) {
	page, err := b.browser.Page(pageTarget())
	if err != nil {
		return nil, utils.NewAppError("browser", "open page", err)
	}
	if b.cfg.ViewportWidth > 0 && b.cfg.ViewportHeight > 0 {
		if err := setViewport(page, b.cfg.ViewportWidth, b.cfg.ViewportHeight); err != nil {
			b.logger.Warn("viewport override failed", slog.Any("error", err))
		}
	}
	return newPage(page, b.cfg, b.logger), nil
}

// Close shuts the browser down and reaps the managed process, if any.
func (b *Browser) Close() {
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			b.logger.Warn("browser close failed", slog.Any("error", err))
		}
	}
	if b.launcher != nil {
		b.launcher.Cleanup()
	}
}
