package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/clarityops/console-sentinel/internal/models"
	"github.com/clarityops/console-sentinel/internal/utils"
)

// EventSink receives classified page events. *monitor.Monitor satisfies it.
// A non-nil returned error is treated as a fatal stop signal for the run.
type EventSink interface {
	RecordConsole(level, text, url string) (models.LogEntry, error)
	RecordPageError(message, stack, url string) (models.LogEntry, error)
	RecordNetworkFailure(url, method, errorText string) (models.LogEntry, error)
	RecordResponse(url string, status int, statusText string, latency time.Duration) (models.LogEntry, error)
}

type requestInfo struct {
	url    string
	method string
	sent   time.Time
}

// Page wraps one browser tab and its CDP event subscription.
type Page struct {
	logger *slog.Logger
	cfg    Config
	page   *rod.Page

	mu       sync.Mutex
	attached bool
	requests map[proto.NetworkRequestID]requestInfo

	fatalOnce sync.Once
	fatal     chan error

	sampler *responseSampler
}

func newPage(page *rod.Page, cfg Config, logger *slog.Logger) *Page {
	return &Page{
		logger:   logger,
		cfg:      cfg,
		page:     page,
		requests: make(map[proto.NetworkRequestID]requestInfo),
		fatal:    make(chan error, 1),
		sampler:  newResponseSampler(cfg.ResponseSampleInterval),
	}
}

// Attach subscribes the sink to console messages, uncaught exceptions,
// failed requests, and HTTP responses. A second call is an error: CDP
// listeners would double-fire otherwise.
func (p *Page) Attach(ctx context.Context, sink EventSink) error {
	p.mu.Lock()
	if p.attached {
		p.mu.Unlock()
		return fmt.Errorf("page already attached")
	}
	p.attached = true
	p.mu.Unlock()

	wait := p.page.Context(ctx).EachEvent(
		func(ev *proto.RuntimeConsoleAPICalled) {
			level := string(ev.Type)
			if level != "error" && level != "warning" && level != "assert" {
				return
			}
			text := stringifyConsoleArgs(ev.Args)
			_, err := sink.RecordConsole(level, text, topFrameURL(ev.StackTrace))
			p.raiseFatal(err)
		},
		func(ev *proto.RuntimeExceptionThrown) {
			message, stack, url := describeException(ev.ExceptionDetails)
			_, err := sink.RecordPageError(message, stack, url)
			p.raiseFatal(err)
		},
		func(ev *proto.NetworkRequestWillBeSent) {
			if ev.Request == nil {
				return
			}
			p.mu.Lock()
			p.requests[ev.RequestID] = requestInfo{
				url:    ev.Request.URL,
				method: ev.Request.Method,
				sent:   time.Now(),
			}
			p.mu.Unlock()
		},
		func(ev *proto.NetworkLoadingFailed) {
			if ev.Canceled {
				return
			}
			info := p.takeRequest(ev.RequestID)
			if info.url == "" {
				return
			}
			_, err := sink.RecordNetworkFailure(info.url, info.method, ev.ErrorText)
			p.raiseFatal(err)
		},
		func(ev *proto.NetworkResponseReceived) {
			if ev.Response == nil {
				return
			}
			info := p.takeRequest(ev.RequestID)
			var latency time.Duration
			if !info.sent.IsZero() {
				latency = time.Since(info.sent)
			}
			if ev.Response.Status < 400 && !p.sampler.Allow() {
				return
			}
			_, err := sink.RecordResponse(ev.Response.URL, ev.Response.Status, ev.Response.StatusText, latency)
			p.raiseFatal(err)
		},
	)
	go wait()

	p.logger.Debug("page event streams attached")
	return nil
}

// Fatal yields the first fatal signal raised by the sink, if any.
func (p *Page) Fatal() <-chan error { return p.fatal }

// Navigate loads the URL and waits for the load event, bounded by the
// configured navigation timeout.
func (p *Page) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	if p.cfg.NavigationTimeout > 0 {
		page = page.Timeout(p.cfg.NavigationTimeout)
	}
	if err := page.Navigate(url); err != nil {
		return utils.NewAppError("browser", fmt.Sprintf("navigate to %s", url), err)
	}
	if err := page.WaitLoad(); err != nil {
		return utils.NewAppError("browser", fmt.Sprintf("wait for %s load", url), err)
	}
	return nil
}

// Screenshot captures the viewport as PNG and writes it to path.
func (p *Page) Screenshot(path string) error {
	data, err := p.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return utils.NewAppError("browser", "capture screenshot", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return utils.NewAppError("browser", "create screenshot directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return utils.NewAppError("browser", "write screenshot", err)
	}
	return nil
}

// Close closes the tab.
func (p *Page) Close() {
	if err := p.page.Close(); err != nil {
		p.logger.Debug("page close failed", slog.Any("error", err))
	}
}

func (p *Page) raiseFatal(err error) {
	if err == nil {
		return
	}
	p.fatalOnce.Do(func() {
		p.fatal <- err
	})
}

func (p *Page) takeRequest(id proto.NetworkRequestID) requestInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	info := p.requests[id]
	delete(p.requests, id)
	return info
}

// responseSampler rate-limits latency sampling of healthy responses so a
// chatty page cannot flood the tracker.
type responseSampler struct {
	interval time.Duration
	mu       sync.Mutex
	last     time.Time
}

func newResponseSampler(interval time.Duration) *responseSampler {
	return &responseSampler{interval: interval}
}

func (s *responseSampler) Allow() bool {
	if s.interval <= 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if now.Sub(s.last) < s.interval {
		return false
	}
	s.last = now
	return true
}
