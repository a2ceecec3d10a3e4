// Package runner drives a monitoring session: it walks the configured
// targets, captures evidence after each navigation, and flushes the
// session artifacts when the run ends or a fatal signal fires.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clarityops/console-sentinel/internal/cache"
	"github.com/clarityops/console-sentinel/internal/correlate"
	"github.com/clarityops/console-sentinel/internal/metrics"
	"github.com/clarityops/console-sentinel/internal/models"
	"github.com/clarityops/console-sentinel/internal/monitor"
	"github.com/clarityops/console-sentinel/internal/storage"
)

// PageDriver is the slice of the browser page the runner needs. The
// page is expected to be attached to the monitor before Run is called.
type PageDriver interface {
	Navigate(ctx context.Context, url string) error
	Screenshot(path string) error
	Fatal() <-chan error
}

// Target is one page visit in the session plan.
type Target struct {
	Name        string
	URL         string
	UserAction  string
	SettleDelay time.Duration
	Screenshot  bool
}

// Result summarises a completed run for the caller to turn into an
// exit code and final log line.
type Result struct {
	Status    models.MonitoringStatus
	Readiness models.Readiness
	Fatal     error
	Artifacts []string
}

// Runner executes the session plan against an attached page.
type Runner struct {
	logger        *slog.Logger
	page          PageDriver
	mon           *monitor.Monitor
	system        *correlate.System
	writer        *storage.Writer
	publisher     *cache.StatusPublisher
	targets       []Target
	screenshotDir string
}

// New wires a Runner. The publisher may be nil when live status
// publishing is disabled.
func New(
	logger *slog.Logger,
	page PageDriver,
	mon *monitor.Monitor,
	system *correlate.System,
	writer *storage.Writer,
	publisher *cache.StatusPublisher,
	targets []Target,
	screenshotDir string,
) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger:        logger,
		page:          page,
		mon:           mon,
		system:        system,
		writer:        writer,
		publisher:     publisher,
		targets:       targets,
		screenshotDir: screenshotDir,
	}
}

// Run visits every target in order, correlating captured evidence after
// each visit. A fatal signal from the page stops the walk early; the
// session artifacts are flushed either way. The returned error reports
// infrastructure problems only; monitoring verdicts live in Result.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var result Result
	var runErr error

	for _, target := range r.targets {
		if fatal := r.checkFatal(); fatal != nil {
			result.Fatal = fatal
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		fatal := r.visit(ctx, target)

		status := r.mon.Status()
		if r.publisher != nil {
			r.publisher.Publish(ctx, status)
		}
		r.logger.Info("target visited",
			slog.String("target", target.Name),
			slog.String("status", string(status.OverallStatus)),
		)

		if fatal != nil {
			result.Fatal = fatal
			break
		}
	}

	if result.Fatal == nil {
		result.Fatal = r.checkFatal()
	}

	artifacts, flushErr := r.finalize()
	result.Artifacts = artifacts
	result.Status = r.mon.Status()
	result.Readiness = r.system.SessionReadiness()
	return result, errors.Join(runErr, flushErr)
}

// visit navigates one target and correlates the resulting state. The
// returned error is a fatal signal from the monitor; evidence for the
// failed visit is still captured before it propagates.
func (r *Runner) visit(ctx context.Context, target Target) error {
	var fatal error
	if err := r.page.Navigate(ctx, target.URL); err != nil {
		// A failed navigation is evidence too.
		r.logger.Warn("navigation failed",
			slog.String("target", target.Name), slog.Any("error", err))
		if _, recErr := r.mon.RecordNetworkFailure(target.URL, "GET", err.Error()); recErr != nil {
			fatal = recErr
		}
	}

	r.settle(ctx, target.SettleDelay)

	evidence := models.Evidence{
		ID:    uuid.NewString(),
		Type:  "page_visit",
		Phase: "post_navigation",
		Metadata: map[string]string{
			"target": target.Name,
			"url":    target.URL,
		},
	}
	if target.Screenshot {
		if path, err := r.capture(target); err != nil {
			r.logger.Warn("screenshot failed",
				slog.String("target", target.Name), slog.Any("error", err))
		} else {
			evidence.Screenshot = path
		}
	}

	corr, err := r.system.Correlate(evidence, target.UserAction)
	if err != nil {
		r.logger.Warn("correlation failed",
			slog.String("target", target.Name), slog.Any("error", err))
		return fatal
	}
	metrics.ObserveCorrelation(string(corr.Analysis.RiskLevel))
	return fatal
}

// settle waits for the page to quiesce after navigation so late errors
// (hydration, deferred fetches) land before evidence is captured.
func (r *Runner) settle(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (r *Runner) capture(target Target) (string, error) {
	name := fmt.Sprintf("%s_%s.png", slugify(target.Name), time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(r.screenshotDir, name)
	if err := r.page.Screenshot(path); err != nil {
		return "", err
	}
	return path, nil
}

func (r *Runner) checkFatal() error {
	select {
	case err := <-r.page.Fatal():
		return err
	default:
		return nil
	}
}

// finalize writes every session artifact. Individual write failures are
// collected rather than aborting, so one bad path never loses the rest.
func (r *Runner) finalize() ([]string, error) {
	var artifacts []string
	var errs []error

	record := func(kind, path string, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		artifacts = append(artifacts, path)
		metrics.ObserveReportWritten(kind)
	}

	path, err := r.writer.WriteErrorReport(r.mon.Report())
	record("error_report", path, err)

	path, err = r.writer.WriteSessionSummary(r.mon.Summary())
	record("session_summary", path, err)

	corrReport := r.system.Report()
	path, err = r.writer.WriteCorrelationReport(corrReport)
	record("correlation_report", path, err)

	for _, corr := range r.system.Correlations() {
		if corr.Analysis.RiskLevel != models.RiskCritical && corr.Analysis.RiskLevel != models.RiskHigh {
			continue
		}
		forensic, ferr := r.system.ForensicAnalysis(corr.ID)
		if ferr != nil {
			errs = append(errs, ferr)
			continue
		}
		path, err = r.writer.WriteForensicReport(forensic)
		record("forensic_report", path, err)
	}

	return artifacts, errors.Join(errs...)
}

func slugify(name string) string {
	if name == "" {
		return "target"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
