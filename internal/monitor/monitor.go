// Package monitor accumulates classified browser events into queryable
// session state. Classification itself lives in the classify package so
// it stays pure; the monitor owns the mutable session.
package monitor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clarityops/console-sentinel/internal/classify"
	"github.com/clarityops/console-sentinel/internal/metrics"
	"github.com/clarityops/console-sentinel/internal/models"
	"github.com/clarityops/console-sentinel/internal/utils"
)

// Config controls failure semantics and status derivation.
type Config struct {
	ZeroTolerance      bool
	FailureTriggers    []models.Severity
	MaxAllowedWarnings int
	CorrelationWindow  time.Duration
}

// DefaultConfig returns the monitoring defaults used by the CLI.
func DefaultConfig() Config {
	return Config{
		ZeroTolerance:      false,
		FailureTriggers:    []models.Severity{models.SeverityCritical},
		MaxAllowedWarnings: 5,
		CorrelationWindow:  5 * time.Second,
	}
}

// Monitor owns one monitoring session. Event producers (the browser
// adapter) and readers (the correlation system) may run on different
// goroutines, so all state is mutex-guarded.
type Monitor struct {
	logger     *slog.Logger
	classifier *classify.Classifier
	cfg        Config

	sessionID string
	startTime time.Time

	mu            sync.Mutex
	errors        []models.LogEntry
	warnings      []models.LogEntry
	networkErrors []models.LogEntry
	errorCounts   map[models.Severity]int
	categoryStats map[models.Category]int

	latencies *utils.LatencyTracker
}

// New constructs a Monitor with a freshly generated session id.
func New(logger *slog.Logger, classifier *classify.Classifier, cfg Config) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if classifier == nil {
		classifier = classify.NewClassifier()
	}
	if cfg.MaxAllowedWarnings <= 0 {
		cfg.MaxAllowedWarnings = DefaultConfig().MaxAllowedWarnings
	}
	if cfg.CorrelationWindow <= 0 {
		cfg.CorrelationWindow = DefaultConfig().CorrelationWindow
	}
	return &Monitor{
		logger:        logger,
		classifier:    classifier,
		cfg:           cfg,
		sessionID:     uuid.NewString(),
		startTime:     time.Now().UTC(),
		errorCounts:   make(map[models.Severity]int),
		categoryStats: make(map[models.Category]int),
		latencies:     utils.NewLatencyTracker(1024),
	}
}

// SessionID returns the generated session identifier.
func (m *Monitor) SessionID() string { return m.sessionID }

// StartTime returns when the session began.
func (m *Monitor) StartTime() time.Time { return m.startTime }

// CorrelationWindow exposes the configured correlation window.
func (m *Monitor) CorrelationWindow() time.Duration { return m.cfg.CorrelationWindow }

// FatalError is the zero-tolerance abort signal. It is returned as a
// value rather than thrown so the driving script decides whether to halt.
type FatalError struct {
	SessionID string
	Entry     models.LogEntry
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal %s/%s event in session %s: %s",
		e.Entry.Severity, e.Entry.Category, e.SessionID, e.Entry.Message)
}

// RecordConsole ingests a console message. Warning-level messages land in
// the warning log; everything else is classified into the error log. The
// returned error, if non-nil, is a *FatalError.
func (m *Monitor) RecordConsole(level, text, url string) (models.LogEntry, error) {
	if level == "warning" || level == "warn" {
		entry := m.newEntry(models.EventConsole, text, url, "console."+level)
		entry.Severity = models.SeverityLow
		m.mu.Lock()
		m.warnings = append(m.warnings, entry)
		m.mu.Unlock()
		metrics.ObserveEvent(string(entry.Severity), string(entry.Category))
		return entry, nil
	}

	entry := m.newEntry(models.EventConsole, text, url, "console."+level)
	return m.recordError(entry)
}

// RecordPageError ingests an uncaught page exception.
func (m *Monitor) RecordPageError(message, stack, url string) (models.LogEntry, error) {
	text := message
	if stack != "" {
		text = message + "\n" + stack
	}
	entry := m.newEntry(models.EventPageError, text, url, "pageerror")
	// Uncaught exceptions are critical regardless of message content.
	entry.Severity = models.SeverityCritical
	return m.recordError(entry)
}

// RecordNetworkFailure ingests a failed request (DNS, refused, aborted...).
func (m *Monitor) RecordNetworkFailure(url, method, errorText string) (models.LogEntry, error) {
	entry := m.newEntry(models.EventNetwork, fmt.Sprintf("%s %s failed: %s", method, url, errorText), url, "requestfailed")
	entry.Severity = classify.NetworkErrorSeverity(errorText)
	entry.Category = models.CategoryNetwork
	return m.recordNetwork(entry)
}

// RecordResponse ingests an HTTP response. Responses below 400 only feed
// the latency tracker; error statuses join the network error log.
func (m *Monitor) RecordResponse(url string, status int, statusText string, latency time.Duration) (models.LogEntry, error) {
	if latency > 0 {
		m.latencies.Observe(latency)
		metrics.ObserveResponseLatency(latency)
	}
	if status < 400 {
		return models.LogEntry{}, nil
	}

	entry := m.newEntry(models.EventResponse, fmt.Sprintf("HTTP %d %s for %s", status, statusText, url), url, "response")
	entry.Severity = classify.HTTPStatusSeverity(status)
	entry.Category = models.CategoryNetwork
	return m.recordNetwork(entry)
}

func (m *Monitor) newEntry(kind models.EventType, message, url, source string) models.LogEntry {
	return models.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      kind,
		Message:   message,
		URL:       url,
		Severity:  m.classifier.Severity(message),
		Category:  m.classifier.Category(message),
		Source:    source,
	}
}

func (m *Monitor) recordError(entry models.LogEntry) (models.LogEntry, error) {
	m.mu.Lock()
	m.errors = append(m.errors, entry)
	m.errorCounts[entry.Severity]++
	m.categoryStats[entry.Category]++
	m.mu.Unlock()

	metrics.ObserveEvent(string(entry.Severity), string(entry.Category))
	m.logger.Debug("console event recorded",
		slog.String("severity", string(entry.Severity)),
		slog.String("category", string(entry.Category)),
	)
	return entry, m.failureSignal(entry)
}

func (m *Monitor) recordNetwork(entry models.LogEntry) (models.LogEntry, error) {
	m.mu.Lock()
	m.networkErrors = append(m.networkErrors, entry)
	m.errorCounts[entry.Severity]++
	m.categoryStats[entry.Category]++
	m.mu.Unlock()

	metrics.ObserveEvent(string(entry.Severity), string(entry.Category))
	m.logger.Debug("network event recorded",
		slog.String("severity", string(entry.Severity)),
		slog.String("url", entry.URL),
	)
	return entry, m.failureSignal(entry)
}

// ShouldTriggerFailure reports whether an entry demands an immediate halt
// of the enclosing test run.
func (m *Monitor) ShouldTriggerFailure(entry models.LogEntry) bool {
	if m.cfg.ZeroTolerance && entry.Severity == models.SeverityCritical {
		return true
	}
	for _, trigger := range m.cfg.FailureTriggers {
		if entry.Severity == trigger {
			return true
		}
	}
	return false
}

func (m *Monitor) failureSignal(entry models.LogEntry) error {
	if !m.ShouldTriggerFailure(entry) {
		return nil
	}
	metrics.ObserveFatalSignal()
	return &FatalError{SessionID: m.sessionID, Entry: entry}
}

// Status returns a point-in-time read of the session. Calling it twice
// without intervening events yields identical output.
func (m *Monitor) Status() models.MonitoringStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	return models.MonitoringStatus{
		SessionID:     m.sessionID,
		StartTime:     m.startTime,
		ErrorCounts:   copySeverityCounts(m.errorCounts),
		CategoryStats: copyCategoryCounts(m.categoryStats),
		TotalErrors:   len(m.errors),
		TotalWarnings: len(m.warnings),
		TotalNetwork:  len(m.networkErrors),
		OverallStatus: m.overallStatusLocked(),
	}
}

func (m *Monitor) overallStatusLocked() models.OverallStatus {
	switch {
	case m.errorCounts[models.SeverityCritical] > 0:
		return models.StatusCriticalErrors
	case m.errorCounts[models.SeverityHigh] > 0:
		return models.StatusHighSeverity
	case m.errorCounts[models.SeverityMedium] > 0:
		return models.StatusMediumSeverity
	case len(m.warnings) > m.cfg.MaxAllowedWarnings:
		return models.StatusTooManyWarnings
	case len(m.warnings) > 0:
		return models.StatusWarnings
	default:
		return models.StatusClean
	}
}

// Snapshot returns the bounded console-state view used by correlations:
// the last 10 errors, last 10 warnings, last 5 network errors, plus the
// full running counters.
func (m *Monitor) Snapshot() models.ConsoleState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return models.ConsoleState{
		RecentErrors:        tail(m.errors, 10),
		RecentWarnings:      tail(m.warnings, 10),
		RecentNetworkErrors: tail(m.networkErrors, 5),
		ErrorCounts:         copySeverityCounts(m.errorCounts),
		CategoryStats:       copyCategoryCounts(m.categoryStats),
		TotalErrors:         len(m.errors),
		TotalWarnings:       len(m.warnings),
		TotalNetworkErrors:  len(m.networkErrors),
	}
}

// PerformanceSnapshot derives page performance from observed response
// latencies. Memory and frame rate have no collection source here and
// stay zero (unknown).
func (m *Monitor) PerformanceSnapshot() models.PerformanceState {
	return models.PerformanceState{
		ResponseTimeMS:  float64(m.latencies.Percentile(95)) / float64(time.Millisecond),
		ResponseSamples: m.latencies.Count(),
	}
}

func tail(entries []models.LogEntry, n int) []models.LogEntry {
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return append([]models.LogEntry(nil), entries...)
}

func copySeverityCounts(counts map[models.Severity]int) map[models.Severity]int {
	out := make(map[models.Severity]int, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}

func copyCategoryCounts(counts map[models.Category]int) map[models.Category]int {
	out := make(map[models.Category]int, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}
