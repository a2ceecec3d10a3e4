package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/clarityops/console-sentinel/internal/models"
)

func newTestMonitor(cfg Config) *Monitor {
	return New(nil, nil, cfg)
}

func TestPageErrorsAreAlwaysCritical(t *testing.T) {
	// Uncaught exceptions bypass the pattern table: even a message no
	// severity rule matches must come out CRITICAL, while the category
	// still derives from keywords.
	m := newTestMonitor(Config{FailureTriggers: []models.Severity{}})

	entry, err := m.RecordPageError("something quietly odd happened", "at render (app.js:1)", "http://localhost:3000")
	if err != nil {
		t.Fatalf("RecordPageError: %v", err)
	}
	if entry.Severity != models.SeverityCritical {
		t.Fatalf("severity = %s, want CRITICAL", entry.Severity)
	}
	if m.Status().OverallStatus != models.StatusCriticalErrors {
		t.Fatalf("status = %s, want CRITICAL_ERRORS_DETECTED", m.Status().OverallStatus)
	}

	entry, err = m.RecordPageError("Uncaught TypeError: x is not a function", "", "http://localhost:3000")
	if err != nil {
		t.Fatalf("RecordPageError: %v", err)
	}
	if entry.Category != models.CategoryJavaScript {
		t.Fatalf("category = %s, want JAVASCRIPT", entry.Category)
	}
}

func TestSeverityCountersTrackInsertions(t *testing.T) {
	m := newTestMonitor(Config{})

	messages := map[string]models.Severity{
		"Uncaught Error: boom":       models.SeverityCritical,
		"TypeError: Failed to fetch": models.SeverityHigh,
		"componentX is deprecated":   models.SeverityMedium,
		"just noise":                 models.SeverityLow,
	}

	const n = 3
	for msg := range messages {
		for i := 0; i < n; i++ {
			m.RecordConsole("error", msg, "http://localhost:3000")
		}
	}

	status := m.Status()
	for msg, severity := range messages {
		if status.ErrorCounts[severity] != n {
			t.Errorf("errorCounts[%s] = %d, want %d (message %q)", severity, status.ErrorCounts[severity], n, msg)
		}
	}
	if status.TotalErrors != n*len(messages) {
		t.Errorf("TotalErrors = %d, want %d", status.TotalErrors, n*len(messages))
	}
}

func TestOverallStatusPriority(t *testing.T) {
	m := newTestMonitor(Config{MaxAllowedWarnings: 5})

	if got := m.Status().OverallStatus; got != models.StatusClean {
		t.Fatalf("empty session status = %s, want CLEAN", got)
	}

	for i := 0; i < 6; i++ {
		m.RecordConsole("warning", fmt.Sprintf("warning %d", i), "")
	}
	if got := m.Status().OverallStatus; got != models.StatusTooManyWarnings {
		t.Fatalf("6 warnings with max 5 = %s, want TOO_MANY_WARNINGS", got)
	}

	m.RecordConsole("error", "widget is deprecated", "")
	if got := m.Status().OverallStatus; got != models.StatusMediumSeverity {
		t.Fatalf("status = %s, want MEDIUM_SEVERITY_ERRORS", got)
	}

	m.RecordConsole("error", "Failed to fetch /api/data", "")
	if got := m.Status().OverallStatus; got != models.StatusHighSeverity {
		t.Fatalf("status = %s, want HIGH_SEVERITY_ERRORS", got)
	}

	// One critical entry must override every prior condition.
	m.RecordConsole("error", "Uncaught Error: boom", "")
	if got := m.Status().OverallStatus; got != models.StatusCriticalErrors {
		t.Fatalf("status = %s, want CRITICAL_ERRORS_DETECTED", got)
	}
}

func TestStatusIdempotent(t *testing.T) {
	m := newTestMonitor(Config{})
	m.RecordConsole("error", "Uncaught Error: once", "")
	m.RecordConsole("warning", "careful", "")

	first := m.Status()
	second := m.Status()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Status not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestZeroToleranceFatalSignal(t *testing.T) {
	m := newTestMonitor(Config{ZeroTolerance: true})

	if _, err := m.RecordConsole("error", "merely deprecated API", ""); err != nil {
		t.Fatalf("medium entry must not signal failure, got %v", err)
	}

	_, err := m.RecordConsole("error", "Uncaught Error: boom", "")
	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("expected *FatalError, got %v", err)
	}
	if fatal.Entry.Severity != models.SeverityCritical {
		t.Fatalf("fatal entry severity = %s, want CRITICAL", fatal.Entry.Severity)
	}
	if fatal.SessionID != m.SessionID() {
		t.Fatalf("fatal session id mismatch")
	}
}

func TestFailureTriggers(t *testing.T) {
	m := newTestMonitor(Config{FailureTriggers: []models.Severity{models.SeverityHigh}})

	if _, err := m.RecordConsole("error", "Uncaught Error: boom", ""); err != nil {
		t.Fatalf("critical without zero tolerance or trigger must pass, got %v", err)
	}
	if _, err := m.RecordConsole("error", "Failed to fetch /x", ""); err == nil {
		t.Fatal("high entry with HIGH trigger must signal failure")
	}
}

func TestSnapshotBounds(t *testing.T) {
	m := newTestMonitor(Config{})

	for i := 0; i < 15; i++ {
		m.RecordConsole("error", fmt.Sprintf("plain message %02d", i), "")
		m.RecordConsole("warning", fmt.Sprintf("warning %02d", i), "")
	}
	for i := 0; i < 8; i++ {
		m.RecordNetworkFailure(fmt.Sprintf("http://x/%d", i), "GET", "net::ERR_ABORTED")
	}

	snap := m.Snapshot()
	if len(snap.RecentErrors) != 10 {
		t.Errorf("RecentErrors = %d entries, want 10", len(snap.RecentErrors))
	}
	if len(snap.RecentWarnings) != 10 {
		t.Errorf("RecentWarnings = %d entries, want 10", len(snap.RecentWarnings))
	}
	if len(snap.RecentNetworkErrors) != 5 {
		t.Errorf("RecentNetworkErrors = %d entries, want 5", len(snap.RecentNetworkErrors))
	}
	if snap.TotalErrors != 15 || snap.TotalWarnings != 15 || snap.TotalNetworkErrors != 8 {
		t.Errorf("totals = %d/%d/%d, want 15/15/8", snap.TotalErrors, snap.TotalWarnings, snap.TotalNetworkErrors)
	}

	// Bounded slices keep arrival order, ending with the newest entry.
	last := snap.RecentErrors[len(snap.RecentErrors)-1]
	if last.Message != "plain message 14" {
		t.Errorf("newest error = %q, want plain message 14", last.Message)
	}
}

func TestNetworkAndResponseClassification(t *testing.T) {
	m := newTestMonitor(Config{})

	entry, _ := m.RecordNetworkFailure("http://api/x", "GET", "net::ERR_NAME_NOT_RESOLVED")
	if entry.Severity != models.SeverityCritical {
		t.Errorf("DNS failure severity = %s, want CRITICAL", entry.Severity)
	}

	entry, _ = m.RecordResponse("http://api/missing", 404, "Not Found", 120*time.Millisecond)
	if entry.Severity != models.SeverityHigh {
		t.Errorf("404 severity = %s, want HIGH", entry.Severity)
	}

	// OK responses feed latency only and leave the logs untouched.
	before := m.Status().TotalNetwork
	m.RecordResponse("http://api/ok", 200, "OK", 80*time.Millisecond)
	if after := m.Status().TotalNetwork; after != before {
		t.Errorf("200 response must not enter the network log (%d -> %d)", before, after)
	}

	perf := m.PerformanceSnapshot()
	if perf.ResponseSamples != 2 {
		t.Errorf("ResponseSamples = %d, want 2", perf.ResponseSamples)
	}
	if perf.ResponseTimeMS <= 0 {
		t.Errorf("ResponseTimeMS = %v, want > 0", perf.ResponseTimeMS)
	}
	if perf.MemoryUsagePercent != 0 || perf.FrameRate != 0 {
		t.Errorf("unobserved dimensions must stay zero, got %+v", perf)
	}
}

func TestReportRoundTripPreservesCounts(t *testing.T) {
	m := newTestMonitor(Config{})
	m.RecordConsole("error", "Uncaught Error: broken widget", "")
	m.RecordConsole("error", "Uncaught Error: broken widget", "")
	m.RecordConsole("error", "Failed to fetch /api/data", "")
	m.RecordConsole("warning", "minor thing", "")
	m.RecordNetworkFailure("http://x", "POST", "net::ERR_TIMED_OUT")

	report := m.Report()
	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}

	var parsed models.ErrorReport
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}

	live := m.Status()
	if !reflect.DeepEqual(parsed.ErrorCounts, live.ErrorCounts) {
		t.Errorf("severity counts lost in serialization:\nparsed %v\nlive   %v", parsed.ErrorCounts, live.ErrorCounts)
	}
	if !reflect.DeepEqual(parsed.CategoryStats, live.CategoryStats) {
		t.Errorf("category stats lost in serialization:\nparsed %v\nlive   %v", parsed.CategoryStats, live.CategoryStats)
	}
	if len(parsed.Errors) != live.TotalErrors || len(parsed.NetworkErrors) != live.TotalNetwork {
		t.Errorf("entry lists truncated: %d/%d errors, %d/%d network",
			len(parsed.Errors), live.TotalErrors, len(parsed.NetworkErrors), live.TotalNetwork)
	}
}

func TestReportPatternMining(t *testing.T) {
	m := newTestMonitor(Config{})
	for i := 0; i < 3; i++ {
		m.RecordConsole("error", "Uncaught Error: widget state corrupt", "")
	}
	m.RecordConsole("error", "one-off oddity", "")

	report := m.Report()
	if report.Patterns.MostCommonCategory != models.CategoryJavaScript {
		t.Errorf("MostCommonCategory = %s, want JAVASCRIPT", report.Patterns.MostCommonCategory)
	}
	if len(report.Patterns.RepeatedMessages) != 1 {
		t.Fatalf("RepeatedMessages = %d groups, want 1", len(report.Patterns.RepeatedMessages))
	}
	repeated := report.Patterns.RepeatedMessages[0]
	if repeated.Count != 3 || repeated.Severity != models.SeverityCritical {
		t.Errorf("repeated group = %+v, want count 3 severity CRITICAL", repeated)
	}
}
