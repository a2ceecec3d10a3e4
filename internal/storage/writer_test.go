package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/clarityops/console-sentinel/internal/models"
)

func TestWriteErrorReportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(filepath.Join(dir, "logs"), filepath.Join(dir, "reports"), nil)

	report := models.ErrorReport{
		SessionID:   "sess-io",
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		StartTime:   time.Now().UTC().Add(-time.Minute).Truncate(time.Second),
		ErrorCounts: map[models.Severity]int{
			models.SeverityCritical: 2,
			models.SeverityLow:      1,
		},
		CategoryStats: map[models.Category]int{
			models.CategoryJavaScript: 2,
			models.CategoryGeneral:    1,
		},
		Errors: []models.LogEntry{
			{ID: "a", Message: "Uncaught Error: x", Severity: models.SeverityCritical, Category: models.CategoryJavaScript},
		},
		OverallStatus: models.StatusCriticalErrors,
	}

	path, err := w.WriteErrorReport(report)
	if err != nil {
		t.Fatalf("WriteErrorReport: %v", err)
	}
	if filepath.Base(path) != "error_report_sess-io.json" {
		t.Fatalf("unexpected artifact name: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	var parsed models.ErrorReport
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("parse artifact: %v", err)
	}

	if !reflect.DeepEqual(parsed.ErrorCounts, report.ErrorCounts) {
		t.Errorf("severity counts lost: %v != %v", parsed.ErrorCounts, report.ErrorCounts)
	}
	if !reflect.DeepEqual(parsed.CategoryStats, report.CategoryStats) {
		t.Errorf("category stats lost: %v != %v", parsed.CategoryStats, report.CategoryStats)
	}
	if parsed.OverallStatus != models.StatusCriticalErrors {
		t.Errorf("overall status lost: %s", parsed.OverallStatus)
	}
}

func TestWriterLayout(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(filepath.Join(dir, "logs"), filepath.Join(dir, "corr"), nil)

	if path, err := w.WriteSessionSummary(models.SessionSummary{SessionID: "s1"}); err != nil {
		t.Fatal(err)
	} else if want := filepath.Join(dir, "logs", "sessions", "session_s1.json"); path != want {
		t.Errorf("summary path = %s, want %s", path, want)
	}

	if path, err := w.WriteCorrelationReport(models.CorrelationReport{SessionID: "s1"}); err != nil {
		t.Fatal(err)
	} else if want := filepath.Join(dir, "corr", "correlation_report_s1.json"); path != want {
		t.Errorf("correlation path = %s, want %s", path, want)
	}

	if path, err := w.WriteForensicReport(models.ForensicReport{CorrelationID: "c1"}); err != nil {
		t.Fatal(err)
	} else if want := filepath.Join(dir, "corr", "forensics", "forensic_c1.json"); path != want {
		t.Errorf("forensic path = %s, want %s", path, want)
	}
}
