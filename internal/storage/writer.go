// Package storage persists session and correlation artifacts as JSON
// files under the configured log and report directories.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/clarityops/console-sentinel/internal/models"
	"github.com/clarityops/console-sentinel/internal/utils"
)

// Writer knows the on-disk layout of reports:
//
//	<logDir>/sessions/session_<id>.json
//	<logDir>/reports/error_report_<id>.json
//	<reportDir>/correlation_report_<sessionId>.json
//	<reportDir>/forensics/forensic_<correlationId>.json
type Writer struct {
	logDir    string
	reportDir string
	logger    *slog.Logger
}

// NewWriter constructs a Writer rooted at the given directories.
func NewWriter(logDir, reportDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if logDir == "" {
		logDir = "test-results/console-logs"
	}
	if reportDir == "" {
		reportDir = "test-results/correlation-reports"
	}
	return &Writer{logDir: logDir, reportDir: reportDir, logger: logger}
}

// WriteSessionSummary flushes the per-session summary artifact.
func (w *Writer) WriteSessionSummary(summary models.SessionSummary) (string, error) {
	path := filepath.Join(w.logDir, "sessions", fmt.Sprintf("session_%s.json", summary.SessionID))
	return path, w.writeJSON(path, summary)
}

// WriteErrorReport flushes the full error report artifact.
func (w *Writer) WriteErrorReport(report models.ErrorReport) (string, error) {
	path := filepath.Join(w.logDir, "reports", fmt.Sprintf("error_report_%s.json", report.SessionID))
	return path, w.writeJSON(path, report)
}

// WriteCorrelationReport flushes the session-level correlation report.
func (w *Writer) WriteCorrelationReport(report models.CorrelationReport) (string, error) {
	path := filepath.Join(w.reportDir, fmt.Sprintf("correlation_report_%s.json", report.SessionID))
	return path, w.writeJSON(path, report)
}

// WriteForensicReport flushes a per-correlation forensic report.
func (w *Writer) WriteForensicReport(report models.ForensicReport) (string, error) {
	path := filepath.Join(w.reportDir, "forensics", fmt.Sprintf("forensic_%s.json", report.CorrelationID))
	return path, w.writeJSON(path, report)
}

func (w *Writer) writeJSON(path string, payload any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return utils.NewAppError("storage", "create report directory", err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return utils.NewAppError("storage", "marshal report", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return utils.NewAppError("storage", "write report", err)
	}
	w.logger.Debug("report written", slog.String("path", path))
	return nil
}
