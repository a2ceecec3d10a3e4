// Package correlate binds captured UI evidence to the console and
// performance state observed at that instant, and aggregates the bound
// records into deployment-readiness verdicts and forensic reports.
package correlate

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clarityops/console-sentinel/internal/models"
)

// MonitorSource is the read-only view of the monitor the system consumes.
type MonitorSource interface {
	SessionID() string
	Snapshot() models.ConsoleState
	PerformanceSnapshot() models.PerformanceState
}

// System owns the correlation map for one session. Correlations are
// write-once and retained for the process lifetime.
type System struct {
	logger *slog.Logger
	source MonitorSource
	window time.Duration

	mu           sync.Mutex
	order        []string
	correlations map[string]models.Correlation
}

// New constructs a System reading from the given monitor.
func New(logger *slog.Logger, source MonitorSource, window time.Duration) *System {
	if logger == nil {
		logger = slog.Default()
	}
	if window <= 0 {
		window = 5 * time.Second
	}
	return &System{
		logger:       logger,
		source:       source,
		window:       window,
		correlations: make(map[string]models.Correlation),
	}
}

// Correlate snapshots the monitor, scores the combined state, and stores
// the resulting write-once correlation record.
func (s *System) Correlate(evidence models.Evidence, userAction string) (models.Correlation, error) {
	if s.source == nil {
		return models.Correlation{}, fmt.Errorf("monitor source not configured")
	}

	console := s.source.Snapshot()
	perf := s.source.PerformanceSnapshot()
	perfScore := performanceScore(perf)
	score := riskScore(console.ErrorCounts, perfScore)
	level := riskLevel(score)
	anomalies := detectAnomalies(console, perfScore)

	corr := models.Correlation{
		ID:               uuid.NewString(),
		Timestamp:        time.Now().UTC(),
		SessionID:        s.source.SessionID(),
		Evidence:         evidence,
		UserAction:       userAction,
		ConsoleState:     console,
		PerformanceState: perf,
		Metrics: models.CorrelationMetrics{
			ErrorCount:        console.TotalErrors,
			WarningCount:      console.TotalWarnings,
			NetworkErrorCount: console.TotalNetworkErrors,
			CriticalCount:     console.ErrorCounts[models.SeverityCritical],
			HighCount:         console.ErrorCounts[models.SeverityHigh],
			PerformanceScore:  perfScore,
		},
		Analysis: models.Analysis{
			RiskLevel:       level,
			RiskScore:       score,
			Anomalies:       anomalies,
			Recommendations: recommend(console, perfScore),
			Risk: models.RiskAssessment{
				Level:   level,
				Score:   score,
				Drivers: riskDrivers(console.ErrorCounts, perfScore),
			},
		},
	}

	s.mu.Lock()
	corr.Analysis.Temporal = s.temporalAnalysisLocked(corr)
	corr.Analysis.Consistency = consistencyAnalysis(corr)
	s.correlations[corr.ID] = corr
	s.order = append(s.order, corr.ID)
	s.mu.Unlock()

	s.logger.Info("evidence correlated",
		slog.String("correlationId", corr.ID),
		slog.String("evidenceId", evidence.ID),
		slog.String("riskLevel", string(level)),
		slog.Int("riskScore", score),
	)
	return corr, nil
}

// Correlations returns all stored correlations in creation order.
func (s *System) Correlations() []models.Correlation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Correlation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.correlations[id])
	}
	return out
}

// temporalAnalysisLocked relates the new correlation to stored ones within
// the correlation window and derives a coarse trend.
func (s *System) temporalAnalysisLocked(corr models.Correlation) models.TemporalAnalysis {
	analysis := models.TemporalAnalysis{Window: s.window, Trend: "STEADY"}

	var previous *models.Correlation
	for _, id := range s.order {
		stored := s.correlations[id]
		offset := corr.Timestamp.Sub(stored.Timestamp)
		if offset < 0 {
			offset = -offset
		}
		if offset <= s.window {
			analysis.RelatedIDs = append(analysis.RelatedIDs, stored.ID)
		}
		prev := stored
		previous = &prev
	}

	if previous != nil {
		analysis.NewErrors = corr.ConsoleState.TotalErrors - previous.ConsoleState.TotalErrors
		if analysis.NewErrors < 0 {
			analysis.NewErrors = 0
		}
		switch {
		case corr.Analysis.RiskScore > previous.Analysis.RiskScore:
			analysis.Trend = "DEGRADING"
		case corr.Analysis.RiskScore < previous.Analysis.RiskScore:
			analysis.Trend = "IMPROVING"
		}
	}
	return analysis
}

// consistencyAnalysis checks that the evidence phase agrees with the
// console state it was captured alongside.
func consistencyAnalysis(corr models.Correlation) models.ConsistencyAnalysis {
	analysis := models.ConsistencyAnalysis{Consistent: true}

	if corr.Evidence.Screenshot == "" {
		analysis.Consistent = false
		analysis.Notes = append(analysis.Notes, "evidence has no screenshot artifact")
	}
	if corr.Metrics.CriticalCount > 0 && corr.Evidence.Phase == "success" {
		analysis.Consistent = false
		analysis.Notes = append(analysis.Notes,
			"success-phase evidence captured while critical console errors were present")
	}
	if len(corr.Analysis.Anomalies) > 0 && corr.Analysis.RiskLevel == models.RiskMinimal {
		analysis.Consistent = false
		analysis.Notes = append(analysis.Notes, "anomalies detected despite minimal risk score")
	}
	return analysis
}

func sortByTimestamp(correlations []models.Correlation) {
	sort.SliceStable(correlations, func(i, j int) bool {
		return correlations[i].Timestamp.Before(correlations[j].Timestamp)
	})
}
