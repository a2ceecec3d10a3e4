package monitor

import (
	"sort"
	"time"

	"github.com/clarityops/console-sentinel/internal/models"
)

const prefixLen = 60

// Report serialises the full session state plus best-effort pattern
// analysis into an ErrorReport suitable for writing to disk.
func (m *Monitor) Report() models.ErrorReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	return models.ErrorReport{
		SessionID:     m.sessionID,
		GeneratedAt:   now,
		StartTime:     m.startTime,
		Duration:      now.Sub(m.startTime),
		ErrorCounts:   copySeverityCounts(m.errorCounts),
		CategoryStats: copyCategoryCounts(m.categoryStats),
		Errors:        append([]models.LogEntry(nil), m.errors...),
		Warnings:      append([]models.LogEntry(nil), m.warnings...),
		NetworkErrors: append([]models.LogEntry(nil), m.networkErrors...),
		Patterns:      m.minePatternsLocked(),
		OverallStatus: m.overallStatusLocked(),
	}
}

// Summary produces the lightweight per-session artifact written at cleanup.
func (m *Monitor) Summary() models.SessionSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	return models.SessionSummary{
		SessionID:     m.sessionID,
		StartTime:     m.startTime,
		EndTime:       time.Now().UTC(),
		ErrorCounts:   copySeverityCounts(m.errorCounts),
		CategoryStats: copyCategoryCounts(m.categoryStats),
		TotalErrors:   len(m.errors),
		TotalWarnings: len(m.warnings),
		TotalNetwork:  len(m.networkErrors),
		OverallStatus: m.overallStatusLocked(),
	}
}

type prefixAggregate struct {
	count    int
	severity models.Severity
}

// minePatternsLocked aggregates frequency-based patterns: the dominant
// category and message prefixes seen more than once.
func (m *Monitor) minePatternsLocked() models.PatternAnalysis {
	analysis := models.PatternAnalysis{MostCommonCategory: models.CategoryGeneral}

	best := 0
	for category, count := range m.categoryStats {
		if count > best || (count == best && category < analysis.MostCommonCategory) {
			best = count
			analysis.MostCommonCategory = category
		}
	}

	prefixes := make(map[string]*prefixAggregate)
	for _, entry := range m.errors {
		prefix := messagePrefix(entry.Message)
		agg, ok := prefixes[prefix]
		if !ok {
			agg = &prefixAggregate{severity: entry.Severity}
			prefixes[prefix] = agg
		}
		agg.count++
		if entry.Severity.Rank() < agg.severity.Rank() {
			agg.severity = entry.Severity
		}
	}

	for prefix, agg := range prefixes {
		if agg.count < 2 {
			continue
		}
		analysis.RepeatedMessages = append(analysis.RepeatedMessages, models.RepeatedMessage{
			Prefix:   prefix,
			Count:    agg.count,
			Severity: agg.severity,
		})
	}
	sort.Slice(analysis.RepeatedMessages, func(i, j int) bool {
		if analysis.RepeatedMessages[i].Count != analysis.RepeatedMessages[j].Count {
			return analysis.RepeatedMessages[i].Count > analysis.RepeatedMessages[j].Count
		}
		return analysis.RepeatedMessages[i].Prefix < analysis.RepeatedMessages[j].Prefix
	})

	return analysis
}

func messagePrefix(message string) string {
	runes := []rune(message)
	if len(runes) > prefixLen {
		return string(runes[:prefixLen])
	}
	return message
}
