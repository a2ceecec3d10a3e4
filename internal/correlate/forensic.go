package correlate

import (
	"fmt"
	"time"

	"github.com/clarityops/console-sentinel/internal/models"
	"github.com/clarityops/console-sentinel/internal/utils"
)

// ForensicAnalysis reconstructs the context around one stored correlation:
// a chronological chain of time-adjacent correlations, a shallow root-cause
// pass, and a three-dimension impact assessment. Unknown ids are an error.
func (s *System) ForensicAnalysis(correlationID string) (models.ForensicReport, error) {
	s.mu.Lock()
	subject, ok := s.correlations[correlationID]
	neighbours := make([]models.Correlation, 0, len(s.order))
	if ok {
		for _, id := range s.order {
			neighbours = append(neighbours, s.correlations[id])
		}
	}
	s.mu.Unlock()

	if !ok {
		return models.ForensicReport{}, utils.NewAppError("forensic",
			fmt.Sprintf("correlation %s not found", correlationID), nil)
	}

	report := models.ForensicReport{
		CorrelationID: subject.ID,
		SessionID:     subject.SessionID,
		GeneratedAt:   time.Now().UTC(),
		EvidenceChain: buildEvidenceChain(subject, neighbours, 2*s.window),
		RootCauses:    findRootCauses(subject),
		Impact:        assessImpact(subject),
	}
	return report, nil
}

// buildEvidenceChain collects correlations within the reach duration of
// the subject, ordered chronologically.
func buildEvidenceChain(subject models.Correlation, all []models.Correlation, reach time.Duration) []models.ChainLink {
	related := make([]models.Correlation, 0, len(all))
	for _, corr := range all {
		offset := corr.Timestamp.Sub(subject.Timestamp)
		if offset < 0 {
			offset = -offset
		}
		if offset <= reach {
			related = append(related, corr)
		}
	}
	sortByTimestamp(related)

	chain := make([]models.ChainLink, 0, len(related))
	for _, corr := range related {
		chain = append(chain, models.ChainLink{
			CorrelationID: corr.ID,
			EvidenceID:    corr.Evidence.ID,
			Timestamp:     corr.Timestamp,
			Offset:        corr.Timestamp.Sub(subject.Timestamp),
			RiskLevel:     corr.Analysis.RiskLevel,
		})
	}
	return chain
}

// findRootCauses classifies critical console errors as primary causes and
// performance degradation as a contributing factor.
func findRootCauses(corr models.Correlation) []models.CauseFinding {
	causes := make([]models.CauseFinding, 0)
	for i := range corr.ConsoleState.RecentErrors {
		entry := corr.ConsoleState.RecentErrors[i]
		if entry.Severity != models.SeverityCritical {
			continue
		}
		causes = append(causes, models.CauseFinding{
			Kind:        models.CausePrimary,
			Description: entry.Message,
			Category:    entry.Category,
			Entry:       &entry,
		})
	}
	if corr.Metrics.PerformanceScore < 70 {
		causes = append(causes, models.CauseFinding{
			Kind:        models.CauseContributing,
			Description: fmt.Sprintf("performance degradation (score %d)", corr.Metrics.PerformanceScore),
			Category:    models.CategoryPerformance,
		})
	}
	return causes
}

// assessImpact scores user experience, system stability, and business
// impact via independent rule sets keyed on counts and categories.
func assessImpact(corr models.Correlation) models.ImpactAssessment {
	impact := models.ImpactAssessment{
		UserExperience:  "NOMINAL",
		SystemStability: "STABLE",
		BusinessImpact:  "LOW",
	}

	switch {
	case corr.Metrics.CriticalCount > 0:
		impact.UserExperience = "SEVERE"
		impact.Notes = append(impact.Notes, "users encounter uncaught errors")
	case corr.Metrics.HighCount > 0 || len(corr.Analysis.Anomalies) > 0:
		impact.UserExperience = "DEGRADED"
	}

	switch {
	case corr.Metrics.CriticalCount > 0 || corr.Metrics.NetworkErrorCount > 3:
		impact.SystemStability = "UNSTABLE"
		impact.Notes = append(impact.Notes, "error rate indicates instability under load")
	case corr.ConsoleState.ErrorCounts[models.SeverityMedium] > 0:
		impact.SystemStability = "WATCH"
	}

	switch {
	case corr.ConsoleState.CategoryStats[models.CategoryAuthentication] > 0,
		corr.ConsoleState.CategoryStats[models.CategoryData] > 0:
		impact.BusinessImpact = "HIGH"
		impact.Notes = append(impact.Notes, "authentication or data-integrity paths affected")
	case corr.Metrics.NetworkErrorCount > 0:
		impact.BusinessImpact = "MEDIUM"
	}

	return impact
}
