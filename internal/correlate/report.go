package correlate

import (
	"time"

	"github.com/clarityops/console-sentinel/internal/models"
)

// Report aggregates all stored correlations: a risk-level histogram, an
// evidence-type breakdown, the worst-case deployment verdict, and a
// deduplicated, priority-ordered recommendation list.
func (s *System) Report() models.CorrelationReport {
	correlations := s.Correlations()

	summary := models.ReportSummary{
		TotalCorrelations:   len(correlations),
		RiskDistribution:    make(map[models.RiskLevel]int),
		EvidenceTypes:       make(map[string]int),
		DeploymentReadiness: models.ReadinessReady,
	}

	recommendations := make([]string, 0)
	for _, corr := range correlations {
		summary.RiskDistribution[corr.Analysis.RiskLevel]++
		summary.EvidenceTypes[corr.Evidence.Type]++
		summary.DeploymentReadiness = worseReadiness(summary.DeploymentReadiness, assessReadiness(corr).Status)
		recommendations = appendUnique(recommendations, corr.Analysis.Recommendations...)
	}

	recommendations = dropNoAction(recommendations)

	sessionID := ""
	if s.source != nil {
		sessionID = s.source.SessionID()
	}

	return models.CorrelationReport{
		SessionID:       sessionID,
		GeneratedAt:     time.Now().UTC(),
		Summary:         summary,
		Recommendations: recommendations,
		Correlations:    correlations,
	}
}

// SessionReadiness returns the full verdict for the worst correlation of
// the session. Ties on status break toward the lower confidence. With no
// correlations recorded the session is READY.
func (s *System) SessionReadiness() models.Readiness {
	correlations := s.Correlations()
	if len(correlations) == 0 {
		return models.Readiness{
			Status:     models.ReadinessReady,
			Reason:     "No evidence correlated",
			Confidence: 100,
		}
	}

	worst := assessReadiness(correlations[0])
	for _, corr := range correlations[1:] {
		candidate := assessReadiness(corr)
		if readinessRank(candidate.Status) > readinessRank(worst.Status) ||
			(candidate.Status == worst.Status && candidate.Confidence < worst.Confidence) {
			worst = candidate
		}
	}
	return worst
}

// worseReadiness returns the more severe of two verdicts: any NOT_READY
// dominates, then CONDITIONAL, then READY.
func worseReadiness(a, b models.ReadinessStatus) models.ReadinessStatus {
	if readinessRank(b) > readinessRank(a) {
		return b
	}
	return a
}

func readinessRank(status models.ReadinessStatus) int {
	switch status {
	case models.ReadinessNotReady:
		return 2
	case models.ReadinessConditional:
		return 1
	default:
		return 0
	}
}

// dropNoAction removes the placeholder recommendation when real ones exist.
func dropNoAction(recs []string) []string {
	if len(recs) <= 1 {
		return recs
	}
	out := make([]string, 0, len(recs))
	for _, rec := range recs {
		if rec == "No action required" {
			continue
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return recs[:1]
	}
	return out
}
