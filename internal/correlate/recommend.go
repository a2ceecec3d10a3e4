package correlate

import (
	"fmt"

	"github.com/clarityops/console-sentinel/internal/models"
)

// recommend derives per-correlation recommendations from the snapshot.
// Ordering matters: the list is priority-ordered, most urgent first.
func recommend(console models.ConsoleState, perfScore int) []string {
	recs := make([]string, 0)
	if console.ErrorCounts[models.SeverityCritical] > 0 {
		recs = appendUnique(recs, "Resolve critical console errors before considering deployment")
	}
	if console.ErrorCounts[models.SeverityHigh] > 2 {
		recs = appendUnique(recs, "Burn down high-severity errors to two or fewer")
	}
	if console.TotalNetworkErrors > 3 {
		recs = appendUnique(recs, "Investigate failing network requests and backend availability")
	}
	if perfScore < 70 {
		recs = appendUnique(recs, "Profile response latency; p95 exceeds the performance budget")
	}
	if console.CategoryStats[models.CategoryAuthentication] > 0 {
		recs = appendUnique(recs, "Verify session and token handling on authentication errors")
	}
	if console.CategoryStats[models.CategorySecurity] > 0 {
		recs = appendUnique(recs, "Review content security policy violations")
	}
	if len(recs) == 0 {
		recs = append(recs, "No action required")
	}
	return recs
}

// assessReadiness derives a deployment verdict from one correlation.
// NOT_READY iff any critical console errors exist; CONDITIONAL when high
// errors exceed two or the performance score is below 70; READY otherwise.
func assessReadiness(corr models.Correlation) models.Readiness {
	if corr.Metrics.CriticalCount > 0 {
		blockers := make([]string, 0, len(corr.ConsoleState.RecentErrors))
		for _, entry := range corr.ConsoleState.RecentErrors {
			if entry.Severity == models.SeverityCritical {
				blockers = append(blockers, entry.Message)
			}
		}
		return models.Readiness{
			Status:   models.ReadinessNotReady,
			Reason:   fmt.Sprintf("%d critical console error(s) detected", corr.Metrics.CriticalCount),
			Blockers: blockers,
		}
	}

	if corr.Metrics.HighCount > 2 {
		return models.Readiness{
			Status:     models.ReadinessConditional,
			Reason:     fmt.Sprintf("%d high-severity errors exceed the threshold of 2", corr.Metrics.HighCount),
			Confidence: readinessConfidence(corr),
		}
	}
	if corr.Metrics.PerformanceScore < 70 {
		return models.Readiness{
			Status:     models.ReadinessConditional,
			Reason:     fmt.Sprintf("performance score %d below 70", corr.Metrics.PerformanceScore),
			Confidence: readinessConfidence(corr),
		}
	}

	return models.Readiness{
		Status:     models.ReadinessReady,
		Reason:     "no blocking conditions observed",
		Confidence: readinessConfidence(corr),
	}
}

// readinessConfidence is 100 minus weighted penalties, floored at 0.
func readinessConfidence(corr models.Correlation) int {
	confidence := 100 -
		corr.Metrics.HighCount*10 -
		corr.ConsoleState.ErrorCounts[models.SeverityMedium]*2 -
		(100-corr.Metrics.PerformanceScore)/2
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

// AssessDeploymentReadiness is the exported per-correlation verdict.
func (s *System) AssessDeploymentReadiness(corr models.Correlation) models.Readiness {
	return assessReadiness(corr)
}

func appendUnique(existing []string, additions ...string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, rec := range existing {
		seen[rec] = struct{}{}
	}
	for _, item := range additions {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		existing = append(existing, item)
		seen[item] = struct{}{}
	}
	return existing
}
