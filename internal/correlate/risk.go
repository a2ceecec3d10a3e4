package correlate

import (
	"fmt"

	"github.com/clarityops/console-sentinel/internal/models"
)

// performanceScore converts a performance snapshot into a 0-100 score via
// fixed penalties. Unobserved dimensions (zero values) are not penalised.
func performanceScore(state models.PerformanceState) int {
	score := 100
	if state.MemoryUsagePercent > 80 {
		score -= 30
	}
	if state.ResponseTimeMS > 2000 {
		score -= 20
	}
	if state.FrameRate > 0 && state.FrameRate < 30 {
		score -= 25
	}
	if score < 0 {
		score = 0
	}
	return score
}

// riskScore computes the weighted score risk levels are bucketed from.
// Monotonic in the critical count: adding a critical error never lowers it.
func riskScore(counts map[models.Severity]int, perfScore int) int {
	low := counts[models.SeverityLow]
	if low > 5 {
		low = 5
	}
	score := counts[models.SeverityCritical]*10 +
		counts[models.SeverityHigh]*5 +
		counts[models.SeverityMedium]*2 +
		low

	switch {
	case perfScore < 50:
		score += 5
	case perfScore < 70:
		score += 2
	}
	return score
}

// riskLevel buckets a weighted score onto the risk scale.
func riskLevel(score int) models.RiskLevel {
	switch {
	case score >= 20:
		return models.RiskCritical
	case score >= 10:
		return models.RiskHigh
	case score >= 5:
		return models.RiskMedium
	case score > 0:
		return models.RiskLow
	default:
		return models.RiskMinimal
	}
}

// detectAnomalies lists conditions that should draw a reviewer's eye.
func detectAnomalies(console models.ConsoleState, perfScore int) []string {
	anomalies := make([]string, 0)
	if console.ErrorCounts[models.SeverityCritical] > 0 {
		anomalies = append(anomalies,
			fmt.Sprintf("%d critical console error(s) present", console.ErrorCounts[models.SeverityCritical]))
	}
	if console.TotalNetworkErrors > 3 {
		anomalies = append(anomalies,
			fmt.Sprintf("elevated network error rate: %d failures", console.TotalNetworkErrors))
	}
	if perfScore < 50 {
		anomalies = append(anomalies,
			fmt.Sprintf("performance score degraded to %d", perfScore))
	}
	for category, count := range console.CategoryStats {
		if count > 5 {
			anomalies = append(anomalies,
				fmt.Sprintf("category %s accumulated %d events", category, count))
		}
	}
	return anomalies
}

// riskDrivers names the inputs that pushed the score where it is.
func riskDrivers(counts map[models.Severity]int, perfScore int) []string {
	drivers := make([]string, 0)
	if n := counts[models.SeverityCritical]; n > 0 {
		drivers = append(drivers, fmt.Sprintf("critical errors x%d", n))
	}
	if n := counts[models.SeverityHigh]; n > 0 {
		drivers = append(drivers, fmt.Sprintf("high severity errors x%d", n))
	}
	if n := counts[models.SeverityMedium]; n > 0 {
		drivers = append(drivers, fmt.Sprintf("medium severity errors x%d", n))
	}
	if perfScore < 70 {
		drivers = append(drivers, fmt.Sprintf("performance score %d", perfScore))
	}
	return drivers
}
