package correlate

import (
	"strings"
	"testing"
	"time"

	"github.com/clarityops/console-sentinel/internal/models"
)

type fakeSource struct {
	sessionID string
	console   models.ConsoleState
	perf      models.PerformanceState
}

func (f *fakeSource) SessionID() string                            { return f.sessionID }
func (f *fakeSource) Snapshot() models.ConsoleState                { return f.console }
func (f *fakeSource) PerformanceSnapshot() models.PerformanceState { return f.perf }

func cleanConsoleState() models.ConsoleState {
	return models.ConsoleState{
		ErrorCounts:   make(map[models.Severity]int),
		CategoryStats: make(map[models.Category]int),
	}
}

func stateWithCounts(critical, high, medium, low int) models.ConsoleState {
	state := cleanConsoleState()
	state.ErrorCounts[models.SeverityCritical] = critical
	state.ErrorCounts[models.SeverityHigh] = high
	state.ErrorCounts[models.SeverityMedium] = medium
	state.ErrorCounts[models.SeverityLow] = low
	state.TotalErrors = critical + high + medium + low
	return state
}

func evidence(id, kind, phase string) models.Evidence {
	return models.Evidence{ID: id, Type: kind, Phase: phase, Screenshot: "/tmp/" + id + ".png"}
}

func TestPerformanceScorePenalties(t *testing.T) {
	cases := []struct {
		name  string
		state models.PerformanceState
		want  int
	}{
		{"all unobserved", models.PerformanceState{}, 100},
		{"high memory", models.PerformanceState{MemoryUsagePercent: 85}, 70},
		{"slow responses", models.PerformanceState{ResponseTimeMS: 2500}, 80},
		{"low frame rate", models.PerformanceState{FrameRate: 20}, 75},
		{"everything degraded", models.PerformanceState{MemoryUsagePercent: 90, ResponseTimeMS: 3000, FrameRate: 10}, 25},
		{"zero frame rate is unknown, not slow", models.PerformanceState{FrameRate: 0}, 100},
	}
	for _, tc := range cases {
		if got := performanceScore(tc.state); got != tc.want {
			t.Errorf("%s: performanceScore = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestRiskLevelBuckets(t *testing.T) {
	cases := []struct {
		score int
		want  models.RiskLevel
	}{
		{25, models.RiskCritical},
		{20, models.RiskCritical},
		{12, models.RiskHigh},
		{10, models.RiskHigh},
		{7, models.RiskMedium},
		{5, models.RiskMedium},
		{3, models.RiskLow},
		{1, models.RiskLow},
		{0, models.RiskMinimal},
	}
	for _, tc := range cases {
		if got := riskLevel(tc.score); got != tc.want {
			t.Errorf("riskLevel(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestRiskScoreMonotonicInCriticals(t *testing.T) {
	counts := map[models.Severity]int{models.SeverityHigh: 1, models.SeverityLow: 9}
	base := riskScore(counts, 100)

	counts[models.SeverityCritical] = 1
	withCritical := riskScore(counts, 100)
	if withCritical <= base {
		t.Fatalf("adding a critical error lowered the score: %d -> %d", base, withCritical)
	}
	// Low severity contribution is capped at 5.
	if base != 5+5 {
		t.Fatalf("base score = %d, want 10 (5 high + capped 5 low)", base)
	}
}

func TestCorrelateStoresWriteOnceRecord(t *testing.T) {
	source := &fakeSource{sessionID: "sess-1", console: stateWithCounts(0, 0, 1, 0)}
	sys := New(nil, source, time.Second)

	corr, err := sys.Correlate(evidence("ev-1", "screenshot", "capture"), "clicked save")
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if corr.SessionID != "sess-1" || corr.Evidence.ID != "ev-1" || corr.UserAction != "clicked save" {
		t.Fatalf("correlation fields wrong: %+v", corr)
	}
	if corr.Analysis.RiskScore != 2 || corr.Analysis.RiskLevel != models.RiskLow {
		t.Fatalf("risk = %d/%s, want 2/LOW", corr.Analysis.RiskScore, corr.Analysis.RiskLevel)
	}

	stored := sys.Correlations()
	if len(stored) != 1 || stored[0].ID != corr.ID {
		t.Fatalf("correlation not retained: %+v", stored)
	}
}

func TestReadinessVerdicts(t *testing.T) {
	sys := New(nil, &fakeSource{sessionID: "s"}, time.Second)

	notReady := models.Correlation{
		Metrics:      models.CorrelationMetrics{CriticalCount: 1, PerformanceScore: 100},
		ConsoleState: stateWithCounts(1, 0, 0, 0),
	}
	if got := sys.AssessDeploymentReadiness(notReady); got.Status != models.ReadinessNotReady {
		t.Fatalf("critical>0 verdict = %s, want NOT_READY", got.Status)
	}

	conditionalHigh := models.Correlation{
		Metrics:      models.CorrelationMetrics{HighCount: 3, PerformanceScore: 100},
		ConsoleState: stateWithCounts(0, 3, 0, 0),
	}
	if got := sys.AssessDeploymentReadiness(conditionalHigh); got.Status != models.ReadinessConditional {
		t.Fatalf("3 high errors verdict = %s, want CONDITIONAL", got.Status)
	}

	conditionalPerf := models.Correlation{
		Metrics:      models.CorrelationMetrics{PerformanceScore: 60},
		ConsoleState: cleanConsoleState(),
	}
	if got := sys.AssessDeploymentReadiness(conditionalPerf); got.Status != models.ReadinessConditional {
		t.Fatalf("perf 60 verdict = %s, want CONDITIONAL", got.Status)
	}

	ready := models.Correlation{
		Metrics:      models.CorrelationMetrics{HighCount: 2, PerformanceScore: 85},
		ConsoleState: stateWithCounts(0, 2, 0, 0),
	}
	got := sys.AssessDeploymentReadiness(ready)
	if got.Status != models.ReadinessReady {
		t.Fatalf("clean verdict = %s, want READY", got.Status)
	}
	// confidence = 100 - 2*10 - 0 - (100-85)/2 = 73
	if got.Confidence != 73 {
		t.Fatalf("confidence = %d, want 73", got.Confidence)
	}
}

func TestAnomalyDetection(t *testing.T) {
	state := stateWithCounts(1, 0, 0, 0)
	state.TotalNetworkErrors = 4
	state.CategoryStats[models.CategoryNetwork] = 6

	anomalies := detectAnomalies(state, 40)
	if len(anomalies) != 4 {
		t.Fatalf("anomalies = %v, want 4 entries", anomalies)
	}
	joined := strings.Join(anomalies, "; ")
	for _, fragment := range []string{"critical", "network error rate", "performance score", "NETWORK"} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("anomalies missing %q: %v", fragment, anomalies)
		}
	}
}

func TestReportWorstCaseReadiness(t *testing.T) {
	source := &fakeSource{sessionID: "sess-agg"}
	sys := New(nil, source, time.Second)

	// Three correlations with critical counts [1, 0, 0]: the single
	// NOT_READY verdict must dominate the aggregate.
	for i, critical := range []int{1, 0, 0} {
		source.console = stateWithCounts(critical, 0, 0, 0)
		if _, err := sys.Correlate(evidence("ev", "screenshot", "capture"), ""); err != nil {
			t.Fatalf("correlate %d: %v", i, err)
		}
	}

	report := sys.Report()
	if report.Summary.DeploymentReadiness != models.ReadinessNotReady {
		t.Fatalf("deploymentReadiness = %s, want NOT_READY", report.Summary.DeploymentReadiness)
	}
	if report.Summary.TotalCorrelations != 3 {
		t.Fatalf("totalCorrelations = %d, want 3", report.Summary.TotalCorrelations)
	}
	if report.Summary.EvidenceTypes["screenshot"] != 3 {
		t.Fatalf("evidenceTypes = %v, want screenshot:3", report.Summary.EvidenceTypes)
	}
	if report.Summary.RiskDistribution[models.RiskHigh] != 1 || report.Summary.RiskDistribution[models.RiskMinimal] != 2 {
		t.Fatalf("riskDistribution = %v, want HIGH:1 MINIMAL:2", report.Summary.RiskDistribution)
	}
	for _, rec := range report.Recommendations {
		if rec == "No action required" {
			t.Fatalf("placeholder recommendation kept alongside real ones: %v", report.Recommendations)
		}
	}
}

func TestForensicUnknownID(t *testing.T) {
	sys := New(nil, &fakeSource{sessionID: "s"}, time.Second)
	if _, err := sys.ForensicAnalysis("missing"); err == nil {
		t.Fatal("expected error for unknown correlation id")
	}
}

func TestForensicChainAndRootCauses(t *testing.T) {
	source := &fakeSource{sessionID: "sess-f"}
	sys := New(nil, source, time.Second)

	critical := stateWithCounts(1, 0, 0, 0)
	critical.RecentErrors = []models.LogEntry{{
		ID:       "e-1",
		Message:  "Uncaught Error: billing widget crashed",
		Severity: models.SeverityCritical,
		Category: models.CategoryJavaScript,
	}}
	source.console = critical
	subject, err := sys.Correlate(evidence("ev-f", "screenshot", "failure"), "")
	if err != nil {
		t.Fatal(err)
	}

	source.console = cleanConsoleState()
	if _, err := sys.Correlate(evidence("ev-g", "screenshot", "capture"), ""); err != nil {
		t.Fatal(err)
	}

	report, err := sys.ForensicAnalysis(subject.ID)
	if err != nil {
		t.Fatalf("ForensicAnalysis: %v", err)
	}
	// Both correlations fall inside 2x the window, in chronological order.
	if len(report.EvidenceChain) != 2 {
		t.Fatalf("evidence chain = %d links, want 2", len(report.EvidenceChain))
	}
	if report.EvidenceChain[0].CorrelationID != subject.ID {
		t.Fatalf("chain not chronological: %+v", report.EvidenceChain)
	}

	if len(report.RootCauses) != 1 {
		t.Fatalf("root causes = %+v, want exactly the critical entry", report.RootCauses)
	}
	cause := report.RootCauses[0]
	if cause.Kind != models.CausePrimary || cause.Category != models.CategoryJavaScript {
		t.Fatalf("cause = %+v, want PRIMARY/JAVASCRIPT", cause)
	}

	if report.Impact.UserExperience != "SEVERE" || report.Impact.SystemStability != "UNSTABLE" {
		t.Fatalf("impact = %+v, want SEVERE/UNSTABLE", report.Impact)
	}
}

func TestTemporalTrend(t *testing.T) {
	source := &fakeSource{sessionID: "sess-t"}
	sys := New(nil, source, time.Minute)

	source.console = cleanConsoleState()
	if _, err := sys.Correlate(evidence("a", "screenshot", "capture"), ""); err != nil {
		t.Fatal(err)
	}

	source.console = stateWithCounts(0, 2, 0, 0)
	worse, err := sys.Correlate(evidence("b", "screenshot", "capture"), "")
	if err != nil {
		t.Fatal(err)
	}
	if worse.Analysis.Temporal.Trend != "DEGRADING" {
		t.Fatalf("trend = %s, want DEGRADING", worse.Analysis.Temporal.Trend)
	}
	if worse.Analysis.Temporal.NewErrors != 2 {
		t.Fatalf("newErrors = %d, want 2", worse.Analysis.Temporal.NewErrors)
	}
	if len(worse.Analysis.Temporal.RelatedIDs) != 1 {
		t.Fatalf("relatedIds = %v, want the first correlation", worse.Analysis.Temporal.RelatedIDs)
	}

	source.console = cleanConsoleState()
	better, err := sys.Correlate(evidence("c", "screenshot", "capture"), "")
	if err != nil {
		t.Fatal(err)
	}
	if better.Analysis.Temporal.Trend != "IMPROVING" {
		t.Fatalf("trend = %s, want IMPROVING", better.Analysis.Temporal.Trend)
	}
}
