package models

import "time"

// RiskLevel buckets a weighted risk score.
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
	RiskMinimal  RiskLevel = "MINIMAL"
)

// Evidence is a captured UI artifact supplied by an external collaborator.
type Evidence struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Phase      string            `json:"phase,omitempty"`
	Screenshot string            `json:"screenshot,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ConsoleState is a bounded snapshot of monitor state at correlation time.
type ConsoleState struct {
	RecentErrors        []LogEntry       `json:"recentErrors"`
	RecentWarnings      []LogEntry       `json:"recentWarnings"`
	RecentNetworkErrors []LogEntry       `json:"recentNetworkErrors"`
	ErrorCounts         map[Severity]int `json:"errorCounts"`
	CategoryStats       map[Category]int `json:"categoryStats"`
	TotalErrors         int              `json:"totalErrors"`
	TotalWarnings       int              `json:"totalWarnings"`
	TotalNetworkErrors  int              `json:"totalNetworkErrors"`
}

// PerformanceState captures observed page performance at correlation time.
// A zero value means the dimension was not observed; unknown dimensions
// never contribute score penalties.
type PerformanceState struct {
	MemoryUsagePercent float64 `json:"memoryUsagePercent"`
	ResponseTimeMS     float64 `json:"responseTimeMs"`
	FrameRate          float64 `json:"frameRate"`
	ResponseSamples    int     `json:"responseSamples"`
}

// CorrelationMetrics holds the counts and score the analysis is built on.
type CorrelationMetrics struct {
	ErrorCount        int `json:"errorCount"`
	WarningCount      int `json:"warningCount"`
	NetworkErrorCount int `json:"networkErrorCount"`
	CriticalCount     int `json:"criticalCount"`
	HighCount         int `json:"highCount"`
	PerformanceScore  int `json:"performanceScore"`
}

// TemporalAnalysis relates a correlation to its time-adjacent neighbours.
type TemporalAnalysis struct {
	Window     time.Duration `json:"windowNs"`
	RelatedIDs []string      `json:"relatedIds,omitempty"`
	Trend      string        `json:"trend"`
	NewErrors  int           `json:"newErrors"`
}

// ConsistencyAnalysis flags disagreement between evidence and console state.
type ConsistencyAnalysis struct {
	Consistent bool     `json:"consistent"`
	Notes      []string `json:"notes,omitempty"`
}

// RiskAssessment is the scored risk sub-report.
type RiskAssessment struct {
	Level   RiskLevel `json:"level"`
	Score   int       `json:"score"`
	Drivers []string  `json:"drivers,omitempty"`
}

// Analysis aggregates the synchronous assessment of one correlation.
type Analysis struct {
	RiskLevel       RiskLevel           `json:"riskLevel"`
	RiskScore       int                 `json:"riskScore"`
	Anomalies       []string            `json:"anomalies,omitempty"`
	Recommendations []string            `json:"recommendations,omitempty"`
	Temporal        TemporalAnalysis    `json:"temporal"`
	Consistency     ConsistencyAnalysis `json:"consistency"`
	Risk            RiskAssessment      `json:"riskAssessment"`
}

// Correlation binds one evidence artifact to the console and performance
// state observed at capture time. Write-once: populated in a single call,
// never mutated afterwards.
type Correlation struct {
	ID               string             `json:"id"`
	Timestamp        time.Time          `json:"timestamp"`
	SessionID        string             `json:"sessionId"`
	Evidence         Evidence           `json:"evidence"`
	UserAction       string             `json:"userAction,omitempty"`
	ConsoleState     ConsoleState       `json:"consoleState"`
	PerformanceState PerformanceState   `json:"performanceState"`
	Metrics          CorrelationMetrics `json:"correlationMetrics"`
	Analysis         Analysis           `json:"analysis"`
}

// ReadinessStatus is the deployment verdict derived from accumulated risk.
type ReadinessStatus string

const (
	ReadinessReady       ReadinessStatus = "READY"
	ReadinessConditional ReadinessStatus = "CONDITIONAL"
	ReadinessNotReady    ReadinessStatus = "NOT_READY"
)

// Readiness is the outcome of a deployment-readiness assessment.
type Readiness struct {
	Status     ReadinessStatus `json:"status"`
	Reason     string          `json:"reason"`
	Blockers   []string        `json:"blockers,omitempty"`
	Confidence int             `json:"confidence"`
}
