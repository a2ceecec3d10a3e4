package models

import "time"

// ChainLink is one element of a forensic evidence chain.
type ChainLink struct {
	CorrelationID string        `json:"correlationId"`
	EvidenceID    string        `json:"evidenceId"`
	Timestamp     time.Time     `json:"timestamp"`
	Offset        time.Duration `json:"offsetNs"`
	RiskLevel     RiskLevel     `json:"riskLevel"`
}

// CauseKind distinguishes primary causes from contributing factors.
type CauseKind string

const (
	CausePrimary      CauseKind = "PRIMARY"
	CauseContributing CauseKind = "CONTRIBUTING"
)

// CauseFinding is one root-cause candidate surfaced by forensic analysis.
type CauseFinding struct {
	Kind        CauseKind `json:"kind"`
	Description string    `json:"description"`
	Category    Category  `json:"category,omitempty"`
	Entry       *LogEntry `json:"entry,omitempty"`
}

// ImpactAssessment scores three independent impact dimensions.
type ImpactAssessment struct {
	UserExperience  string   `json:"userExperience"`
	SystemStability string   `json:"systemStability"`
	BusinessImpact  string   `json:"businessImpact"`
	Notes           []string `json:"notes,omitempty"`
}

// ForensicReport reconstructs the context around one correlation.
type ForensicReport struct {
	CorrelationID string           `json:"correlationId"`
	SessionID     string           `json:"sessionId"`
	GeneratedAt   time.Time        `json:"generatedAt"`
	EvidenceChain []ChainLink      `json:"evidenceChain"`
	RootCauses    []CauseFinding   `json:"rootCauses,omitempty"`
	Impact        ImpactAssessment `json:"impact"`
}

// ReportSummary is the aggregate header of a correlation report.
type ReportSummary struct {
	TotalCorrelations   int               `json:"totalCorrelations"`
	RiskDistribution    map[RiskLevel]int `json:"riskDistribution"`
	EvidenceTypes       map[string]int    `json:"evidenceTypes"`
	DeploymentReadiness ReadinessStatus   `json:"deploymentReadiness"`
}

// CorrelationReport is the session-level aggregate over all correlations.
type CorrelationReport struct {
	SessionID       string        `json:"sessionId"`
	GeneratedAt     time.Time     `json:"generatedAt"`
	Summary         ReportSummary `json:"summary"`
	Recommendations []string      `json:"recommendations,omitempty"`
	Correlations    []Correlation `json:"correlations"`
}
