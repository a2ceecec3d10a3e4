package models

import "time"

// OverallStatus summarises a monitoring session at read time.
type OverallStatus string

const (
	StatusCriticalErrors  OverallStatus = "CRITICAL_ERRORS_DETECTED"
	StatusHighSeverity    OverallStatus = "HIGH_SEVERITY_ERRORS"
	StatusMediumSeverity  OverallStatus = "MEDIUM_SEVERITY_ERRORS"
	StatusTooManyWarnings OverallStatus = "TOO_MANY_WARNINGS"
	StatusWarnings        OverallStatus = "WARNINGS_DETECTED"
	StatusClean           OverallStatus = "CLEAN"
)

// MonitoringStatus is a point-in-time read of accumulated session state.
type MonitoringStatus struct {
	SessionID     string           `json:"sessionId"`
	StartTime     time.Time        `json:"startTime"`
	ErrorCounts   map[Severity]int `json:"errorCounts"`
	CategoryStats map[Category]int `json:"categoryStats"`
	TotalErrors   int              `json:"totalErrors"`
	TotalWarnings int              `json:"totalWarnings"`
	TotalNetwork  int              `json:"totalNetworkErrors"`
	OverallStatus OverallStatus    `json:"overallStatus"`
}

// SessionSummary is the per-session artifact written at cleanup.
type SessionSummary struct {
	SessionID     string           `json:"sessionId"`
	StartTime     time.Time        `json:"startTime"`
	EndTime       time.Time        `json:"endTime"`
	ErrorCounts   map[Severity]int `json:"errorCounts"`
	CategoryStats map[Category]int `json:"categoryStats"`
	TotalErrors   int              `json:"totalErrors"`
	TotalWarnings int              `json:"totalWarnings"`
	TotalNetwork  int              `json:"totalNetworkErrors"`
	OverallStatus OverallStatus    `json:"overallStatus"`
}

// RepeatedMessage records a message prefix seen more than once.
type RepeatedMessage struct {
	Prefix   string   `json:"prefix"`
	Count    int      `json:"count"`
	Severity Severity `json:"severity"`
}

// PatternAnalysis is the best-effort pattern section of an error report.
type PatternAnalysis struct {
	MostCommonCategory Category          `json:"mostCommonCategory"`
	RepeatedMessages   []RepeatedMessage `json:"repeatedMessages,omitempty"`
}

// ErrorReport is the full session dump written to the reports directory.
type ErrorReport struct {
	SessionID     string           `json:"sessionId"`
	GeneratedAt   time.Time        `json:"generatedAt"`
	StartTime     time.Time        `json:"startTime"`
	Duration      time.Duration    `json:"durationNs"`
	ErrorCounts   map[Severity]int `json:"errorCounts"`
	CategoryStats map[Category]int `json:"categoryStats"`
	Errors        []LogEntry       `json:"errors"`
	Warnings      []LogEntry       `json:"warnings"`
	NetworkErrors []LogEntry       `json:"networkErrors"`
	Patterns      PatternAnalysis  `json:"patterns"`
	OverallStatus OverallStatus    `json:"overallStatus"`
}
