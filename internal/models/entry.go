package models

import "time"

// Severity is a priority-ordered classification of an observed event.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Severities lists all severities from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Rank returns the priority rank of a severity, 0 being most severe.
// Unknown severities rank below LOW.
func (s Severity) Rank() int {
	for i, known := range Severities {
		if s == known {
			return i
		}
	}
	return len(Severities)
}

// Category is a coarse topic tag derived from keyword matching.
type Category string

const (
	CategoryAuthentication Category = "AUTHENTICATION"
	CategoryNetwork        Category = "NETWORK"
	CategoryJavaScript     Category = "JAVASCRIPT"
	CategoryPerformance    Category = "PERFORMANCE"
	CategorySecurity       Category = "SECURITY"
	CategoryUIUX           Category = "UI_UX"
	CategoryData           Category = "DATA"
	CategoryThirdParty     Category = "THIRD_PARTY"
	CategoryGeneral        Category = "GENERAL"
)

// EventType identifies the browser stream an entry came from.
type EventType string

const (
	EventConsole   EventType = "console"
	EventPageError EventType = "pageerror"
	EventNetwork   EventType = "network"
	EventResponse  EventType = "response"
)

// LogEntry is one observed browser event, immutable once created.
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Message   string    `json:"message"`
	URL       string    `json:"url,omitempty"`
	Severity  Severity  `json:"severity"`
	Category  Category  `json:"category"`
	Source    string    `json:"source,omitempty"`
}
