package classify

import (
	"regexp"
	"strings"

	"github.com/clarityops/console-sentinel/internal/models"
)

// severityRule pairs a compiled pattern with the severity it assigns.
type severityRule struct {
	severity models.Severity
	pattern  *regexp.Regexp
}

// categoryRule pairs a category with its case-insensitive keyword list.
type categoryRule struct {
	category models.Category
	keywords []string
}

// Classifier maps raw browser messages onto severities and categories.
// Evaluation is first-match-wins over an ordered rule table, so a message
// matching both a CRITICAL and a LOW pattern classifies CRITICAL.
// All methods are pure; a Classifier is safe for concurrent use.
type Classifier struct {
	severities []severityRule
	categories []categoryRule
}

// NewClassifier returns a classifier using the built-in rule tables.
func NewClassifier() *Classifier {
	return &Classifier{
		severities: defaultSeverityRules(),
		categories: defaultCategoryRules(),
	}
}

// Severity classifies a console or page-error message. Messages matching
// no rule default to LOW.
func (c *Classifier) Severity(message string) models.Severity {
	for _, rule := range c.severities {
		if rule.pattern.MatchString(message) {
			return rule.severity
		}
	}
	return models.SeverityLow
}

// Category returns the first category whose keyword list substring-matches
// the message, defaulting to GENERAL.
func (c *Classifier) Category(message string) models.Category {
	lowered := strings.ToLower(message)
	for _, rule := range c.categories {
		for _, kw := range rule.keywords {
			if kw != "" && strings.Contains(lowered, kw) {
				return rule.category
			}
		}
	}
	return models.CategoryGeneral
}

// NetworkErrorSeverity classifies a request-failure reason. DNS and
// connection-refused failures are CRITICAL, timeouts HIGH, the rest MEDIUM.
func NetworkErrorSeverity(errorText string) models.Severity {
	lowered := strings.ToLower(errorText)
	switch {
	case strings.Contains(lowered, "name_not_resolved"),
		strings.Contains(lowered, "name not resolved"),
		strings.Contains(lowered, "dns"),
		strings.Contains(lowered, "connection_refused"),
		strings.Contains(lowered, "connection refused"):
		return models.SeverityCritical
	case strings.Contains(lowered, "timed_out"),
		strings.Contains(lowered, "timed out"),
		strings.Contains(lowered, "timeout"):
		return models.SeverityHigh
	default:
		return models.SeverityMedium
	}
}

// HTTPStatusSeverity classifies a non-OK HTTP response status. 5xx is
// CRITICAL, 401/403/404 HIGH, other 4xx MEDIUM, anything else LOW.
func HTTPStatusSeverity(status int) models.Severity {
	switch {
	case status >= 500:
		return models.SeverityCritical
	case status == 401 || status == 403 || status == 404:
		return models.SeverityHigh
	case status >= 400:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func defaultSeverityRules() []severityRule {
	return compileRules([]rawRule{
		{models.SeverityCritical, `(?i)uncaught (exception|error|typeerror|referenceerror|rangeerror)`},
		{models.SeverityCritical, `(?i)cannot read propert`},
		{models.SeverityCritical, `(?i)is not a function`},
		{models.SeverityCritical, `(?i)maximum call stack`},
		{models.SeverityCritical, `(?i)out of memory`},
		{models.SeverityCritical, `(?i)hydration (failed|mismatch)`},
		{models.SeverityCritical, `(?i)chunkloaderror|loading chunk \S+ failed`},
		{models.SeverityCritical, `(?i)\bfatal\b`},
		{models.SeverityHigh, `(?i)unhandled (promise )?rejection`},
		{models.SeverityHigh, `(?i)failed to fetch`},
		{models.SeverityHigh, `(?i)network\s?error`},
		{models.SeverityHigh, `(?i)\b(unauthorized|forbidden)\b`},
		{models.SeverityHigh, `(?i)timed? ?out`},
		{models.SeverityHigh, `(?i)permission denied`},
		{models.SeverityMedium, `(?i)deprecat`},
		{models.SeverityMedium, `(?i)\bslow\b`},
		{models.SeverityMedium, `(?i)retry(ing)?\b`},
		{models.SeverityMedium, `(?i)invalid prop`},
		{models.SeverityMedium, `(?i)failed prop type`},
		{models.SeverityLow, `(?i)\b(verbose|debug)\b`},
	})
}

func defaultCategoryRules() []categoryRule {
	return []categoryRule{
		{models.CategoryAuthentication, []string{"auth", "login", "logout", "session expired", "token", "credential", "unauthorized"}},
		{models.CategoryNetwork, []string{"fetch", "network", "xhr", "cors", "websocket", "socket", "connection", "err_"}},
		{models.CategoryJavaScript, []string{"uncaught", "is not defined", "is not a function", "cannot read", "undefined", "null", "syntaxerror", "referenceerror", "typeerror", "call stack"}},
		{models.CategoryPerformance, []string{"slow", "memory", "timeout", "timed out", "performance", "fps", "frame", "lag"}},
		{models.CategorySecurity, []string{"content security policy", "csp", "xss", "mixed content", "certificate", "insecure", "blocked"}},
		{models.CategoryUIUX, []string{"hydration", "render", "layout", "css", "style", "component", "react"}},
		{models.CategoryData, []string{"prisma", "sql", "database", "query", "json", "parse", "serializ"}},
		{models.CategoryThirdParty, []string{"stripe", "analytics", "gtag", "facebook", "intercom", "sentry", "cdn", "third-party"}},
	}
}

type rawRule struct {
	severity models.Severity
	expr     string
}

func compileRules(raw []rawRule) []severityRule {
	rules := make([]severityRule, 0, len(raw))
	for _, r := range raw {
		rules = append(rules, severityRule{severity: r.severity, pattern: regexp.MustCompile(r.expr)})
	}
	return rules
}
