package classify

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clarityops/console-sentinel/internal/models"
)

// RulePackFile is the YAML root structure for a classifier rule pack.
type RulePackFile struct {
	Severities []SeverityGroup `yaml:"severities"`
	Categories []CategoryGroup `yaml:"categories"`
}

// SeverityGroup lists regex patterns assigned to one severity.
type SeverityGroup struct {
	Severity string   `yaml:"severity"`
	Patterns []string `yaml:"patterns"`
}

// CategoryGroup lists keywords assigned to one category.
type CategoryGroup struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// LoadRulePack loads a classifier from a YAML rule pack. An empty path or
// a missing file falls back to the built-in tables. Pack groups merge
// with the built-ins, and the merged severity rules are re-sorted by
// severity so pack ordering cannot break the priority invariant.
func LoadRulePack(path string, logger *slog.Logger) (*Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return NewClassifier(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("rule pack not found, using built-in rules", slog.String("path", path))
			return NewClassifier(), nil
		}
		return nil, fmt.Errorf("read rule pack: %w", err)
	}

	var file RulePackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rule pack: %w", err)
	}

	classifier := NewClassifier()
	if len(file.Severities) > 0 {
		rules, err := mergeSeverityRules(classifier.severities, file.Severities)
		if err != nil {
			return nil, err
		}
		classifier.severities = rules
	}
	if len(file.Categories) > 0 {
		classifier.categories = mergeCategoryRules(classifier.categories, file.Categories)
	}

	logger.Info("classifier rule pack loaded",
		slog.String("path", path),
		slog.Int("severityRules", len(classifier.severities)),
		slog.Int("categoryGroups", len(classifier.categories)),
	)
	return classifier, nil
}

// mergeSeverityRules appends the pack's compiled patterns to the built-in
// rules, then re-buckets everything by severity rank. Built-in rules sort
// ahead of pack rules within a rank.
func mergeSeverityRules(base []severityRule, groups []SeverityGroup) ([]severityRule, error) {
	merged := append([]severityRule(nil), base...)
	for _, group := range groups {
		severity := models.Severity(strings.ToUpper(group.Severity))
		if severity.Rank() >= len(models.Severities) {
			return nil, fmt.Errorf("rule pack: unknown severity %q", group.Severity)
		}
		for _, expr := range group.Patterns {
			pattern, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("rule pack: compile %q: %w", expr, err)
			}
			merged = append(merged, severityRule{severity: severity, pattern: pattern})
		}
	}

	byRank := make(map[int][]severityRule)
	for _, rule := range merged {
		rank := rule.severity.Rank()
		byRank[rank] = append(byRank[rank], rule)
	}
	rules := make([]severityRule, 0, len(merged))
	for rank := range models.Severities {
		rules = append(rules, byRank[rank]...)
	}
	return rules, nil
}

// mergeCategoryRules folds pack keywords into existing category groups and
// appends unknown categories after the built-ins, preserving the built-in
// match order.
func mergeCategoryRules(base []categoryRule, groups []CategoryGroup) []categoryRule {
	merged := append([]categoryRule(nil), base...)
	index := make(map[models.Category]int, len(merged))
	for i, rule := range merged {
		index[rule.category] = i
	}

	for _, group := range groups {
		keywords := make([]string, 0, len(group.Keywords))
		for _, kw := range group.Keywords {
			if kw == "" {
				continue
			}
			keywords = append(keywords, strings.ToLower(kw))
		}
		if len(keywords) == 0 {
			continue
		}
		category := models.Category(strings.ToUpper(group.Category))
		if i, ok := index[category]; ok {
			merged[i].keywords = append(append([]string(nil), merged[i].keywords...), keywords...)
			continue
		}
		index[category] = len(merged)
		merged = append(merged, categoryRule{category: category, keywords: keywords})
	}
	return merged
}
