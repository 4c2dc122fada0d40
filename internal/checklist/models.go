// Package checklist holds the IFA control-point reference data. Control
// points are immutable: the catalog is seeded at startup and only read
// afterwards.
package checklist

import (
	dErrors "agrocert/pkg/domain-errors"
)

// ComplianceLevel is the three-tier IFA taxonomy. Pass thresholds: Major Must
// 100%, Minor Must 95%, Recommendation advisory only.
//
// Usage: construct via ParseComplianceLevel at trust boundaries to enforce
// the allowlist; direct casting bypasses validation.
type ComplianceLevel string

const (
	LevelMajorMust      ComplianceLevel = "major_must"
	LevelMinorMust      ComplianceLevel = "minor_must"
	LevelRecommendation ComplianceLevel = "recommendation"
)

var validLevels = map[ComplianceLevel]bool{
	LevelMajorMust:      true,
	LevelMinorMust:      true,
	LevelRecommendation: true,
}

func (l ComplianceLevel) IsValid() bool {
	return validLevels[l]
}

// ParseComplianceLevel constructs a ComplianceLevel from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseComplianceLevel(s string) (ComplianceLevel, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "compliance level cannot be empty")
	}
	l := ComplianceLevel(s)
	if !l.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported compliance level: "+s)
	}
	return l, nil
}

// Category groups control points by audit area. The audit engine's
// clustering rules key off these values, so they are closed constants rather
// than free text.
type Category string

const (
	CategoryFoodSafety     Category = "food_safety"
	CategoryTraceability   Category = "traceability"
	CategoryCropProtection Category = "crop_protection"
	CategoryRecordKeeping  Category = "record_keeping"
	CategoryEnvironment    Category = "environment"
	CategoryWorkerWelfare  Category = "worker_welfare"
)

// LocalizedText is a language-keyed text map. Key "en" is always present;
// additional keys carry the checklist's second publication language.
type LocalizedText map[string]string

// In returns the text for a language tag, falling back to English.
func (t LocalizedText) In(lang string) string {
	if s, ok := t[lang]; ok {
		return s
	}
	return t["en"]
}

// ControlPoint is a single auditable requirement within the checklist.
// Immutable reference data; never created or mutated at runtime.
type ControlPoint struct {
	ID       string // dotted checklist code, e.g. "AF.1.1.1"
	Category Category
	Level    ComplianceLevel
	Text     LocalizedText
}
