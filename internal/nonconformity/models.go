// Package nonconformity tracks control-point failures through remediation.
// A non-conformity is never silently dropped: it is created when an
// assessment fails (or manually) and stays open until explicitly resolved.
package nonconformity

import (
	"time"

	"agrocert/internal/checklist"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
)

// Severity classifies how serious a failure is for audit purposes.
type Severity string

const (
	SeverityCritical    Severity = "critical"
	SeverityMajor       Severity = "major"
	SeverityMinor       Severity = "minor"
	SeverityObservation Severity = "observation"
)

var validSeverities = map[Severity]bool{
	SeverityCritical:    true,
	SeverityMajor:       true,
	SeverityMinor:       true,
	SeverityObservation: true,
}

func (s Severity) IsValid() bool {
	return validSeverities[s]
}

// ParseSeverity constructs a Severity from external input.
func ParseSeverity(s string) (Severity, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "severity cannot be empty")
	}
	sev := Severity(s)
	if !sev.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported severity: "+s)
	}
	return sev, nil
}

// SeverityForLevel is the explicit compliance-level to severity mapping.
// The association is modeled as a reference to the control point's level,
// never inferred from the control point's textual id.
func SeverityForLevel(level checklist.ComplianceLevel) Severity {
	switch level {
	case checklist.LevelMajorMust:
		return SeverityCritical
	case checklist.LevelMinorMust:
		return SeverityMajor
	default:
		return SeverityObservation
	}
}

// correctiveActionDue returns the remediation window for a severity. Advisory
// observations carry no deadline.
func correctiveActionDue(severity Severity, from time.Time) *time.Time {
	var days int
	switch severity {
	case SeverityCritical:
		days = 14
	case SeverityMajor:
		days = 30
	case SeverityMinor:
		days = 60
	default:
		return nil
	}
	due := from.AddDate(0, 0, days)
	return &due
}

// NonConformity records a failed control point and its remediation state.
type NonConformity struct {
	ID                 id.NonConformityID
	TenantID           id.TenantID
	FarmID             id.FarmID
	ComplianceRecordID id.ComplianceRecordID
	ControlPointID     string
	Severity           Severity
	Description        string
	CorrectiveAction   string
	Deadline           *time.Time
	Resolved           bool
	ResolvedAt         *time.Time
	ResolutionNotes    string
	DetectedAt         time.Time
}

// Overdue reports whether the corrective action deadline has passed for an
// unresolved non-conformity.
func (n NonConformity) Overdue(now time.Time) bool {
	return !n.Resolved && n.Deadline != nil && now.After(*n.Deadline)
}
