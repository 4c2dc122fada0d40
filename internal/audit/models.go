// Package audit turns a compliance snapshot plus its open non-conformities
// into an audit result with ranked recommendations. Results are immutable:
// later audits supersede earlier ones, they never mutate them.
package audit

import (
	"time"

	"agrocert/internal/checklist"
	"agrocert/internal/nonconformity"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
)

// followUpWindow is the remediation window granted after a failed or
// conditional audit.
const followUpWindow = 90 * 24 * time.Hour

// Type identifies the kind of audit being performed.
type Type string

const (
	TypeInitial         Type = "initial"
	TypeSurveillance    Type = "surveillance"
	TypeRecertification Type = "recertification"
	TypeFollowUp        Type = "follow_up"
)

var validTypes = map[Type]bool{
	TypeInitial:         true,
	TypeSurveillance:    true,
	TypeRecertification: true,
	TypeFollowUp:        true,
}

// ParseType constructs an audit Type from external input.
func ParseType(s string) (Type, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "audit type cannot be empty")
	}
	t := Type(s)
	if !validTypes[t] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported audit type: "+s)
	}
	return t, nil
}

// Status is the audit outcome, derived by strict precedence: FAILED beats
// CONDITIONAL beats PASSED.
type Status string

const (
	StatusPassed      Status = "passed"
	StatusFailed      Status = "failed"
	StatusConditional Status = "conditional"
)

// Recommendation is a ranked remediation suggestion. Priority 1 is most
// urgent. Messages are bilingual, keyed by language tag.
type Recommendation struct {
	Priority int
	Code     string
	Message  checklist.LocalizedText
}

// Result is the immutable outcome of one audit.
type Result struct {
	ID                 id.AuditResultID
	TenantID           id.TenantID
	FarmID             id.FarmID
	ComplianceRecordID id.ComplianceRecordID
	AuditType          Type
	AuditorName        string
	AuditDate          time.Time
	AuditStatus        Status
	OverallScore       float64
	FindingsBySeverity map[nonconformity.Severity]int
	Recommendations    []Recommendation
	FollowUpRequired   bool
	FollowUpDeadline   *time.Time
}

// CertificationRecommendation states whether the farm is eligible for
// certificate issuance and why not when it is not.
type CertificationRecommendation struct {
	Eligible bool
	Reasons  []string
}
