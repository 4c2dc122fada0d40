// Package compliance aggregates per-control-point assessments into a farm's
// compliance record using the IFA three-tier threshold model.
package compliance

import (
	"time"

	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
)

// MinorMustThreshold is the percentage of applicable points that must be
// compliant when no major-must failures exist. Major musts have no threshold:
// a single failure is disqualifying.
const MinorMustThreshold = 95.0

// AssessmentStatus is the per-control-point outcome recorded by an assessor.
type AssessmentStatus string

const (
	StatusCompliant     AssessmentStatus = "compliant"
	StatusNonCompliant  AssessmentStatus = "non_compliant"
	StatusNotApplicable AssessmentStatus = "not_applicable"
	StatusNotAssessed   AssessmentStatus = "not_assessed"
)

var validAssessmentStatuses = map[AssessmentStatus]bool{
	StatusCompliant:     true,
	StatusNonCompliant:  true,
	StatusNotApplicable: true,
	StatusNotAssessed:   true,
}

func (s AssessmentStatus) IsValid() bool {
	return validAssessmentStatuses[s]
}

// ParseAssessmentStatus constructs an AssessmentStatus from external input.
func ParseAssessmentStatus(s string) (AssessmentStatus, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "assessment status cannot be empty")
	}
	st := AssessmentStatus(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported assessment status: "+s)
	}
	return st, nil
}

// Assessment is one assessor judgment of one control point. Assessments are
// never deleted, only superseded by a newer one for the same control point.
type Assessment struct {
	TenantID       id.TenantID
	FarmID         id.FarmID
	ControlPointID string
	Status         AssessmentStatus
	Evidence       []string // references to stored evidence, not the evidence itself
	Assessor       string
	AssessedAt     time.Time
}

// OverallStatus is the farm-level aggregate derived from assessments.
type OverallStatus string

const (
	OverallCompliant          OverallStatus = "compliant"
	OverallNonCompliant       OverallStatus = "non_compliant"
	OverallPartiallyCompliant OverallStatus = "partially_compliant"
	OverallPendingReview      OverallStatus = "pending_review"
	OverallNotAssessed        OverallStatus = "not_assessed"
)

// ComplianceRecord is the current aggregate for one (tenant, farm) pair.
// Fully derivable from assessments plus the catalog; recomputation from the
// same inputs is idempotent.
//
// Version implements optimistic concurrency: saves fail with ErrConflict when
// the stored version no longer matches, so concurrent assessors cannot
// silently overwrite each other.
type ComplianceRecord struct {
	ID                   id.ComplianceRecordID
	TenantID             id.TenantID
	FarmID               id.FarmID
	OverallStatus        OverallStatus
	CompliancePercentage float64
	TotalPoints          int
	CompliantPoints      int
	NonCompliantPoints   int
	NotApplicablePoints  int
	NotAssessedPoints    int
	MajorMustFails       int
	MinorMustFails       int
	AssessmentDate       time.Time
	Version              int64
}

// deriveOverallStatus applies the precedence rules: a major-must failure is
// disqualifying regardless of percentage, then the 95% threshold splits
// compliant from partially compliant.
func deriveOverallStatus(majorMustFails int, percentage float64, assessed int) OverallStatus {
	if assessed == 0 {
		return OverallNotAssessed
	}
	if majorMustFails > 0 {
		return OverallNonCompliant
	}
	if percentage >= MinorMustThreshold {
		return OverallCompliant
	}
	return OverallPartiallyCompliant
}
