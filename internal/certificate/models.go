// Package certificate manages the lifecycle of GGN certificates: issuance,
// date-driven status derivation, suspension, and renewal with immutable
// supersession.
package certificate

import (
	"time"

	"agrocert/internal/compliance"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
)

// Status is the certificate's operational state. expired and
// renewal_required are derived from validity dates; suspended and withdrawn
// are explicit admin actions.
type Status string

const (
	StatusPendingApproval Status = "pending_approval"
	StatusActive          Status = "active"
	StatusExpired         Status = "expired"
	StatusSuspended       Status = "suspended"
	StatusWithdrawn       Status = "withdrawn"
	StatusRenewalRequired Status = "renewal_required"
)

// Certificate is one issued GGN certificate. Supersession is append-only: a
// renewal creates a new record and the old one is kept as history.
//
// Invariant: a certificate cannot be active while MajorMustCompliance is
// false or MinorMustCompliancePercentage is below 95.
type Certificate struct {
	ID                            id.CertificateID
	TenantID                      id.TenantID
	FarmID                        id.FarmID
	GGN                           id.GGN
	Status                        Status
	ValidFrom                     time.Time
	ValidUntil                    time.Time
	MajorMustCompliance           bool
	MinorMustCompliancePercentage float64
	RenewalNotificationSent       bool
	SupersededBy                  *id.CertificateID
	CreatedAt                     time.Time
}

// IsExpired reports whether the validity window has passed.
func (c Certificate) IsExpired(today time.Time) bool {
	return today.After(c.ValidUntil)
}

// DaysUntilExpiry is the number of whole days remaining; negative once
// expired.
func (c Certificate) DaysUntilExpiry(today time.Time) int {
	return int(c.ValidUntil.Sub(today).Hours() / 24)
}

// IsExpiringSoon is true iff the certificate is active and expires within
// the given number of days (exclusive of already-expired).
func (c Certificate) IsExpiringSoon(days int, today time.Time) bool {
	if c.Status != StatusActive {
		return false
	}
	remaining := c.DaysUntilExpiry(today)
	return remaining > 0 && remaining <= days
}

// CanActivate checks the compliance invariant gating activation.
func (c Certificate) CanActivate() error {
	if !c.MajorMustCompliance {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate cannot be active with unresolved major-must failures")
	}
	if c.MinorMustCompliancePercentage < compliance.MinorMustThreshold {
		return dErrors.New(dErrors.CodeInvariantViolation, "certificate cannot be active below 95% minor-must compliance")
	}
	return nil
}

// RenewalStatus tracks a renewal request's decision state.
type RenewalStatus string

const (
	RenewalPending  RenewalStatus = "pending"
	RenewalApproved RenewalStatus = "approved"
	RenewalRejected RenewalStatus = "rejected"
)

// Renewal is a request to supersede a certificate with a fresh validity
// window.
type Renewal struct {
	ID               id.RenewalID
	CertificateID    id.CertificateID
	RequestedBy      string
	RequestedAt      time.Time
	Status           RenewalStatus
	DecidedAt        *time.Time
	NewCertificateID *id.CertificateID
}
