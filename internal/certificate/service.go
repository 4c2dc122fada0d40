package certificate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"agrocert/internal/events"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
	"agrocert/pkg/platform/sentinel"
)

// renewedValidity is the validity window granted on renewal approval.
const renewedValidity = 365 * 24 * time.Hour

// Store persists certificates and renewal requests.
type Store interface {
	Save(ctx context.Context, cert *Certificate) error
	FindByID(ctx context.Context, certID id.CertificateID) (*Certificate, error)
	FindCurrentByFarm(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) (*Certificate, error)
	ListExpirable(ctx context.Context) ([]*Certificate, error)
	SaveRenewal(ctx context.Context, renewal *Renewal) error
	FindRenewalByID(ctx context.Context, renewalID id.RenewalID) (*Renewal, error)
}

// IssueInput carries everything needed to create a certificate in
// pending_approval.
type IssueInput struct {
	TenantID                      id.TenantID
	FarmID                        id.FarmID
	GGN                           id.GGN
	ValidFrom                     time.Time
	ValidUntil                    time.Time
	MajorMustCompliance           bool
	MinorMustCompliancePercentage float64
}

// Manager drives the certificate lifecycle.
type Manager struct {
	store     Store
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewManager(store Store, publisher events.Publisher, logger *slog.Logger) *Manager {
	return &Manager{store: store, publisher: publisher, logger: logger, now: time.Now}
}

// Issue creates a certificate in pending_approval. The compliance snapshot
// is recorded as-is; the activation invariant is only enforced on Approve.
func (m *Manager) Issue(ctx context.Context, input IssueInput) (*Certificate, error) {
	if input.TenantID.IsNil() || input.FarmID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "tenant and farm are required")
	}
	if _, err := id.ParseGGN(input.GGN.String()); err != nil {
		return nil, err
	}
	if !input.ValidUntil.After(input.ValidFrom) {
		return nil, dErrors.New(dErrors.CodeValidation, "validUntil must be after validFrom").WithField("valid_until")
	}
	if input.MinorMustCompliancePercentage < 0 || input.MinorMustCompliancePercentage > 100 {
		return nil, dErrors.New(dErrors.CodeValidation, "minor-must compliance percentage must be within [0,100]").
			WithField("minor_must_compliance_percentage")
	}

	cert := &Certificate{
		ID:                            id.NewCertificateID(),
		TenantID:                      input.TenantID,
		FarmID:                        input.FarmID,
		GGN:                           input.GGN,
		Status:                        StatusPendingApproval,
		ValidFrom:                     input.ValidFrom,
		ValidUntil:                    input.ValidUntil,
		MajorMustCompliance:           input.MajorMustCompliance,
		MinorMustCompliancePercentage: input.MinorMustCompliancePercentage,
		CreatedAt:                     m.now(),
	}
	if err := m.store.Save(ctx, cert); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save certificate")
	}
	return cert, nil
}

// Approve transitions pending_approval to active, enforcing the compliance
// invariant.
func (m *Manager) Approve(ctx context.Context, certID id.CertificateID) (*Certificate, error) {
	cert, err := m.get(ctx, certID)
	if err != nil {
		return nil, err
	}
	if cert.Status != StatusPendingApproval {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "only pending certificates can be approved")
	}
	if err := cert.CanActivate(); err != nil {
		return nil, err
	}
	cert.Status = StatusActive
	if err := m.store.Save(ctx, cert); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save certificate")
	}
	return cert, nil
}

// Suspend is an explicit admin action on an active certificate.
func (m *Manager) Suspend(ctx context.Context, certID id.CertificateID) (*Certificate, error) {
	return m.adminTransition(ctx, certID, StatusActive, StatusSuspended)
}

// Withdraw is an explicit admin action; terminal for the certificate.
func (m *Manager) Withdraw(ctx context.Context, certID id.CertificateID) (*Certificate, error) {
	cert, err := m.get(ctx, certID)
	if err != nil {
		return nil, err
	}
	if cert.Status == StatusWithdrawn {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "certificate is already withdrawn")
	}
	cert.Status = StatusWithdrawn
	if err := m.store.Save(ctx, cert); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save certificate")
	}
	return cert, nil
}

func (m *Manager) adminTransition(ctx context.Context, certID id.CertificateID, from, to Status) (*Certificate, error) {
	cert, err := m.get(ctx, certID)
	if err != nil {
		return nil, err
	}
	if cert.Status != from {
		return nil, dErrors.New(dErrors.CodeInvalidInput,
			"certificate must be "+string(from)+" to become "+string(to))
	}
	cert.Status = to
	if err := m.store.Save(ctx, cert); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save certificate")
	}
	return cert, nil
}

// RequestRenewal opens a renewal in pending status for an active or
// renewal_required certificate.
func (m *Manager) RequestRenewal(ctx context.Context, certID id.CertificateID, requestedBy string) (*Renewal, error) {
	if requestedBy == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "requester is required").WithField("requested_by")
	}
	cert, err := m.get(ctx, certID)
	if err != nil {
		return nil, err
	}
	if cert.Status != StatusActive && cert.Status != StatusRenewalRequired {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "only active certificates can be renewed")
	}

	renewal := &Renewal{
		ID:            id.NewRenewalID(),
		CertificateID: certID,
		RequestedBy:   requestedBy,
		RequestedAt:   m.now(),
		Status:        RenewalPending,
	}
	if err := m.store.SaveRenewal(ctx, renewal); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save renewal")
	}
	return renewal, nil
}

// ApproveRenewal creates the successor certificate and links the old one to
// it. The old record keeps its history unchanged apart from the supersession
// pointer; a fresh record carries the new validity window.
func (m *Manager) ApproveRenewal(ctx context.Context, renewalID id.RenewalID) (*Certificate, error) {
	renewal, err := m.getRenewal(ctx, renewalID)
	if err != nil {
		return nil, err
	}
	if renewal.Status != RenewalPending {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "renewal has already been decided")
	}
	old, err := m.get(ctx, renewal.CertificateID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	validFrom := now
	if old.ValidUntil.After(now) {
		validFrom = old.ValidUntil
	}
	successor := &Certificate{
		ID:                            id.NewCertificateID(),
		TenantID:                      old.TenantID,
		FarmID:                        old.FarmID,
		GGN:                           old.GGN,
		Status:                        StatusPendingApproval,
		ValidFrom:                     validFrom,
		ValidUntil:                    validFrom.Add(renewedValidity),
		MajorMustCompliance:           old.MajorMustCompliance,
		MinorMustCompliancePercentage: old.MinorMustCompliancePercentage,
		CreatedAt:                     now,
	}
	if err := m.store.Save(ctx, successor); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save successor certificate")
	}

	old.SupersededBy = &successor.ID
	if err := m.store.Save(ctx, old); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "link superseded certificate")
	}

	renewal.Status = RenewalApproved
	renewal.DecidedAt = &now
	renewal.NewCertificateID = &successor.ID
	if err := m.store.SaveRenewal(ctx, renewal); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save renewal")
	}

	m.publisher.Publish(ctx, events.Event{
		Type:     events.TypeCertificateRenewed,
		TenantID: old.TenantID,
		FarmID:   old.FarmID,
		Status:   string(successor.Status),
	})
	return successor, nil
}

// RejectRenewal closes a pending renewal without creating a successor.
func (m *Manager) RejectRenewal(ctx context.Context, renewalID id.RenewalID) (*Renewal, error) {
	renewal, err := m.getRenewal(ctx, renewalID)
	if err != nil {
		return nil, err
	}
	if renewal.Status != RenewalPending {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "renewal has already been decided")
	}
	now := m.now()
	renewal.Status = RenewalRejected
	renewal.DecidedAt = &now
	if err := m.store.SaveRenewal(ctx, renewal); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save renewal")
	}
	return renewal, nil
}

// SweepExpiries walks certificates whose expiry state can still change
// (active and renewal_required), flags those inside the renewal window as
// renewal_required, derives expired status for lapsed ones, and emits
// certificate.expiring at most once per certificate.
func (m *Manager) SweepExpiries(ctx context.Context, withinDays int) error {
	certs, err := m.store.ListExpirable(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "list expirable certificates")
	}
	today := m.now()
	for _, cert := range certs {
		next := cert.Status
		switch {
		case cert.IsExpired(today):
			next = StatusExpired
		case cert.IsExpiringSoon(withinDays, today):
			next = StatusRenewalRequired
		default:
			continue
		}
		if next == cert.Status && cert.RenewalNotificationSent {
			continue
		}
		cert.Status = next
		notify := !cert.RenewalNotificationSent
		cert.RenewalNotificationSent = true
		if err := m.store.Save(ctx, cert); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "save certificate")
		}
		if notify {
			m.publisher.Publish(ctx, events.Event{
				Type:     events.TypeCertificateExpiring,
				TenantID: cert.TenantID,
				FarmID:   cert.FarmID,
				Status:   string(cert.Status),
			})
		}
		m.logger.InfoContext(ctx, "certificate expiry state updated",
			"certificate_id", cert.ID.String(),
			"status", cert.Status,
			"days_until_expiry", cert.DaysUntilExpiry(today),
		)
	}
	return nil
}

// CurrentForFarm returns the newest certificate for a farm, or a not-found
// domain error when none was ever issued.
func (m *Manager) CurrentForFarm(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) (*Certificate, error) {
	cert, err := m.store.FindCurrentByFarm(ctx, tenantID, farmID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no certificate issued for this farm")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find certificate")
	}
	return cert, nil
}

func (m *Manager) get(ctx context.Context, certID id.CertificateID) (*Certificate, error) {
	cert, err := m.store.FindByID(ctx, certID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find certificate")
	}
	return cert, nil
}

func (m *Manager) getRenewal(ctx context.Context, renewalID id.RenewalID) (*Renewal, error) {
	renewal, err := m.store.FindRenewalByID(ctx, renewalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "renewal not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find renewal")
	}
	return renewal, nil
}
