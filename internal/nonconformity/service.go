package nonconformity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"agrocert/internal/checklist"
	"agrocert/internal/events"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
	"agrocert/pkg/platform/sentinel"
)

// Store persists non-conformities. Implementations return sentinel errors for
// infrastructure facts; the service translates them into domain errors.
type Store interface {
	Save(ctx context.Context, nc *NonConformity) error
	FindByID(ctx context.Context, ncID id.NonConformityID) (*NonConformity, error)
	ListByFarm(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) ([]*NonConformity, error)
}

// FailureInput carries everything needed to record a failed control point.
// Severity is derived from the control point's compliance level unless
// explicitly overridden (manual recording).
type FailureInput struct {
	TenantID           id.TenantID
	FarmID             id.FarmID
	ComplianceRecordID id.ComplianceRecordID
	ControlPoint       checklist.ControlPoint
	Description        string
	Severity           Severity // optional override; zero value derives from level
	DetectedAt         time.Time
}

// Service is the non-conformity tracker.
type Service struct {
	store     Store
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(store Store, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, publisher: publisher, logger: logger}
}

// RecordFailure creates a non-conformity for a failed control point.
//
// Errors: CodeValidation for missing tenant/farm or control point; storage
// failures propagate wrapped with CodeInternal.
func (s *Service) RecordFailure(ctx context.Context, input FailureInput) (*NonConformity, error) {
	if input.TenantID.IsNil() || input.FarmID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "tenant and farm are required").WithField("tenant_id")
	}
	if input.ControlPoint.ID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "control point is required").WithField("control_point_id")
	}

	severity := input.Severity
	if severity == "" {
		severity = SeverityForLevel(input.ControlPoint.Level)
	}
	detectedAt := input.DetectedAt
	if detectedAt.IsZero() {
		detectedAt = time.Now()
	}
	description := input.Description
	if description == "" {
		description = input.ControlPoint.Text.In("en")
	}

	nc := &NonConformity{
		ID:                 id.NewNonConformityID(),
		TenantID:           input.TenantID,
		FarmID:             input.FarmID,
		ComplianceRecordID: input.ComplianceRecordID,
		ControlPointID:     input.ControlPoint.ID,
		Severity:           severity,
		Description:        description,
		Deadline:           correctiveActionDue(severity, detectedAt),
		DetectedAt:         detectedAt,
	}
	if err := s.store.Save(ctx, nc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save non-conformity")
	}

	s.publisher.Publish(ctx, events.Event{
		Type:         events.TypeNonConformanceDetected,
		TenantID:     input.TenantID,
		FarmID:       input.FarmID,
		ControlPoint: input.ControlPoint.ID,
		Status:       string(severity),
	})
	return nc, nil
}

// Resolve closes a non-conformity. Closing requires this explicit action;
// there is no implicit expiry.
//
// Errors: CodeNotFound when the id does not exist, CodeInvalidInput when it
// is already resolved.
func (s *Service) Resolve(ctx context.Context, ncID id.NonConformityID, notes string) (*NonConformity, error) {
	nc, err := s.store.FindByID(ctx, ncID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "non-conformity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find non-conformity")
	}
	if nc.Resolved {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "non-conformity already resolved")
	}

	now := time.Now()
	nc.Resolved = true
	nc.ResolvedAt = &now
	nc.ResolutionNotes = notes
	if err := s.store.Save(ctx, nc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save non-conformity")
	}

	s.publisher.Publish(ctx, events.Event{
		Type:         events.TypeNonConformanceResolved,
		TenantID:     nc.TenantID,
		FarmID:       nc.FarmID,
		ControlPoint: nc.ControlPointID,
		Status:       "resolved",
	})
	return nc, nil
}

// ListOpen returns unresolved non-conformities for a farm.
func (s *Service) ListOpen(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) ([]*NonConformity, error) {
	all, err := s.store.ListByFarm(ctx, tenantID, farmID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list non-conformities")
	}
	var open []*NonConformity
	for _, nc := range all {
		if !nc.Resolved {
			open = append(open, nc)
		}
	}
	return open, nil
}

// ListBySeverity filters a farm's non-conformities by severity.
func (s *Service) ListBySeverity(ctx context.Context, tenantID id.TenantID, farmID id.FarmID, severity Severity) ([]*NonConformity, error) {
	if !severity.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported severity: "+string(severity))
	}
	all, err := s.store.ListByFarm(ctx, tenantID, farmID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list non-conformities")
	}
	var out []*NonConformity
	for _, nc := range all {
		if nc.Severity == severity {
			out = append(out, nc)
		}
	}
	return out, nil
}
