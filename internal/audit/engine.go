package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"agrocert/internal/checklist"
	"agrocert/internal/compliance"
	"agrocert/internal/events"
	"agrocert/internal/nonconformity"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
	"agrocert/pkg/platform/sentinel"
)

// Store persists audit results. Results are insert-only.
type Store interface {
	Save(ctx context.Context, result *Result) error
	FindByID(ctx context.Context, resultID id.AuditResultID) (*Result, error)
	ListByFarm(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) ([]*Result, error)
}

// Engine is the audit engine. The pass/fail determination is a pure function
// of the compliance snapshot and findings; the engine adds persistence,
// recommendation ranking, and event emission.
type Engine struct {
	catalog   checklist.Catalog
	store     Store
	publisher events.Publisher
	logger    *slog.Logger
}

func NewEngine(catalog checklist.Catalog, store Store, publisher events.Publisher, logger *slog.Logger) *Engine {
	return &Engine{catalog: catalog, store: store, publisher: publisher, logger: logger}
}

// PrepareReport produces an audit result from a compliance record snapshot
// and the farm's open non-conformities.
//
// Outcome precedence, evaluated top-down:
//  1. critical findings or major-must failures: FAILED
//  2. compliance percentage below 95: CONDITIONAL
//  3. otherwise: PASSED
//
// Follow-up is required exactly when the audit did not pass, with a 90-day
// deadline.
func (e *Engine) PrepareReport(
	ctx context.Context,
	record *compliance.ComplianceRecord,
	nonConformities []*nonconformity.NonConformity,
	auditType Type,
	auditorName string,
) (*Result, error) {
	if record == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "compliance record is required")
	}
	if !validTypes[auditType] {
		return nil, dErrors.New(dErrors.CodeValidation, "unsupported audit type: "+string(auditType)).WithField("audit_type")
	}
	if auditorName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "auditor name is required").WithField("auditor_name")
	}

	findings := make(map[nonconformity.Severity]int, 4)
	for _, nc := range nonConformities {
		findings[nc.Severity]++
	}

	now := time.Now()
	result := &Result{
		ID:                 id.NewAuditResultID(),
		TenantID:           record.TenantID,
		FarmID:             record.FarmID,
		ComplianceRecordID: record.ID,
		AuditType:          auditType,
		AuditorName:        auditorName,
		AuditDate:          now,
		AuditStatus:        deriveStatus(record, findings),
		OverallScore:       record.CompliancePercentage,
		FindingsBySeverity: findings,
	}
	result.FollowUpRequired = result.AuditStatus != StatusPassed
	if result.FollowUpRequired {
		deadline := now.Add(followUpWindow)
		result.FollowUpDeadline = &deadline
	}
	recs, err := e.buildRecommendations(ctx, record, nonConformities)
	if err != nil {
		return nil, err
	}
	result.Recommendations = recs

	if err := e.store.Save(ctx, result); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save audit result")
	}

	e.publisher.Publish(ctx, events.Event{
		Type:     events.TypeAuditCompleted,
		TenantID: record.TenantID,
		FarmID:   record.FarmID,
		Status:   string(result.AuditStatus),
	})
	e.logger.InfoContext(ctx, "audit report prepared",
		"tenant_id", record.TenantID.String(),
		"farm_id", record.FarmID.String(),
		"audit_type", auditType,
		"status", result.AuditStatus,
		"score", result.OverallScore,
	)
	return result, nil
}

func deriveStatus(record *compliance.ComplianceRecord, findings map[nonconformity.Severity]int) Status {
	if findings[nonconformity.SeverityCritical] > 0 || record.MajorMustFails > 0 {
		return StatusFailed
	}
	if record.CompliancePercentage < compliance.MinorMustThreshold {
		return StatusConditional
	}
	return StatusPassed
}

// CertificationRecommendation computes certificate eligibility from an audit
// result and its compliance snapshot.
func (e *Engine) CertificationRecommendation(result *Result, record *compliance.ComplianceRecord) CertificationRecommendation {
	rec := CertificationRecommendation{Eligible: true}
	if result.AuditStatus != StatusPassed {
		rec.Eligible = false
		rec.Reasons = append(rec.Reasons, "audit status is "+string(result.AuditStatus))
	}
	if record.MajorMustFails > 0 {
		rec.Eligible = false
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("%d unresolved major-must failures", record.MajorMustFails))
	}
	if record.CompliancePercentage < compliance.MinorMustThreshold {
		rec.Eligible = false
		rec.Reasons = append(rec.Reasons,
			fmt.Sprintf("compliance at %.1f%% is below the %.0f%% threshold",
				record.CompliancePercentage, compliance.MinorMustThreshold))
	}
	return rec
}

// GetByID returns a stored audit result. Unlike farm-level reads, an audit
// requested by id that does not exist is a genuine not-found error.
func (e *Engine) GetByID(ctx context.Context, resultID id.AuditResultID) (*Result, error) {
	result, err := e.store.FindByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "audit result not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find audit result")
	}
	return result, nil
}

// ListByFarm returns a farm's audit history, newest first.
func (e *Engine) ListByFarm(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) ([]*Result, error) {
	results, err := e.store.ListByFarm(ctx, tenantID, farmID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list audit results")
	}
	return results, nil
}
