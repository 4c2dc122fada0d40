package compliance

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"agrocert/internal/checklist"
	"agrocert/internal/compliance/metrics"
	"agrocert/internal/events"
	"agrocert/internal/nonconformity"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
	"agrocert/pkg/platform/sentinel"
)

// RecordStore persists compliance records keyed by (tenant, farm).
type RecordStore interface {
	// Save writes the record when its Version matches the stored one (or the
	// record is new and Version is zero). Returns sentinel.ErrConflict on a
	// stale version.
	Save(ctx context.Context, record *ComplianceRecord) error
	FindByFarm(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) (*ComplianceRecord, error)
}

// FailureRecorder is the tracker port; failures surfaced by the engine are
// handed over so remediation tracking starts immediately.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, input nonconformity.FailureInput) (*nonconformity.NonConformity, error)
}

// Service is the compliance engine. Calculation itself is a pure function of
// the assessments and the catalog; persistence and non-conformity creation
// are side effects layered on top.
type Service struct {
	catalog   checklist.Catalog
	store     RecordStore
	tracker   FailureRecorder
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(
	catalog checklist.Catalog,
	store RecordStore,
	tracker FailureRecorder,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		catalog:   catalog,
		store:     store,
		tracker:   tracker,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Calculate derives the farm's compliance record from a full set of current
// assessments. Catalog points missing from the set count as not_assessed,
// which works against the percentage like a non-compliant point. An empty
// assessment set yields a zeroed NOT_ASSESSED record, never an error.
//
// Side effects: records a non-conformity per failed control point, persists
// the record with an optimistic version check, and emits compliance.updated.
//
// Errors: CodeValidation for tenant/farm mismatches or unknown control
// points; CodeConflict when a concurrent writer won the version race;
// persistence failures propagate unmodified.
func (s *Service) Calculate(ctx context.Context, tenantID id.TenantID, farmID id.FarmID, assessments []Assessment) (*ComplianceRecord, error) {
	if tenantID.IsNil() || farmID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "tenant and farm are required").WithField("tenant_id")
	}

	byPoint := make(map[string]Assessment, len(assessments))
	for _, a := range assessments {
		if a.TenantID != tenantID || a.FarmID != farmID {
			return nil, dErrors.New(dErrors.CodeValidation, "assessment does not belong to this tenant and farm").
				WithField("control_point_id: " + a.ControlPointID)
		}
		if !a.Status.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "unsupported assessment status: "+string(a.Status)).
				WithField("status")
		}
		if _, err := s.catalog.ByID(ctx, a.ControlPointID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeValidation, "unknown control point: "+a.ControlPointID).
					WithField("control_point_id")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "catalog lookup")
		}
		byPoint[a.ControlPointID] = a
	}

	record := &ComplianceRecord{
		ID:             id.NewComplianceRecordID(),
		TenantID:       tenantID,
		FarmID:         farmID,
		AssessmentDate: time.Now(),
	}

	var failures []checklist.ControlPoint
	if len(assessments) > 0 {
		points, err := s.catalog.All(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "catalog listing")
		}
		failures = s.tally(record, points, byPoint)
	} else {
		record.OverallStatus = OverallNotAssessed
	}

	if err := s.persist(ctx, record); err != nil {
		return nil, err
	}

	for _, cp := range failures {
		a := byPoint[cp.ID]
		if _, err := s.tracker.RecordFailure(ctx, nonconformity.FailureInput{
			TenantID:           tenantID,
			FarmID:             farmID,
			ComplianceRecordID: record.ID,
			ControlPoint:       cp,
			DetectedAt:         a.AssessedAt,
		}); err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.IncNonConformitiesDetected()
		}
	}

	if s.metrics != nil {
		s.metrics.IncCalculations(string(record.OverallStatus))
	}
	s.publisher.Publish(ctx, events.Event{
		Type:     events.TypeComplianceUpdated,
		TenantID: tenantID,
		FarmID:   farmID,
		Status:   string(record.OverallStatus),
	})
	s.logger.InfoContext(ctx, "compliance calculated",
		"tenant_id", tenantID.String(),
		"farm_id", farmID.String(),
		"status", record.OverallStatus,
		"percentage", record.CompliancePercentage,
		"major_must_fails", record.MajorMustFails,
	)
	return record, nil
}

// tally partitions the catalog's points by assessment status and fills the
// aggregate counters. Returns the control points that failed.
func (s *Service) tally(record *ComplianceRecord, points []checklist.ControlPoint, byPoint map[string]Assessment) []checklist.ControlPoint {
	var failures []checklist.ControlPoint
	record.TotalPoints = len(points)

	for _, cp := range points {
		a, assessed := byPoint[cp.ID]
		status := StatusNotAssessed
		if assessed {
			status = a.Status
		}
		switch status {
		case StatusCompliant:
			record.CompliantPoints++
		case StatusNotApplicable:
			record.NotApplicablePoints++
		case StatusNotAssessed:
			record.NotAssessedPoints++
		case StatusNonCompliant:
			record.NonCompliantPoints++
			switch cp.Level {
			case checklist.LevelMajorMust:
				record.MajorMustFails++
			case checklist.LevelMinorMust:
				record.MinorMustFails++
			}
			failures = append(failures, cp)
		}
	}

	applicable := record.TotalPoints - record.NotApplicablePoints
	if applicable > 0 {
		pct := float64(record.CompliantPoints) / float64(applicable) * 100
		record.CompliancePercentage = math.Round(pct*100) / 100
	}
	assessed := record.TotalPoints - record.NotApplicablePoints - record.NotAssessedPoints
	record.OverallStatus = deriveOverallStatus(record.MajorMustFails, record.CompliancePercentage, assessed)
	return failures
}

// persist saves the record carrying forward the stored version so concurrent
// recomputations surface as conflicts instead of lost writes.
func (s *Service) persist(ctx context.Context, record *ComplianceRecord) error {
	current, err := s.store.FindByFarm(ctx, record.TenantID, record.FarmID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	if current != nil {
		record.Version = current.Version
	}
	if err := s.store.Save(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "compliance record was updated concurrently")
		}
		return err
	}
	return nil
}

// CurrentRecord returns the stored record for a farm. A farm with no record
// yet gets a zeroed NOT_ASSESSED default rather than an error.
func (s *Service) CurrentRecord(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) (*ComplianceRecord, error) {
	record, err := s.store.FindByFarm(ctx, tenantID, farmID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &ComplianceRecord{
				TenantID:      tenantID,
				FarmID:        farmID,
				OverallStatus: OverallNotAssessed,
			}, nil
		}
		return nil, err
	}
	return record, nil
}
