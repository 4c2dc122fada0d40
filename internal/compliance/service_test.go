package compliance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrocert/internal/checklist"
	"agrocert/internal/events"
	"agrocert/internal/nonconformity"
	id "agrocert/pkg/domain"
	dErrors "agrocert/pkg/domain-errors"
	"agrocert/pkg/platform/sentinel"
)

// fakeRecorder captures failures handed to the tracker port.
type fakeRecorder struct {
	failures []nonconformity.FailureInput
}

func (f *fakeRecorder) RecordFailure(_ context.Context, input nonconformity.FailureInput) (*nonconformity.NonConformity, error) {
	f.failures = append(f.failures, input)
	return &nonconformity.NonConformity{ID: id.NewNonConformityID()}, nil
}

type fixture struct {
	svc      *Service
	store    *InMemoryRecordStore
	recorder *fakeRecorder
	tenantID id.TenantID
	farmID   id.FarmID
	points   []checklist.ControlPoint
}

// newFixture builds a catalog with the given number of major-must and
// minor-must points and a service wired to in-memory collaborators.
func newFixture(t *testing.T, majorMust, minorMust int) *fixture {
	t.Helper()
	var points []checklist.ControlPoint
	for i := 0; i < majorMust; i++ {
		points = append(points, checklist.ControlPoint{
			ID:       fmt.Sprintf("AF.1.%d.1", i+1),
			Category: checklist.CategoryFoodSafety,
			Level:    checklist.LevelMajorMust,
		})
	}
	for i := 0; i < minorMust; i++ {
		points = append(points, checklist.ControlPoint{
			ID:       fmt.Sprintf("CB.2.%d.1", i+1),
			Category: checklist.CategoryRecordKeeping,
			Level:    checklist.LevelMinorMust,
		})
	}
	catalog := checklist.NewInMemoryCatalog()
	require.NoError(t, catalog.Load(points))

	store := NewInMemoryRecordStore()
	recorder := &fakeRecorder{}
	svc := NewService(catalog, store, recorder, events.Nop{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return &fixture{
		svc:      svc,
		store:    store,
		recorder: recorder,
		tenantID: id.TenantID(uuid.New()),
		farmID:   id.FarmID(uuid.New()),
		points:   points,
	}
}

func (f *fixture) assess(cpID string, status AssessmentStatus) Assessment {
	return Assessment{
		TenantID:       f.tenantID,
		FarmID:         f.farmID,
		ControlPointID: cpID,
		Status:         status,
		Assessor:       "j.perez",
		AssessedAt:     time.Now(),
	}
}

// assessAll returns one assessment per catalog point with the given default
// status, overridden per control point id.
func (f *fixture) assessAll(def AssessmentStatus, overrides map[string]AssessmentStatus) []Assessment {
	var out []Assessment
	for _, cp := range f.points {
		status := def
		if o, ok := overrides[cp.ID]; ok {
			status = o
		}
		out = append(out, f.assess(cp.ID, status))
	}
	return out
}

func TestCalculate_ThresholdModel(t *testing.T) {
	ctx := context.Background()

	t.Run("two minor must failures yield partially compliant at 80 percent", func(t *testing.T) {
		f := newFixture(t, 8, 2)
		record, err := f.svc.Calculate(ctx, f.tenantID, f.farmID, f.assessAll(StatusCompliant, map[string]AssessmentStatus{
			"CB.2.1.1": StatusNonCompliant,
			"CB.2.2.1": StatusNonCompliant,
		}))
		require.NoError(t, err)
		assert.Equal(t, OverallPartiallyCompliant, record.OverallStatus)
		assert.InDelta(t, 80.0, record.CompliancePercentage, 0.001)
		assert.Equal(t, 0, record.MajorMustFails)
		assert.Equal(t, 2, record.MinorMustFails)
		assert.Equal(t, 10, record.TotalPoints)
		assert.Equal(t, 8, record.CompliantPoints)
		assert.Equal(t, 2, record.NonCompliantPoints)
	})

	t.Run("a single major must failure is disqualifying regardless of percentage", func(t *testing.T) {
		f := newFixture(t, 8, 2)
		record, err := f.svc.Calculate(ctx, f.tenantID, f.farmID, f.assessAll(StatusCompliant, map[string]AssessmentStatus{
			"AF.1.1.1": StatusNonCompliant,
		}))
		require.NoError(t, err)
		assert.Equal(t, OverallNonCompliant, record.OverallStatus)
		assert.Equal(t, 1, record.MajorMustFails)
		assert.InDelta(t, 90.0, record.CompliancePercentage, 0.001)
	})

	t.Run("everything compliant crosses the 95 percent threshold", func(t *testing.T) {
		f := newFixture(t, 8, 2)
		record, err := f.svc.Calculate(ctx, f.tenantID, f.farmID, f.assessAll(StatusCompliant, nil))
		require.NoError(t, err)
		assert.Equal(t, OverallCompliant, record.OverallStatus)
		assert.InDelta(t, 100.0, record.CompliancePercentage, 0.001)
	})

	t.Run("not applicable points are excluded from the denominator", func(t *testing.T) {
		f := newFixture(t, 8, 2)
		record, err := f.svc.Calculate(ctx, f.tenantID, f.farmID, f.assessAll(StatusCompliant, map[string]AssessmentStatus{
			"CB.2.1.1": StatusNotApplicable,
			"CB.2.2.1": StatusNotApplicable,
		}))
		require.NoError(t, err)
		// 8 compliant of 8 applicable.
		assert.InDelta(t, 100.0, record.CompliancePercentage, 0.001)
		assert.Equal(t, OverallCompliant, record.OverallStatus)
		assert.Equal(t, 2, record.NotApplicablePoints)
	})

	t.Run("missing assessments count against the percentage", func(t *testing.T) {
		f := newFixture(t, 8, 2)
		// Only 8 of 10 points assessed; the two missing minor musts drag the
		// percentage to 80 without counting as explicit failures.
		var partial []Assessment
		for _, cp := range f.points[:8] {
			partial = append(partial, f.assess(cp.ID, StatusCompliant))
		}
		record, err := f.svc.Calculate(ctx, f.tenantID, f.farmID, partial)
		require.NoError(t, err)
		assert.InDelta(t, 80.0, record.CompliancePercentage, 0.001)
		assert.Equal(t, 2, record.NotAssessedPoints)
		assert.Equal(t, 0, record.MinorMustFails)
		assert.Equal(t, OverallPartiallyCompliant, record.OverallStatus)
	})

	t.Run("empty input returns zeroed not assessed record", func(t *testing.T) {
		f := newFixture(t, 8, 2)
		record, err := f.svc.Calculate(ctx, f.tenantID, f.farmID, nil)
		require.NoError(t, err)
		assert.Equal(t, OverallNotAssessed, record.OverallStatus)
		assert.Zero(t, record.CompliancePercentage)
		assert.Zero(t, record.TotalPoints)
	})
}

func TestCalculate_Properties(t *testing.T) {
	ctx := context.Background()

	t.Run("percentage stays within bounds and recomputation is idempotent", func(t *testing.T) {
		f := newFixture(t, 5, 5)
		assessments := f.assessAll(StatusCompliant, map[string]AssessmentStatus{
			"CB.2.1.1": StatusNonCompliant,
			"CB.2.3.1": StatusNotApplicable,
		})
		first, err := f.svc.Calculate(ctx, f.tenantID, f.farmID, assessments)
		require.NoError(t, err)
		second, err := f.svc.Calculate(ctx, f.tenantID, f.farmID, assessments)
		require.NoError(t, err)

		for _, record := range []*ComplianceRecord{first, second} {
			assert.GreaterOrEqual(t, record.CompliancePercentage, 0.0)
			assert.LessOrEqual(t, record.CompliancePercentage, 100.0)
		}
		assert.Equal(t, first.OverallStatus, second.OverallStatus)
		assert.Equal(t, first.CompliancePercentage, second.CompliancePercentage)
		assert.Equal(t, first.MajorMustFails, second.MajorMustFails)
	})
}

func TestCalculate_SideEffects(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a non-conformity per failed point", func(t *testing.T) {
		f := newFixture(t, 8, 2)
		record, err := f.svc.Calculate(ctx, f.tenantID, f.farmID, f.assessAll(StatusCompliant, map[string]AssessmentStatus{
			"AF.1.1.1": StatusNonCompliant,
			"CB.2.1.1": StatusNonCompliant,
		}))
		require.NoError(t, err)
		require.Len(t, f.recorder.failures, 2)
		for _, failure := range f.recorder.failures {
			assert.Equal(t, record.ID, failure.ComplianceRecordID)
			assert.Equal(t, f.tenantID, failure.TenantID)
		}
	})

	t.Run("persists the current record per farm", func(t *testing.T) {
		f := newFixture(t, 2, 0)
		_, err := f.svc.Calculate(ctx, f.tenantID, f.farmID, f.assessAll(StatusCompliant, nil))
		require.NoError(t, err)

		stored, err := f.store.FindByFarm(ctx, f.tenantID, f.farmID)
		require.NoError(t, err)
		assert.Equal(t, OverallCompliant, stored.OverallStatus)
		assert.EqualValues(t, 1, stored.Version)
	})
}

func TestCalculate_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects assessments from another farm", func(t *testing.T) {
		f := newFixture(t, 2, 0)
		a := f.assess("AF.1.1.1", StatusCompliant)
		a.FarmID = id.FarmID(uuid.New())
		_, err := f.svc.Calculate(ctx, f.tenantID, f.farmID, []Assessment{a})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects unknown control points", func(t *testing.T) {
		f := newFixture(t, 2, 0)
		_, err := f.svc.Calculate(ctx, f.tenantID, f.farmID, []Assessment{f.assess("ZZ.9.9.9", StatusCompliant)})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects nil tenant", func(t *testing.T) {
		f := newFixture(t, 2, 0)
		_, err := f.svc.Calculate(ctx, id.TenantID{}, f.farmID, nil)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestRecordStore_VersionConflict(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryRecordStore()
	tenantID := id.TenantID(uuid.New())
	farmID := id.FarmID(uuid.New())

	fresh := &ComplianceRecord{ID: id.NewComplianceRecordID(), TenantID: tenantID, FarmID: farmID}
	require.NoError(t, store.Save(ctx, fresh))
	require.EqualValues(t, 1, fresh.Version)

	stale := &ComplianceRecord{ID: id.NewComplianceRecordID(), TenantID: tenantID, FarmID: farmID, Version: 0}
	err := store.Save(ctx, stale)
	require.ErrorIs(t, err, sentinel.ErrConflict)

	next := &ComplianceRecord{ID: id.NewComplianceRecordID(), TenantID: tenantID, FarmID: farmID, Version: 1}
	require.NoError(t, store.Save(ctx, next))
	require.EqualValues(t, 2, next.Version)

	// A non-zero version presumes a row that was read; with no row for the
	// farm it must conflict, not create.
	phantom := &ComplianceRecord{
		ID:       id.NewComplianceRecordID(),
		TenantID: id.TenantID(uuid.New()),
		FarmID:   id.FarmID(uuid.New()),
		Version:  3,
	}
	require.ErrorIs(t, store.Save(ctx, phantom), sentinel.ErrConflict)
}

func TestCurrentRecord_DefaultsToNotAssessed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1, 0)

	record, err := f.svc.CurrentRecord(ctx, f.tenantID, f.farmID)
	require.NoError(t, err)
	assert.Equal(t, OverallNotAssessed, record.OverallStatus)
	assert.Zero(t, record.CompliancePercentage)
}
