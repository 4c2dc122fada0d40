package compliance

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "agrocert/pkg/domain"
	"agrocert/pkg/platform/sentinel"
)

// PostgresRecordStore persists compliance records in PostgreSQL with an
// optimistic version guard. One current row per (tenant, farm).
type PostgresRecordStore struct {
	db *sql.DB
}

func NewPostgresRecordStore(db *sql.DB) *PostgresRecordStore {
	return &PostgresRecordStore{db: db}
}

func (s *PostgresRecordStore) Save(ctx context.Context, record *ComplianceRecord) error {
	// Version picks the arm. Version 0 may only create the row; a non-zero
	// version may only update the row it read. Either arm returning no row
	// means a concurrent writer won, never last-write-wins.
	if record.Version == 0 {
		return s.insert(ctx, record)
	}
	return s.update(ctx, record)
}

func (s *PostgresRecordStore) insert(ctx context.Context, record *ComplianceRecord) error {
	query := `
		INSERT INTO compliance_records (
			id, tenant_id, farm_id, overall_status, compliance_percentage,
			total_points, compliant_points, non_compliant_points,
			not_applicable_points, not_assessed_points,
			major_must_fails, minor_must_fails, assessment_date, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)
		ON CONFLICT (tenant_id, farm_id) DO NOTHING
		RETURNING version
	`
	var version int64
	err := s.db.QueryRowContext(ctx, query,
		uuid.UUID(record.ID), uuid.UUID(record.TenantID), uuid.UUID(record.FarmID),
		string(record.OverallStatus), record.CompliancePercentage,
		record.TotalPoints, record.CompliantPoints, record.NonCompliantPoints,
		record.NotApplicablePoints, record.NotAssessedPoints,
		record.MajorMustFails, record.MinorMustFails, record.AssessmentDate,
	).Scan(&version)
	if err != nil {
		if err == sql.ErrNoRows {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert compliance record: %w", err)
	}
	record.Version = version
	return nil
}

func (s *PostgresRecordStore) update(ctx context.Context, record *ComplianceRecord) error {
	query := `
		UPDATE compliance_records SET
			id = $3,
			overall_status = $4,
			compliance_percentage = $5,
			total_points = $6,
			compliant_points = $7,
			non_compliant_points = $8,
			not_applicable_points = $9,
			not_assessed_points = $10,
			major_must_fails = $11,
			minor_must_fails = $12,
			assessment_date = $13,
			version = version + 1
		WHERE tenant_id = $1 AND farm_id = $2 AND version = $14
		RETURNING version
	`
	var version int64
	err := s.db.QueryRowContext(ctx, query,
		uuid.UUID(record.TenantID), uuid.UUID(record.FarmID), uuid.UUID(record.ID),
		string(record.OverallStatus), record.CompliancePercentage,
		record.TotalPoints, record.CompliantPoints, record.NonCompliantPoints,
		record.NotApplicablePoints, record.NotAssessedPoints,
		record.MajorMustFails, record.MinorMustFails, record.AssessmentDate,
		record.Version,
	).Scan(&version)
	if err != nil {
		if err == sql.ErrNoRows {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update compliance record: %w", err)
	}
	record.Version = version
	return nil
}

func (s *PostgresRecordStore) FindByFarm(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) (*ComplianceRecord, error) {
	query := `
		SELECT id, tenant_id, farm_id, overall_status, compliance_percentage,
		       total_points, compliant_points, non_compliant_points,
		       not_applicable_points, not_assessed_points,
		       major_must_fails, minor_must_fails, assessment_date, version
		FROM compliance_records
		WHERE tenant_id = $1 AND farm_id = $2
	`
	var (
		record   ComplianceRecord
		recordID uuid.UUID
		tenant   uuid.UUID
		farm     uuid.UUID
		status   string
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(farmID)).Scan(
		&recordID, &tenant, &farm, &status, &record.CompliancePercentage,
		&record.TotalPoints, &record.CompliantPoints, &record.NonCompliantPoints,
		&record.NotApplicablePoints, &record.NotAssessedPoints,
		&record.MajorMustFails, &record.MinorMustFails, &record.AssessmentDate,
		&record.Version,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find compliance record: %w", err)
	}
	record.ID = id.ComplianceRecordID(recordID)
	record.TenantID = id.TenantID(tenant)
	record.FarmID = id.FarmID(farm)
	record.OverallStatus = OverallStatus(status)
	return &record, nil
}
