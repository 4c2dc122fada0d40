package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "agrocert/pkg/domain"
	"agrocert/pkg/platform/sentinel"
)

// PostgresStore persists audit results in PostgreSQL. Insert-only; findings
// and recommendations are stored as JSONB since they are read back whole.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, result *Result) error {
	findings, err := json.Marshal(result.FindingsBySeverity)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}
	recommendations, err := json.Marshal(result.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	query := `
		INSERT INTO audit_results (
			id, tenant_id, farm_id, compliance_record_id, audit_type,
			auditor_name, audit_date, audit_status, overall_score,
			findings_by_severity, recommendations,
			follow_up_required, follow_up_deadline
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(result.ID), uuid.UUID(result.TenantID), uuid.UUID(result.FarmID),
		uuid.UUID(result.ComplianceRecordID), string(result.AuditType),
		result.AuditorName, result.AuditDate, string(result.AuditStatus), result.OverallScore,
		findings, recommendations,
		result.FollowUpRequired, result.FollowUpDeadline,
	)
	if err != nil {
		return fmt.Errorf("save audit result: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, resultID id.AuditResultID) (*Result, error) {
	query := selectColumns + ` WHERE id = $1`
	result, err := scanResult(s.db.QueryRowContext(ctx, query, uuid.UUID(resultID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find audit result: %w", err)
	}
	return result, nil
}

func (s *PostgresStore) ListByFarm(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) ([]*Result, error) {
	query := selectColumns + ` WHERE tenant_id = $1 AND farm_id = $2 ORDER BY audit_date DESC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(farmID))
	if err != nil {
		return nil, fmt.Errorf("list audit results: %w", err)
	}
	defer rows.Close()

	var out []*Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit result: %w", err)
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

const selectColumns = `
	SELECT id, tenant_id, farm_id, compliance_record_id, audit_type,
	       auditor_name, audit_date, audit_status, overall_score,
	       findings_by_severity, recommendations,
	       follow_up_required, follow_up_deadline
	FROM audit_results
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*Result, error) {
	var (
		result          Result
		resultID        uuid.UUID
		tenantID        uuid.UUID
		farmID          uuid.UUID
		recordID        uuid.UUID
		auditType       string
		status          string
		findings        []byte
		recommendations []byte
	)
	err := row.Scan(
		&resultID, &tenantID, &farmID, &recordID, &auditType,
		&result.AuditorName, &result.AuditDate, &status, &result.OverallScore,
		&findings, &recommendations,
		&result.FollowUpRequired, &result.FollowUpDeadline,
	)
	if err != nil {
		return nil, err
	}
	result.ID = id.AuditResultID(resultID)
	result.TenantID = id.TenantID(tenantID)
	result.FarmID = id.FarmID(farmID)
	result.ComplianceRecordID = id.ComplianceRecordID(recordID)
	result.AuditType = Type(auditType)
	result.AuditStatus = Status(status)
	if err := json.Unmarshal(findings, &result.FindingsBySeverity); err != nil {
		return nil, fmt.Errorf("unmarshal findings: %w", err)
	}
	if err := json.Unmarshal(recommendations, &result.Recommendations); err != nil {
		return nil, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	return &result, nil
}
