package nonconformity

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "agrocert/pkg/domain"
	"agrocert/pkg/platform/sentinel"
)

// PostgresStore persists non-conformities in PostgreSQL. This store is pure
// I/O; severity derivation and resolution rules belong in the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, nc *NonConformity) error {
	query := `
		INSERT INTO non_conformities (
			id, tenant_id, farm_id, compliance_record_id, control_point_id,
			severity, description, corrective_action, deadline,
			resolved, resolved_at, resolution_notes, detected_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			severity = EXCLUDED.severity,
			description = EXCLUDED.description,
			corrective_action = EXCLUDED.corrective_action,
			deadline = EXCLUDED.deadline,
			resolved = EXCLUDED.resolved,
			resolved_at = EXCLUDED.resolved_at,
			resolution_notes = EXCLUDED.resolution_notes
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(nc.ID), uuid.UUID(nc.TenantID), uuid.UUID(nc.FarmID),
		uuid.UUID(nc.ComplianceRecordID), nc.ControlPointID,
		string(nc.Severity), nc.Description, nc.CorrectiveAction, nc.Deadline,
		nc.Resolved, nc.ResolvedAt, nc.ResolutionNotes, nc.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("save non-conformity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, ncID id.NonConformityID) (*NonConformity, error) {
	query := selectColumns + ` WHERE id = $1`
	nc, err := scanNonConformity(s.db.QueryRowContext(ctx, query, uuid.UUID(ncID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find non-conformity: %w", err)
	}
	return nc, nil
}

func (s *PostgresStore) ListByFarm(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) ([]*NonConformity, error) {
	query := selectColumns + ` WHERE tenant_id = $1 AND farm_id = $2 ORDER BY detected_at`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(farmID))
	if err != nil {
		return nil, fmt.Errorf("list non-conformities: %w", err)
	}
	defer rows.Close()

	var out []*NonConformity
	for rows.Next() {
		nc, err := scanNonConformity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan non-conformity: %w", err)
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}

const selectColumns = `
	SELECT id, tenant_id, farm_id, compliance_record_id, control_point_id,
	       severity, description, corrective_action, deadline,
	       resolved, resolved_at, resolution_notes, detected_at
	FROM non_conformities
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNonConformity(row rowScanner) (*NonConformity, error) {
	var (
		nc       NonConformity
		ncID     uuid.UUID
		tenantID uuid.UUID
		farmID   uuid.UUID
		recordID uuid.UUID
		severity string
	)
	err := row.Scan(
		&ncID, &tenantID, &farmID, &recordID, &nc.ControlPointID,
		&severity, &nc.Description, &nc.CorrectiveAction, &nc.Deadline,
		&nc.Resolved, &nc.ResolvedAt, &nc.ResolutionNotes, &nc.DetectedAt,
	)
	if err != nil {
		return nil, err
	}
	nc.ID = id.NonConformityID(ncID)
	nc.TenantID = id.TenantID(tenantID)
	nc.FarmID = id.FarmID(farmID)
	nc.ComplianceRecordID = id.ComplianceRecordID(recordID)
	nc.Severity = Severity(severity)
	return &nc, nil
}
