package certificate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "agrocert/pkg/domain"
	"agrocert/pkg/platform/sentinel"
)

// PostgresStore persists certificates and renewals in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, cert *Certificate) error {
	var supersededBy any
	if cert.SupersededBy != nil {
		supersededBy = uuid.UUID(*cert.SupersededBy)
	}
	query := `
		INSERT INTO certificates (
			id, tenant_id, farm_id, ggn, status, valid_from, valid_until,
			major_must_compliance, minor_must_compliance_percentage,
			renewal_notification_sent, superseded_by, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			renewal_notification_sent = EXCLUDED.renewal_notification_sent,
			superseded_by = EXCLUDED.superseded_by
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(cert.ID), uuid.UUID(cert.TenantID), uuid.UUID(cert.FarmID),
		cert.GGN.String(), string(cert.Status), cert.ValidFrom, cert.ValidUntil,
		cert.MajorMustCompliance, cert.MinorMustCompliancePercentage,
		cert.RenewalNotificationSent, supersededBy, cert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, certID id.CertificateID) (*Certificate, error) {
	query := certColumns + ` WHERE id = $1`
	cert, err := scanCertificate(s.db.QueryRowContext(ctx, query, uuid.UUID(certID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return cert, nil
}

func (s *PostgresStore) FindCurrentByFarm(ctx context.Context, tenantID id.TenantID, farmID id.FarmID) (*Certificate, error) {
	query := certColumns + ` WHERE tenant_id = $1 AND farm_id = $2 ORDER BY created_at DESC LIMIT 1`
	cert, err := scanCertificate(s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(farmID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find current certificate: %w", err)
	}
	return cert, nil
}

func (s *PostgresStore) ListExpirable(ctx context.Context) ([]*Certificate, error) {
	query := certColumns + ` WHERE status IN ('active', 'renewal_required')`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list expirable certificates: %w", err)
	}
	defer rows.Close()

	var out []*Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		out = append(out, cert)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveRenewal(ctx context.Context, renewal *Renewal) error {
	var newCertID any
	if renewal.NewCertificateID != nil {
		newCertID = uuid.UUID(*renewal.NewCertificateID)
	}
	query := `
		INSERT INTO certificate_renewals (
			id, certificate_id, requested_by, requested_at, status, decided_at, new_certificate_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			decided_at = EXCLUDED.decided_at,
			new_certificate_id = EXCLUDED.new_certificate_id
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(renewal.ID), uuid.UUID(renewal.CertificateID),
		renewal.RequestedBy, renewal.RequestedAt, string(renewal.Status),
		renewal.DecidedAt, newCertID,
	)
	if err != nil {
		return fmt.Errorf("save renewal: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindRenewalByID(ctx context.Context, renewalID id.RenewalID) (*Renewal, error) {
	query := `
		SELECT id, certificate_id, requested_by, requested_at, status, decided_at, new_certificate_id
		FROM certificate_renewals
		WHERE id = $1
	`
	var (
		renewal   Renewal
		rID       uuid.UUID
		certID    uuid.UUID
		status    string
		newCertID *uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(renewalID)).Scan(
		&rID, &certID, &renewal.RequestedBy, &renewal.RequestedAt, &status,
		&renewal.DecidedAt, &newCertID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find renewal: %w", err)
	}
	renewal.ID = id.RenewalID(rID)
	renewal.CertificateID = id.CertificateID(certID)
	renewal.Status = RenewalStatus(status)
	if newCertID != nil {
		nc := id.CertificateID(*newCertID)
		renewal.NewCertificateID = &nc
	}
	return &renewal, nil
}

const certColumns = `
	SELECT id, tenant_id, farm_id, ggn, status, valid_from, valid_until,
	       major_must_compliance, minor_must_compliance_percentage,
	       renewal_notification_sent, superseded_by, created_at
	FROM certificates
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (*Certificate, error) {
	var (
		cert         Certificate
		certID       uuid.UUID
		tenantID     uuid.UUID
		farmID       uuid.UUID
		ggn          string
		status       string
		supersededBy *uuid.UUID
	)
	err := row.Scan(
		&certID, &tenantID, &farmID, &ggn, &status, &cert.ValidFrom, &cert.ValidUntil,
		&cert.MajorMustCompliance, &cert.MinorMustCompliancePercentage,
		&cert.RenewalNotificationSent, &supersededBy, &cert.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	cert.ID = id.CertificateID(certID)
	cert.TenantID = id.TenantID(tenantID)
	cert.FarmID = id.FarmID(farmID)
	cert.GGN = id.GGN(ggn)
	cert.Status = Status(status)
	if supersededBy != nil {
		sb := id.CertificateID(*supersededBy)
		cert.SupersededBy = &sb
	}
	return &cert, nil
}
