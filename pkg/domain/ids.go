// Package domain holds typed identifiers shared across services.
//
// IDs are distinct types over uuid.UUID so the compiler rejects passing a
// FarmID where a TenantID is expected. Construct them from external input via
// the Parse functions, which enforce the invariant that IDs are valid,
// non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "agrocert/pkg/domain-errors"
)

type TenantID uuid.UUID

type FarmID uuid.UUID

type ComplianceRecordID uuid.UUID

type NonConformityID uuid.UUID

type AuditResultID uuid.UUID

type CertificateID uuid.UUID

type RenewalID uuid.UUID

func (id TenantID) String() string { return uuid.UUID(id).String() }
func (id FarmID) String() string { return uuid.UUID(id).String() }
func (id ComplianceRecordID) String() string { return uuid.UUID(id).String() }
func (id NonConformityID) String() string { return uuid.UUID(id).String() }
func (id AuditResultID) String() string { return uuid.UUID(id).String() }
func (id CertificateID) String() string { return uuid.UUID(id).String() }
func (id RenewalID) String() string { return uuid.UUID(id).String() }

func (id TenantID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id FarmID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ComplianceRecordID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id NonConformityID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AuditResultID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CertificateID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RenewalID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Defined types do not inherit uuid.UUID's encoding methods, so without
// these the IDs would serialize as raw byte arrays in JSON payloads.
func (id TenantID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id FarmID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ComplianceRecordID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id NonConformityID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id AuditResultID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id CertificateID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id RenewalID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *TenantID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *FarmID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ComplianceRecordID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *NonConformityID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AuditResultID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CertificateID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RenewalID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func NewTenantID() TenantID { return TenantID(uuid.New()) }
func NewFarmID() FarmID { return FarmID(uuid.New()) }
func NewComplianceRecordID() ComplianceRecordID { return ComplianceRecordID(uuid.New()) }
func NewNonConformityID() NonConformityID { return NonConformityID(uuid.New()) }
func NewAuditResultID() AuditResultID { return AuditResultID(uuid.New()) }
func NewCertificateID() CertificateID { return CertificateID(uuid.New()) }
func NewRenewalID() RenewalID { return RenewalID(uuid.New()) }

// ParseTenantID constructs a TenantID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or the
// nil UUID; no other errors are expected.
func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s, "tenant id")
	return TenantID(u), err
}

func ParseFarmID(s string) (FarmID, error) {
	u, err := parseUUID(s, "farm id")
	return FarmID(u), err
}

func ParseComplianceRecordID(s string) (ComplianceRecordID, error) {
	u, err := parseUUID(s, "compliance record id")
	return ComplianceRecordID(u), err
}

func ParseNonConformityID(s string) (NonConformityID, error) {
	u, err := parseUUID(s, "non-conformity id")
	return NonConformityID(u), err
}

func ParseAuditResultID(s string) (AuditResultID, error) {
	u, err := parseUUID(s, "audit result id")
	return AuditResultID(u), err
}

func ParseCertificateID(s string) (CertificateID, error) {
	u, err := parseUUID(s, "certificate id")
	return CertificateID(u), err
}

func ParseRenewalID(s string) (RenewalID, error) {
	u, err := parseUUID(s, "renewal id")
	return RenewalID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be the nil UUID")
	}
	return u, nil
}
