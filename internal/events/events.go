// Package events publishes fire-and-forget domain events. Publishing is a
// non-critical side channel: failures are logged and must never abort the
// originating operation.
package events

import (
	"context"
	"time"

	id "agrocert/pkg/domain"
)

// Type names follow the <aggregate>.<action> convention used on the bus.
type Type string

const (
	TypeComplianceUpdated      Type = "compliance.updated"
	TypeAuditCompleted         Type = "audit.completed"
	TypeNonConformanceDetected Type = "nonconformance.detected"
	TypeNonConformanceResolved Type = "nonconformance.resolved"
	TypeCertificateExpiring    Type = "certificate.expiring"
	TypeCertificateRenewed     Type = "certificate.renewed"
)

// Event is the envelope carried on the bus. Keep it transport-agnostic so
// publishers can fan out to different sinks.
type Event struct {
	Type          Type        `json:"type"`
	TenantID      id.TenantID `json:"tenant_id"`
	FarmID        id.FarmID   `json:"farm_id"`
	ControlPoint  string      `json:"control_point,omitempty"`
	Status        string      `json:"status,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

// Publisher emits domain events. Implementations must be safe for concurrent
// use and must not block the caller on broker availability.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close()
}

// Nop discards all events. Used in tests and when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
func (Nop) Close()                         {}
