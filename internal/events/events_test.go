package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "agrocert/pkg/domain"
)

func TestEventEnvelopeJSON(t *testing.T) {
	tenantID := id.NewTenantID()
	farmID := id.NewFarmID()
	event := Event{
		Type:          TypeComplianceUpdated,
		TenantID:      tenantID,
		FarmID:        farmID,
		ControlPoint:  "AF 1.1.1",
		Status:        "compliant",
		CorrelationID: "req-42",
		OccurredAt:    time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	// Consumers read tenant and farm as UUID strings, never byte arrays.
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, tenantID.String(), decoded["tenant_id"])
	assert.Equal(t, farmID.String(), decoded["farm_id"])
	assert.Equal(t, "compliance.updated", decoded["type"])
	assert.Equal(t, "AF 1.1.1", decoded["control_point"])
}
