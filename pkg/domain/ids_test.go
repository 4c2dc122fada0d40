package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "agrocert/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// IDs must be valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseTenantID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseFarmID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseCertificateID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseTenantID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, TenantID(valid), id)
	})
}

// TestIDTextEncoding verifies IDs serialize as canonical UUID strings, not as
// raw byte arrays.
func TestIDTextEncoding(t *testing.T) {
	u := uuid.MustParse("4f3c6d36-2a1b-4c5d-8e9f-0a1b2c3d4e5f")

	t.Run("marshals to the UUID string", func(t *testing.T) {
		b, err := TenantID(u).MarshalText()
		require.NoError(t, err)
		assert.Equal(t, u.String(), string(b))
	})

	t.Run("JSON round-trips through the string form", func(t *testing.T) {
		payload := struct {
			Farm FarmID `json:"farm_id"`
		}{Farm: FarmID(u)}
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		assert.JSONEq(t, `{"farm_id":"`+u.String()+`"}`, string(raw))

		var decoded struct {
			Farm FarmID `json:"farm_id"`
		}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, FarmID(u), decoded.Farm)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety between ID kinds.
func TestTypeDistinction(t *testing.T) {
	tenantID := TenantID(uuid.New())
	farmID := FarmID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ TenantID = farmID // compile error

	assert.NotEqual(t, uuid.UUID(tenantID), uuid.UUID(farmID))
}
