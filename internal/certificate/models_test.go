package certificate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "agrocert/pkg/domain-errors"
)

func TestCertificate_DateDerivation(t *testing.T) {
	today := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("expired when validity window has passed", func(t *testing.T) {
		cert := Certificate{ValidUntil: today.AddDate(0, 0, -1)}
		assert.True(t, cert.IsExpired(today))

		cert.ValidUntil = today.AddDate(0, 0, 1)
		assert.False(t, cert.IsExpired(today))
	})

	t.Run("expiring within 90 days but not within 30", func(t *testing.T) {
		cert := Certificate{
			Status:     StatusActive,
			ValidUntil: today.AddDate(0, 0, 45),
		}
		assert.True(t, cert.IsExpiringSoon(90, today))
		assert.False(t, cert.IsExpiringSoon(30, today))
	})

	t.Run("already expired is not expiring soon", func(t *testing.T) {
		cert := Certificate{
			Status:     StatusActive,
			ValidUntil: today.AddDate(0, 0, -5),
		}
		assert.False(t, cert.IsExpiringSoon(90, today))
	})

	t.Run("non-active status is never expiring soon", func(t *testing.T) {
		cert := Certificate{
			Status:     StatusSuspended,
			ValidUntil: today.AddDate(0, 0, 10),
		}
		assert.False(t, cert.IsExpiringSoon(90, today))
	})

	t.Run("days until expiry goes negative after the window", func(t *testing.T) {
		cert := Certificate{ValidUntil: today.AddDate(0, 0, -3)}
		assert.Equal(t, -3, cert.DaysUntilExpiry(today))
	})
}

func TestCertificate_CanActivate(t *testing.T) {
	t.Run("blocked by unresolved major-must failures", func(t *testing.T) {
		cert := Certificate{MajorMustCompliance: false, MinorMustCompliancePercentage: 100}
		err := cert.CanActivate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("blocked below the minor-must threshold", func(t *testing.T) {
		cert := Certificate{MajorMustCompliance: true, MinorMustCompliancePercentage: 94.99}
		err := cert.CanActivate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("allowed at the threshold", func(t *testing.T) {
		cert := Certificate{MajorMustCompliance: true, MinorMustCompliancePercentage: 95}
		assert.NoError(t, cert.CanActivate())
	})
}
