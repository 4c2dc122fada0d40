package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "agrocert/pkg/domain-errors"
)

func TestParseGGN(t *testing.T) {
	t.Run("accepts 13 digits with the required prefix", func(t *testing.T) {
		ggn, err := ParseGGN("4063061891234")
		require.NoError(t, err)
		assert.Equal(t, "4063061891234", ggn.String())
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		for _, input := range []string{"", "40630618912", "40630618912345"} {
			_, err := ParseGGN(input)
			require.Error(t, err, input)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		}
	})

	t.Run("rejects non-digit content", func(t *testing.T) {
		_, err := ParseGGN("406306189123X")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		var de *dErrors.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "ggn", de.Field)
	})

	t.Run("rejects wrong leading digit", func(t *testing.T) {
		_, err := ParseGGN("5063061891234")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("errors carry a localized message", func(t *testing.T) {
		_, err := ParseGGN("123")
		require.Error(t, err)
		var de *dErrors.Error
		require.ErrorAs(t, err, &de)
		assert.NotEmpty(t, de.MessageIn("es"))
		assert.NotEqual(t, de.Message, de.MessageIn("es"))
	})
}
