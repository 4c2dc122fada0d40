package checklist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrocert/pkg/platform/sentinel"
)

func TestCatalogLookups(t *testing.T) {
	ctx := context.Background()
	catalog := NewInMemoryCatalog()
	require.NoError(t, catalog.Load(Seed()))

	t.Run("finds control point by id", func(t *testing.T) {
		cp, err := catalog.ByID(ctx, "CB.7.1.1")
		require.NoError(t, err)
		assert.Equal(t, CategoryCropProtection, cp.Category)
		assert.Equal(t, LevelMajorMust, cp.Level)
	})

	t.Run("returns ErrNotFound for unknown id", func(t *testing.T) {
		_, err := catalog.ByID(ctx, "ZZ.9.9.9")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("lists by category sorted by id", func(t *testing.T) {
		points, err := catalog.ListByCategory(ctx, CategoryCropProtection)
		require.NoError(t, err)
		require.Len(t, points, 3)
		assert.Equal(t, "CB.7.1.1", points[0].ID)
		assert.Equal(t, "CB.7.6.1", points[2].ID)
	})

	t.Run("rejects duplicate ids on load", func(t *testing.T) {
		err := catalog.Load([]ControlPoint{{ID: "AF.1.1.1", Level: LevelMajorMust}})
		require.ErrorIs(t, err, sentinel.ErrConflict)
	})
}

func TestParseComplianceLevel(t *testing.T) {
	t.Run("accepts known levels", func(t *testing.T) {
		l, err := ParseComplianceLevel("major_must")
		require.NoError(t, err)
		assert.Equal(t, LevelMajorMust, l)
	})

	t.Run("rejects empty and unknown values", func(t *testing.T) {
		_, err := ParseComplianceLevel("")
		require.Error(t, err)
		_, err = ParseComplianceLevel("critical_must")
		require.Error(t, err)
	})
}

func TestLocalizedTextFallback(t *testing.T) {
	text := LocalizedText{"en": "stored securely", "es": "almacenado de forma segura"}
	assert.Equal(t, "almacenado de forma segura", text.In("es"))
	assert.Equal(t, "stored securely", text.In("fr"))
}
