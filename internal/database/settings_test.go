package database

import (
	"os"
	"path/filepath"
	"testing"

	"smokedash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveSettings(t *testing.T) {
	db := openTestDB(t)

	s := db.GetSettings(true)
	s.ShopName = " Corner Shop "
	s.Theme = "light"
	s.Language = "en-us"
	autoPrint := true
	s.AutoPrint = &autoPrint

	saved, err := db.SaveSettings(s)
	require.NoError(t, err)
	assert.Equal(t, "Corner Shop", saved.ShopName)
	assert.Equal(t, "en-US", saved.Language)

	got := db.GetSettings(true)
	assert.Equal(t, saved, got)
	require.NotNil(t, got.AutoPrint)
	assert.True(t, *got.AutoPrint)
}

func TestSaveSettings_Validation(t *testing.T) {
	db := openTestDB(t)

	tests := []struct {
		name   string
		mutate func(*models.Settings)
	}{
		{"empty currency", func(s *models.Settings) { s.Currency = " " }},
		{"empty shop name", func(s *models.Settings) { s.ShopName = "" }},
		{"unknown theme", func(s *models.Settings) { s.Theme = "neon" }},
		{"bad language", func(s *models.Settings) { s.Language = "not a tag!" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := models.DefaultSettings()
			tt.mutate(&s)
			_, err := db.SaveSettings(s)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Equal(t, models.DefaultSettings(), db.GetSettings(false))
}

func TestGetSettings_FillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, docSettings), []byte(`{"shop_name": "Old Shop"}`), 0o644))
	db := openTestDBAt(t, dir)

	s := db.GetSettings(false)
	assert.Equal(t, "Old Shop", s.ShopName)
	assert.Equal(t, "LYD", s.Currency)
	assert.Equal(t, "dark", s.Theme)
	assert.Equal(t, "ar", s.Language)
}
