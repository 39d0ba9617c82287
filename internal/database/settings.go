package database

import (
	"strings"

	"smokedash/internal/models"

	"golang.org/x/text/language"
)

// GetSettings returns the shop settings with defaults filled in for any
// field an older settings file lacks.
func (db *DB) GetSettings(useCache bool) models.Settings {
	db.mu.Lock()
	defer db.mu.Unlock()

	s := readDoc[models.Settings](db, docSettings, useCache)
	def := models.DefaultSettings()
	if s.Theme == "" {
		s.Theme = def.Theme
	}
	if s.Currency == "" {
		s.Currency = def.Currency
	}
	if s.ShopName == "" {
		s.ShopName = def.ShopName
	}
	if s.Language == "" {
		s.Language = def.Language
	}
	return s
}

func (db *DB) SaveSettings(s models.Settings) (models.Settings, error) {
	s.Currency = strings.TrimSpace(s.Currency)
	s.ShopName = strings.TrimSpace(s.ShopName)
	if s.Currency == "" {
		return s, validationf("currency is required")
	}
	if s.ShopName == "" {
		return s, validationf("shop name is required")
	}
	if s.Theme != "dark" && s.Theme != "light" {
		return s, validationf("theme must be dark or light")
	}
	tag, err := language.Parse(s.Language)
	if err != nil {
		return s, validationf("language %q: %v", s.Language, err)
	}
	s.Language = tag.String()

	db.mu.Lock()
	defer db.mu.Unlock()
	if err := writeDoc(db, docSettings, s); err != nil {
		return s, err
	}
	return s, nil
}
