package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"f1fantasy/internal/database"
	"f1fantasy/internal/models"
	"f1fantasy/internal/settings"

	"github.com/rs/zerolog/log"
)

// SettingsService reads and writes runtime settings, falling back to the
// catalogue defaults for keys that were never saved.
type SettingsService struct {
	db        *database.DB
	repos     *repos
	catalogue *settings.Catalogue
}

// SettingValue is a stored or default value with its definition
type SettingValue struct {
	settings.Definition
	Value     string
	IsDefault bool
}

// NewSettingsService creates a settings service. A nil catalogue uses the
// embedded default.
func NewSettingsService(db *database.DB, catalogue *settings.Catalogue) *SettingsService {
	if catalogue == nil {
		catalogue = settings.Default()
	}
	return &SettingsService{db: db, repos: bindRepos(db), catalogue: catalogue}
}

// Catalogue returns the settings catalogue
func (s *SettingsService) Catalogue() *settings.Catalogue {
	return s.catalogue
}

// Get returns the value for key, or its default
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	def, ok := s.catalogue.Lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	value, found, err := s.repos.settings.GetSetting(ctx, key)
	if err != nil {
		return "", err
	}
	if !found {
		return def.Default, nil
	}
	return value, nil
}

// Bool returns a boolean setting. Read failures fall back to the default.
func (s *SettingsService) Bool(ctx context.Context, key string) bool {
	value := s.valueOrDefault(ctx, key)
	b, err := strconv.ParseBool(value)
	if err != nil {
		def, _ := s.catalogue.Lookup(key)
		b, _ = strconv.ParseBool(def.Default)
	}
	return b
}

// Int returns an integer setting. Read failures fall back to the default.
func (s *SettingsService) Int(ctx context.Context, key string) int {
	value := s.valueOrDefault(ctx, key)
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		def, _ := s.catalogue.Lookup(key)
		n, _ = strconv.Atoi(def.Default)
	}
	return n
}

// String returns a string setting. Read failures fall back to the default.
func (s *SettingsService) String(ctx context.Context, key string) string {
	return s.valueOrDefault(ctx, key)
}

func (s *SettingsService) valueOrDefault(ctx context.Context, key string) string {
	value, err := s.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to read setting, using default")
		def, _ := s.catalogue.Lookup(key)
		return def.Default
	}
	return value
}

// List returns every setting in category with its effective value
func (s *SettingsService) List(ctx context.Context, category string) ([]SettingValue, error) {
	stored, err := s.repos.settings.ListSettings(ctx, category)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]string, len(stored))
	for _, st := range stored {
		byKey[st.Key] = st.Value
	}

	var values []SettingValue
	for _, def := range s.catalogue.InCategory(category) {
		v, ok := byKey[def.Key]
		if !ok {
			v = def.Default
		}
		values = append(values, SettingValue{Definition: def, Value: v, IsDefault: !ok})
	}
	return values, nil
}

// Set validates and stores one setting
func (s *SettingsService) Set(ctx context.Context, key, value string, updatedBy int64) error {
	def, ok := s.catalogue.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	value = strings.TrimSpace(value)
	if err := def.Validate(value); err != nil {
		return err
	}
	if def.Type == settings.TypeBool {
		b, _ := strconv.ParseBool(value)
		value = strconv.FormatBool(b)
	}

	setting := &models.Setting{
		Key:         key,
		Value:       value,
		Description: def.Description,
		Category:    def.Category,
		UpdatedBy:   &updatedBy,
	}
	if err := s.repos.settings.SetSetting(ctx, setting); err != nil {
		return err
	}
	log.Info().Str("key", key).Str("value", value).Int64("updated_by", updatedBy).Msg("Setting updated")
	return nil
}

// Update applies a category form in one pass. Every value is validated
// before any is stored. Boolean settings missing from values are stored as
// false, matching unchecked checkboxes.
func (s *SettingsService) Update(ctx context.Context, category string, values map[string]string, updatedBy int64) error {
	if !s.catalogue.HasCategory(category) {
		return fmt.Errorf("%w: category %s", ErrUnknownSetting, category)
	}

	defs := s.catalogue.InCategory(category)
	pending := make(map[string]string, len(defs))
	for _, def := range defs {
		v, ok := values[def.Key]
		if !ok {
			if def.Type != settings.TypeBool {
				continue
			}
			v = "false"
		}
		if def.Type == settings.TypeBool && (v == "on" || v == "1") {
			v = "true"
		}
		if err := def.Validate(strings.TrimSpace(v)); err != nil {
			return err
		}
		pending[def.Key] = v
	}

	return database.Run(ctx, s.db, bindRepos, func(r *repos) error {
		tx := &SettingsService{repos: r, catalogue: s.catalogue}
		for _, def := range defs {
			v, ok := pending[def.Key]
			if !ok {
				continue
			}
			if err := tx.Set(ctx, def.Key, v, updatedBy); err != nil {
				return err
			}
		}
		return nil
	})
}
