package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/karasuda/kakeibo/internal/common"
	"github.com/karasuda/kakeibo/internal/model"
	"github.com/karasuda/kakeibo/internal/service"
)

type defaultSetting struct {
	Value       model.SettingValue
	Description string
}

// defaultSettings is the compiled-in fallback table. Keys absent from storage
// resolve here at read time; the table itself is never persisted or torn
// down.
var defaultSettings = map[string]defaultSetting{
	"currency":           {model.StringValue("JPY"), "Display currency (ISO 4217 code)"},
	"language":           {model.StringValue("ja"), "Interface language"},
	"dateFormat":         {model.StringValue("2006-01-02"), "Date display format"},
	"theme":              {model.StringValue("light"), "Color theme"},
	"autoBackup":         {model.BoolValue(false), "Write a backup file after every data export"},
	"trashRetentionDays": {model.NumberValue(30), "Days a trashed record is kept before the sweep purges it"},
	"monthStartDay":      {model.NumberValue(1), "First day of the budgeting month"},
	"defaultTags":        {model.ArrayValue{}, "Tags suggested when recording a transaction"},
	"dashboard":          {model.JSONValue{V: map[string]any{"panels": []any{"summary", "recent"}}}, "Dashboard panel layout"},
}

// GetSetting returns the decoded value for a key: the stored entry when one
// exists, the compiled-in default otherwise. An unknown key returns nil with
// no error.
func (s *Store) GetSetting(ctx context.Context, key string) (model.SettingValue, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}

	settings, _, err := loadList[model.Setting](s, colSettings)
	if err != nil {
		return nil, err
	}
	for i := range settings {
		if settings[i].Key == key {
			value, err := model.DecodeSettingValue(settings[i].Value, settings[i].Type)
			if err != nil {
				return nil, fmt.Errorf("setting %q: %w", key, err)
			}
			return value, nil
		}
	}

	if def, ok := defaultSettings[key]; ok {
		return def.Value, nil
	}
	return nil, nil
}

// SetSetting validates and upserts a setting. An empty type or description is
// resolved from the stored entry or the default table; an unresolvable or
// unknown type is rejected.
func (s *Store) SetSetting(ctx context.Context, key string, value any, settingType model.SettingType, description string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}
	if settingType != "" && !settingType.Valid() {
		return fmt.Errorf("%w: unknown setting type %q", common.ErrValidation, settingType)
	}

	settings, version, err := loadList[model.Setting](s, colSettings)
	if err != nil {
		return err
	}

	idx := -1
	for i := range settings {
		if settings[i].Key == key {
			idx = i
			break
		}
	}

	if settingType == "" {
		switch {
		case idx >= 0:
			settingType = settings[idx].Type
		default:
			def, ok := defaultSettings[key]
			if !ok {
				return fmt.Errorf("%w: no declared type for setting %q", common.ErrValidation, key)
			}
			settingType = def.Value.SettingType()
		}
	}
	if description == "" {
		switch {
		case idx >= 0:
			description = settings[idx].Description
		default:
			if def, ok := defaultSettings[key]; ok {
				description = def.Description
			}
		}
	}

	tagged, err := model.ParseSettingValue(value, settingType)
	if err != nil {
		return fmt.Errorf("%w: setting %q: %v", common.ErrValidation, key, err)
	}
	raw, err := tagged.Encode()
	if err != nil {
		return fmt.Errorf("%w: setting %q: %v", common.ErrValidation, key, err)
	}

	entry := model.Setting{
		Key:         key,
		Value:       raw,
		Type:        settingType,
		Description: description,
		UpdatedAt:   s.now(),
	}
	if idx >= 0 {
		settings[idx] = entry
	} else {
		settings = append(settings, entry)
	}

	if err := saveList(s, colSettings, settings, version); err != nil {
		return err
	}
	slog.Debug("stored setting", "key", key, "type", settingType)
	return nil
}

// AllSettings returns the effective configuration: the default table overlaid
// with every stored entry. Stored entries that no longer decode are skipped.
func (s *Store) AllSettings(ctx context.Context) (map[string]model.SettingValue, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	out := make(map[string]model.SettingValue, len(defaultSettings))
	for key, def := range defaultSettings {
		out[key] = def.Value
	}

	settings, _, err := loadList[model.Setting](s, colSettings)
	if err != nil {
		return nil, err
	}
	for i := range settings {
		value, err := model.DecodeSettingValue(settings[i].Value, settings[i].Type)
		if err != nil {
			slog.Warn("skipping undecodable setting", "key", settings[i].Key, "error", err)
			continue
		}
		out[settings[i].Key] = value
	}
	return out, nil
}

// SetSettings applies multiple values through repeated single-key writes, in
// key order. There is no cross-key atomicity: keys written before a failure
// stay written, and all failures are joined into the returned error.
func (s *Store) SetSettings(ctx context.Context, values map[string]any) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		if err := s.SetSetting(ctx, k, values[k], "", ""); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ResetAllSettings removes every stored entry, so every key resolves to its
// compiled-in default again.
func (s *Store) ResetAllSettings(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	_, version, err := loadList[model.Setting](s, colSettings)
	if err != nil {
		return err
	}
	if err := saveList(s, colSettings, []model.Setting{}, version); err != nil {
		return err
	}
	slog.Info("reset all settings to defaults")
	return nil
}

// ExportSettings builds the settings interchange document from the effective
// configuration.
func (s *Store) ExportSettings(ctx context.Context) (*service.SettingsExport, error) {
	settings, err := s.exportedSettings(ctx)
	if err != nil {
		return nil, err
	}
	return &service.SettingsExport{
		ExportedAt: s.now(),
		Version:    exportVersion,
		Settings:   settings,
	}, nil
}

// exportedSettings renders the effective configuration with type and
// description per key.
func (s *Store) exportedSettings(ctx context.Context) (map[string]service.ExportedSetting, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	out := make(map[string]service.ExportedSetting, len(defaultSettings))
	for key, def := range defaultSettings {
		out[key] = service.ExportedSetting{
			Value:       def.Value.Native(),
			Type:        def.Value.SettingType(),
			Description: def.Description,
		}
	}

	settings, _, err := loadList[model.Setting](s, colSettings)
	if err != nil {
		return nil, err
	}
	for i := range settings {
		value, err := model.DecodeSettingValue(settings[i].Value, settings[i].Type)
		if err != nil {
			slog.Warn("skipping undecodable setting", "key", settings[i].Key, "error", err)
			continue
		}
		out[settings[i].Key] = service.ExportedSetting{
			Value:       value.Native(),
			Type:        settings[i].Type,
			Description: settings[i].Description,
		}
	}
	return out, nil
}

// ImportSettings applies an exported settings document key by key. Failed
// keys are collected in the report; keys already written stay written.
func (s *Store) ImportSettings(ctx context.Context, doc *service.SettingsExport) (*service.ImportReport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: settings document", ErrNilParameter)
	}

	keys := make([]string, 0, len(doc.Settings))
	for k := range doc.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	report := &service.ImportReport{}
	for _, k := range keys {
		entry := doc.Settings[k]
		if err := s.SetSetting(ctx, k, entry.Value, entry.Type, entry.Description); err != nil {
			report.Add("setting "+k, err)
			continue
		}
		report.Imported++
	}
	slog.Info("imported settings", "imported", report.Imported, "failed", len(report.Errors))
	return report, nil
}
