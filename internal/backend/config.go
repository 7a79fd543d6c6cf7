package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/config"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
)

// FromAppConfig picks the storage backend settings out of the app config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	c := Config{
		Type:         BackendType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		LedgerKey:    appConfig.LedgerKey,
	}
	return c, c.Validate()
}

// MirrorFromAppConfig uses Google Sheets when a spreadsheet is configured.
func MirrorFromAppConfig(appConfig *config.Config) (MirrorConfig, error) {
	if appConfig == nil {
		return MirrorConfig{}, errors.New("app config is nil")
	}
	if !appConfig.SheetsEnabled() {
		return MirrorConfig{}, nil
	}
	if err := appConfig.ValidateSheets(); err != nil {
		return MirrorConfig{}, err
	}
	return MirrorConfig{
		Sheets: func(ctx context.Context) (sheets.Mirror, error) {
			cli, err := gsheet.NewFromConfig(ctx, appConfig)
			if err != nil {
				return nil, err
			}
			if err := cli.EnsureHeader(ctx); err != nil {
				return nil, fmt.Errorf("ensure header row: %w", err)
			}
			return cli, nil
		},
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type %q: must be one of %v", c.Type, GetBackendTypeStrings())
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	return nil
}

func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend}
}

func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
