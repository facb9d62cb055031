package backend

import (
	"fmt"
	"path/filepath"

	"finalyze/internal/config"
)

// FromAppConfig converts the application config to a source config. The
// memory seed file lives next to the outbox database.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sourceType := SourceType(appConfig.ReportSource)
	if !sourceType.IsValid() {
		return Config{}, fmt.Errorf("invalid report source in config: %s", appConfig.ReportSource)
	}

	return Config{
		Type: sourceType,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleDashboardSheet:     appConfig.GoogleDashboardSheet,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,

		DataDirectory: filepath.Dir(appConfig.SQLiteDBPath),
	}, nil
}

// Validate validates the source configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid report source: %s", c.Type)
	}

	if c.Type == SheetsSource {
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets source")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			return fmt.Errorf("either GoogleServiceAccountJSON or GoogleServiceAccountFile must be provided for sheets source")
		}
	}
	return nil
}

// SourceTypes returns all valid source types
func SourceTypes() []SourceType {
	return []SourceType{MemorySource, SheetsSource}
}
