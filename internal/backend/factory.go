package backend

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"finalyze/internal/config"
	"finalyze/internal/log"
	gsheet "finalyze/internal/sheets/google"
	"finalyze/internal/sheets/memory"
)

const seedFile = "report_seed.json"

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new source factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default().With(log.FieldComponent, log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger}
}

// NewSource builds the report source selected by REPORT_SOURCE.
func NewSource(ctx context.Context, appConfig *config.Config, logger *slog.Logger) (*SourceResult, error) {
	cfg, err := FromAppConfig(appConfig)
	if err != nil {
		return nil, err
	}
	return NewFactory(logger).CreateSource(ctx, cfg)
}

// CreateSource implements Factory.CreateSource
func (f *DefaultFactory) CreateSource(ctx context.Context, config Config) (*SourceResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsSource:
		return f.createSheetsSource(ctx, config)
	case MemorySource:
		return f.createMemorySource(config)
	default:
		return nil, fmt.Errorf("unsupported report source: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsSource(ctx context.Context, config Config) (*SourceResult, error) {
	cli, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		DashboardSheet:  config.GoogleDashboardSheet,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets report source")
	return &SourceResult{Source: cli}, nil
}

func (f *DefaultFactory) createMemorySource(config Config) (*SourceResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	path := filepath.Join(dataDir, seedFile)

	store, err := memory.NewFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory report source: %w", err)
	}

	f.logger.Info("Initialized memory report source", "seed_file", path)
	return &SourceResult{Source: store}, nil
}
