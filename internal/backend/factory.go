package backend

import (
	"context"
	"fmt"

	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	kv, err := storage.NewSQLiteKV(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{
		Type:    SQLiteBackend,
		Store:   storage.NewLedgerStore(kv, config.LedgerKey),
		Ready:   kv.Ping,
		Cleanup: kv.Close,
	}, nil
}

// createMemoryBackend keeps the ledger in process memory; it is lost on exit.
func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	kv := storage.NewMemoryKV()
	f.logger.Info("Initialized memory backend")
	return &BackendResult{
		Type:    MemoryBackend,
		Store:   storage.NewLedgerStore(kv, config.LedgerKey),
		Cleanup: kv.Close,
	}, nil
}

func (f *DefaultFactory) CreateMirror(ctx context.Context, config MirrorConfig) (sheets.Mirror, error) {
	if config.Sheets == nil {
		f.logger.InfoContext(ctx, "Sheets mirror disabled, mirroring to memory")
		return memory.New(), nil
	}
	m, err := config.Sheets(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets mirror: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets mirror")
	return m, nil
}
