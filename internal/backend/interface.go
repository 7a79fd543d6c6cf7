package backend

import (
	"context"

	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

type CleanupFunc func() error

// BackendResult is an opened ledger store plus what the process needs to
// check and release it.
type BackendResult struct {
	Type    BackendType
	Store   *storage.LedgerStore
	Ready   func(context.Context) error
	Cleanup CleanupFunc
}

// Factory opens storage and mirror backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	CreateMirror(ctx context.Context, config MirrorConfig) (sheets.Mirror, error)
}

type Config struct {
	Type         BackendType
	SQLiteDBPath string
	LedgerKey    string
}

// MirrorConfig selects the Sheets mirror; a nil Sheets config means the
// in-memory mirror.
type MirrorConfig struct {
	Sheets SheetsOpener
}

// SheetsOpener builds a Google Sheets mirror. It is a func so the factory
// stays testable without credentials.
type SheetsOpener func(ctx context.Context) (sheets.Mirror, error)

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
