// Package backend selects and builds the seed source named by configuration.
package backend

import (
	"context"

	"financas/internal/seed"
)

// CleanupFunc releases resources held by a source.
type CleanupFunc func() error

// Pinger is implemented by sources that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendResult contains the source and an optional cleanup function.
type BackendResult struct {
	Source  seed.Source
	Cleanup CleanupFunc
}

// Factory creates seed sources based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleTransactionsSheet  string
	GoogleCategoriesSheet    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory backend specific
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
