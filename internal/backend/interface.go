package backend

import (
	"context"
	"time"

	"viaggi/internal/sheets"
	"viaggi/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the repository and its cleanup function.
type BackendResult struct {
	Repository storage.Repository
	Cleanup    CleanupFunc
}

// Factory creates the storage and export backends named by configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateExporter returns the Google Sheets exporter when a spreadsheet
	// is configured, the in-memory exporter otherwise.
	CreateExporter(ctx context.Context, config Config) (sheets.BudgetExporter, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	SheetsRowCacheTTL        time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// ProcessLocal reports whether data in this backend lives only inside the
// current process.
func (bt BackendType) ProcessLocal() bool {
	return bt == MemoryBackend
}
