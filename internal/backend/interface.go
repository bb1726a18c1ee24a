package backend

import (
	"context"

	"github.com/BurairCodes/Expense-tracker/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store chosen at startup and its cleanup function
type BackendResult struct {
	Store store.Store
	// Type is the backend actually in use, which differs from the requested
	// one when a durable store was unavailable.
	Type BackendType
	// Degraded is set when the requested durable store could not be opened.
	Degraded bool
	Cleanup  CleanupFunc
}

// Factory creates stores based on configuration
type Factory interface {
	// CreateBackend opens the configured store once. A durable store that
	// cannot be opened degrades to the memory store.
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Badger specific
	BadgerPath string

	// Memory backend seed fixtures
	SeedFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	BadgerBackend BackendType = "badger"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, BadgerBackend:
		return true
	default:
		return false
	}
}

// IsDurable reports whether records survive a restart.
func (bt BackendType) IsDurable() bool {
	return bt == SQLiteBackend || bt == BadgerBackend
}
