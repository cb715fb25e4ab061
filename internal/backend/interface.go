package backend

import (
	"context"
	"time"

	"dompet/internal/cache"
	"dompet/internal/ledger"
	"dompet/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult is a ready ledger service together with the parts it was
// built from. Cleanup closes the store and any broker connection.
type BackendResult struct {
	Service   *services.LedgerService
	Store     ledger.Store
	Summaries *cache.SummaryCache
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	LedgerDBPath string

	// Event publication, off when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Summary cache, off when SummaryCacheSize is zero
	SummaryCacheSize int
	SummaryCacheTTL  time.Duration
}

// BackendType represents the type of backend
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
