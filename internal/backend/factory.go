package backend

import (
	"context"
	"fmt"

	"dompet/internal/amqp"
	"dompet/internal/cache"
	"dompet/internal/ledger"
	"dompet/internal/ledger/memory"
	"dompet/internal/log"
	"dompet/internal/metrics"
	"dompet/internal/services"
	"dompet/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewFactory creates a new backend factory. m may be nil.
func NewFactory(logger *log.Logger, m *metrics.Metrics) Factory {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &DefaultFactory{
		logger:  logger.WithComponent(log.ComponentBackend),
		metrics: m,
	}
}

// CreateBackend opens the store and wires the ledger service around it. A
// broker that cannot be reached is logged and skipped; writes then go
// unannounced until the next restart.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := OpenStore(config)
	if err != nil {
		return nil, err
	}

	opts := []services.Option{
		services.WithMetrics(f.metrics),
		services.WithLogger(f.logger),
	}

	var summaries *cache.SummaryCache
	if config.SummaryCacheSize > 0 {
		summaries = cache.NewSummaryCache(config.SummaryCacheSize, config.SummaryCacheTTL)
		opts = append(opts, services.WithSummaryCache(summaries))
	}

	amqpEnabled := false
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without ledger events", "error", err)
		} else {
			amqpEnabled = true
			opts = append(opts, services.WithPublisher(client))
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	svc := services.NewLedgerService(store, opts...)
	f.logger.InfoContext(ctx, "Initialized ledger backend",
		"backend", config.Type,
		"db_path", config.LedgerDBPath,
		"amqp_enabled", amqpEnabled,
		"summary_cache", summaries != nil)

	return &BackendResult{
		Service:   svc,
		Store:     store,
		Summaries: summaries,
		Cleanup:   svc.Close,
	}, nil
}

// OpenStore opens only the ledger store, for processes that read the ledger
// without writing through the service.
func OpenStore(config Config) (ledger.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.LedgerDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		return repo, nil
	case MemoryBackend:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
