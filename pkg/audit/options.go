package audit

import (
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultBatchSize is the number of items grouped into one service
	// request batch.
	DefaultBatchSize = 50

	// DefaultConcurrentBatches is the number of batches in flight per wave.
	DefaultConcurrentBatches = 3

	// DefaultDetailBatchSize caps concurrent vulnerability detail fetches
	// per wave; the detail endpoint is stricter about rate limits than
	// querybatch.
	DefaultDetailBatchSize = 20

	// DefaultCacheTTL is how long external service responses stay cached.
	DefaultCacheTTL = 24 * time.Hour
)

// Options configures one audit run.
type Options struct {
	BatchSize         int           // Items per service request batch (default: 50)
	ConcurrentBatches int           // Batches in flight per wave (default: 3)
	DetailBatchSize   int           // Detail fetches per wave (default: 20)
	CacheTTL          time.Duration // External response cache duration (default: 24h)
	Refresh           bool          // Bypass cached responses for fresh data
	Logger            *log.Logger   // Structured logger (default: log.Default())
}

// WithDefaults returns a copy of Options with zero values replaced by
// defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.ConcurrentBatches <= 0 {
		opts.ConcurrentBatches = DefaultConcurrentBatches
	}
	if opts.DetailBatchSize <= 0 {
		opts.DetailBatchSize = DefaultDetailBatchSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}
