package audit

import (
	"context"
	"sync"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

// latestMemo memoizes latest-version lookups for the lifetime of one audit
// run. Duplicate in-flight lookups for the same key are coalesced: the
// second caller waits on the first caller's entry instead of issuing its
// own request. The memo is created per run and discarded with it.
type latestMemo struct {
	lookup func(ctx context.Context, eco deps.Ecosystem, name string) (string, error)

	mu      sync.Mutex
	entries map[string]*latestEntry
}

type latestEntry struct {
	done    chan struct{}
	version string
	err     error
}

func newLatestMemo(lookup func(ctx context.Context, eco deps.Ecosystem, name string) (string, error)) *latestMemo {
	return &latestMemo{
		lookup:  lookup,
		entries: make(map[string]*latestEntry),
	}
}

// Get returns the latest known version for a package, issuing at most one
// underlying lookup per key regardless of concurrent callers.
func (m *latestMemo) Get(ctx context.Context, eco deps.Ecosystem, name string) (string, error) {
	key := string(eco) + ":" + name

	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		m.mu.Unlock()
		select {
		case <-e.done:
			return e.version, e.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	e := &latestEntry{done: make(chan struct{})}
	m.entries[key] = e
	m.mu.Unlock()

	e.version, e.err = m.lookup(ctx, eco, name)
	close(e.done)
	return e.version, e.err
}
