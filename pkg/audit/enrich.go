package audit

import (
	"context"
	"sync"

	"github.com/stackaudit/stackaudit/pkg/deps"
	sterrors "github.com/stackaudit/stackaudit/pkg/errors"
	"github.com/stackaudit/stackaudit/pkg/integrations/osv"
)

// enrichItem is one distinct package@version to query, together with
// every dependency slot that identity occupies across the graph. Slots
// are disjoint across items, so wave goroutines write without locking.
type enrichItem struct {
	query osv.Query
	slots []*deps.Dependency
}

// enrich runs the two-phase vulnerability lookup: batched id discovery
// for every distinct package@version in the graph, then detail fetches
// for each distinct advisory id, merged back into every affected slot.
func (r *run) enrich(ctx context.Context) error {
	worklist := r.collectWorklist()
	if len(worklist) == 0 {
		return nil
	}

	discovered, err := r.discoverIDs(ctx, worklist)
	if err != nil {
		return err
	}
	if len(discovered) == 0 {
		return nil
	}

	details, err := r.fetchDetails(ctx, discovered)
	if err != nil {
		return err
	}

	mergeDetails(worklist, details)
	return nil
}

// collectWorklist walks every dependency slot (direct entries and their
// transitive nodes) and groups them by distinct ecosystem:name:version.
func (r *run) collectWorklist() []*enrichItem {
	index := make(map[string]*enrichItem)
	var order []*enrichItem

	add := func(slot *deps.Dependency) {
		if slot.Version == deps.UnknownVersion || slot.Ecosystem.OSVName() == "" {
			return
		}
		key := slot.Key()
		item, ok := index[key]
		if !ok {
			item = &enrichItem{query: osv.Query{
				Name:      slot.Name,
				Ecosystem: slot.Ecosystem,
				Version:   slot.Version,
			}}
			index[key] = item
			order = append(order, item)
		}
		item.slots = append(item.slots, slot)
	}

	for _, dep := range r.table.All() {
		add(dep)
		if dep.Transitive == nil {
			continue
		}
		for i := range dep.Transitive.Nodes {
			add(&dep.Transitive.Nodes[i])
		}
	}
	return order
}

// discoverIDs runs the batch queries and attaches placeholder records
// (id only) to every slot. It returns the distinct advisory ids found.
func (r *run) discoverIDs(ctx context.Context, worklist []*enrichItem) ([]string, error) {
	batches := chunk(worklist, r.opts.BatchSize)

	var mu sync.Mutex
	seen := make(map[string]bool)
	var ids []string

	err := runWaves(ctx, "enrich-query", batches, 1, r.opts.ConcurrentBatches, func(ctx context.Context, batch []*enrichItem) {
		queries := make([]osv.Query, len(batch))
		for i, item := range batch {
			queries[i] = item.query
		}

		results, err := r.vulns.QueryBatch(ctx, queries)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.opts.Logger.Warn("vulnerability query batch failed", "size", len(batch), "err", err)
			r.errs.add(sterrors.ErrCodeVulnLookupFailed, err.Error())
			return
		}

		for i, item := range batch {
			for _, id := range results[i] {
				for _, slot := range item.slots {
					attachPlaceholder(slot, id)
				}
				mu.Lock()
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
				mu.Unlock()
			}
		}
	})
	return ids, err
}

// attachPlaceholder records an advisory id on a slot unless already
// present. The slot is owned by exactly one wave goroutine.
func attachPlaceholder(slot *deps.Dependency, id string) {
	for i := range slot.Vulnerabilities {
		if slot.Vulnerabilities[i].ID == id {
			return
		}
	}
	slot.Vulnerabilities = append(slot.Vulnerabilities, deps.Vulnerability{ID: id})
}

// fetchDetails resolves every advisory id to its full record. Failed
// fetches leave the placeholder in place and record a warning.
func (r *run) fetchDetails(ctx context.Context, ids []string) (map[string]*deps.Vulnerability, error) {
	var mu sync.Mutex
	details := make(map[string]*deps.Vulnerability, len(ids))

	err := runWaves(ctx, "enrich-details", ids, r.opts.DetailBatchSize, 1, func(ctx context.Context, id string) {
		vuln, err := r.vulns.GetVuln(ctx, id, r.opts.Refresh)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.opts.Logger.Warn("vulnerability detail fetch failed", "id", id, "err", err)
			r.errs.add(sterrors.ErrCodeVulnLookupFailed, id+": "+err.Error())
			return
		}
		mu.Lock()
		details[id] = vuln
		mu.Unlock()
	})
	return details, err
}

// mergeDetails replaces placeholder records with per-slot copies of the
// full advisory. Copies keep slots independent for later mutation.
func mergeDetails(worklist []*enrichItem, details map[string]*deps.Vulnerability) {
	for _, item := range worklist {
		for _, slot := range item.slots {
			for i := range slot.Vulnerabilities {
				if full, ok := details[slot.Vulnerabilities[i].ID]; ok {
					slot.Vulnerabilities[i] = *full
				}
			}
		}
	}
}
