package audit

import (
	"context"

	"github.com/stackaudit/stackaudit/pkg/deps"
	sterrors "github.com/stackaudit/stackaudit/pkg/errors"
)

// resolveTransitive fetches the transitive subgraph for every direct
// dependency. Dependencies declared without a concrete version are first
// pinned to the registry default version; packages that stay unknown keep
// an empty subgraph. Failures degrade to an empty subgraph for that
// dependency and are recorded as warnings; only context cancellation
// aborts the stage.
func (r *run) resolveTransitive(ctx context.Context, direct []*deps.Dependency) error {
	return runWaves(ctx, "resolve", direct, r.opts.BatchSize, r.opts.ConcurrentBatches, func(ctx context.Context, dep *deps.Dependency) {
		if dep.Version == deps.UnknownVersion {
			latest, err := r.latest.Get(ctx, dep.Ecosystem, dep.Name)
			if err != nil || latest == "" {
				if err != nil && ctx.Err() == nil {
					r.opts.Logger.Debug("default version lookup failed", "dep", dep.Name, "err", err)
				}
				dep.Transitive = &deps.Subgraph{}
				return
			}
			dep.Version = deps.NormalizeVersion(latest)
		}

		sub, err := r.graph.Resolve(ctx, dep.Ecosystem, dep.Name, dep.Version, r.opts.Refresh)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.opts.Logger.Warn("transitive resolution failed", "dep", dep.NameVersion(), "err", err)
			r.errs.add(sterrors.ErrCodeResolutionFailed, dep.NameVersion()+": "+err.Error())
			dep.Transitive = &deps.Subgraph{}
			return
		}
		dep.Transitive = sub
	})
}
