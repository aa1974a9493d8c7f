package audit

import (
	"github.com/stackaudit/stackaudit/pkg/deps"
)

// filterGroups prunes the audited graph down to vulnerable content:
// subgraph nodes without vulnerabilities are dropped (the self node is
// always kept as the subgraph anchor), edges are remapped to the
// surviving nodes, and top-level dependencies with neither their own
// vulnerabilities nor vulnerable transitives disappear entirely.
// Manifests whose dependencies all filter out stay in the map with an
// empty group.
func filterGroups(groups map[string][]*deps.Dependency) map[string][]*deps.Dependency {
	filtered := make(map[string][]*deps.Dependency, len(groups))
	done := make(map[*deps.Dependency]bool)
	for path, group := range groups {
		kept := make([]*deps.Dependency, 0, len(group))
		for _, dep := range group {
			if !done[dep] {
				done[dep] = true
				dep.Transitive = filterSubgraph(dep.Transitive)
			}
			if dep.Vulnerable() || dep.HasVulnerableTransitives() {
				kept = append(kept, dep)
			}
		}
		filtered[path] = kept
	}
	return filtered
}

// filterSubgraph keeps the self node and every vulnerable node, then
// remaps the edges onto the new indices. Edges touching a dropped node
// are discarded; duplicates collapsing onto the same pair are deduped.
func filterSubgraph(sub *deps.Subgraph) *deps.Subgraph {
	if sub == nil || len(sub.Nodes) == 0 {
		return sub
	}

	remap := make(map[int]int)
	var nodes []deps.Dependency
	for i := range sub.Nodes {
		node := &sub.Nodes[i]
		if node.Relation != deps.RelationSelf && !node.Vulnerable() {
			continue
		}
		remap[i] = len(nodes)
		nodes = append(nodes, *node)
	}

	var edges []deps.Edge
	seen := make(map[[2]int]bool)
	for _, e := range sub.Edges {
		src, ok := remap[e.Source]
		if !ok {
			continue
		}
		dst, ok := remap[e.Target]
		if !ok {
			continue
		}
		pair := [2]int{src, dst}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		edges = append(edges, deps.Edge{Source: src, Target: dst, Requirement: e.Requirement})
	}

	return &deps.Subgraph{Nodes: nodes, Edges: edges}
}
