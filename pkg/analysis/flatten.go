// Package analysis implements the intelligence analyzers that run over a
// filtered audit result: priority scoring, transitive impact, version
// conflicts, quick wins, and critical paths. All analyzers are pure
// functions over the flattened dependency view and can run concurrently.
package analysis

import (
	"github.com/stackaudit/stackaudit/pkg/audit"
	"github.com/stackaudit/stackaudit/pkg/deps"
)

// Dependency levels in the flattened view.
const (
	LevelDirect     = "direct"
	LevelTransitive = "transitive"
)

// FlattenedDependency is one occurrence of a package in the audited
// graph, positioned by manifest file and introduction chain.
type FlattenedDependency struct {
	Name            string               `json:"name"`
	Version         string               `json:"version"`
	Ecosystem       deps.Ecosystem       `json:"ecosystem"`
	FilePath        string               `json:"filePath"`
	Level           string               `json:"dependencyLevel"`
	Parent          string               `json:"parent,omitempty"`
	Chain           string               `json:"chain"`
	Depth           int                  `json:"depth"`
	UsageFrequency  int                  `json:"usageFrequency"`
	Vulnerabilities []deps.Vulnerability `json:"vulnerabilities,omitempty"`
}

// Flatten expands the per-manifest dependency groups into a flat list:
// each direct dependency followed by its transitive nodes, in manifest
// discovery order. Transitive depth and parent come from a breadth-first
// walk of each subgraph starting at the self node; nodes left unreachable
// by filtering fall back to depth 1 under the direct dependency.
func Flatten(res *audit.Result) []FlattenedDependency {
	var out []FlattenedDependency
	for _, path := range res.Paths {
		for _, dep := range res.Dependencies[path] {
			out = append(out, FlattenedDependency{
				Name:            dep.Name,
				Version:         dep.Version,
				Ecosystem:       dep.Ecosystem,
				FilePath:        path,
				Level:           LevelDirect,
				Chain:           path + " > " + dep.Name,
				Vulnerabilities: dep.Vulnerabilities,
			})
			out = append(out, flattenSubgraph(path, dep)...)
		}
	}

	usage := make(map[string]int)
	for i := range out {
		usage[out[i].Name+"@"+out[i].Version]++
	}
	for i := range out {
		out[i].UsageFrequency = usage[out[i].Name+"@"+out[i].Version]
	}
	return out
}

func flattenSubgraph(path string, dep *deps.Dependency) []FlattenedDependency {
	sub := dep.Transitive
	if sub == nil || len(sub.Nodes) == 0 {
		return nil
	}

	depth, parent := walkFromSelf(sub)

	var out []FlattenedDependency
	for i := range sub.Nodes {
		node := &sub.Nodes[i]
		if node.Relation == deps.RelationSelf {
			continue
		}

		d, p := 1, dep.Name
		if dd, ok := depth[i]; ok {
			d = dd
			if pp := parent[i]; pp >= 0 {
				p = sub.Nodes[pp].Name
			} else {
				p = dep.Name
			}
		}

		chain := path + " > " + dep.Name
		for _, name := range chainNames(sub, parent, i) {
			chain += " > " + name
		}

		out = append(out, FlattenedDependency{
			Name:            node.Name,
			Version:         node.Version,
			Ecosystem:       node.Ecosystem,
			FilePath:        path,
			Level:           LevelTransitive,
			Parent:          p,
			Chain:           chain,
			Depth:           d,
			Vulnerabilities: node.Vulnerabilities,
		})
	}
	return out
}

// walkFromSelf breadth-first traverses the subgraph from the self node,
// returning per-node depth and the predecessor index (-1 when the
// predecessor is the self node).
func walkFromSelf(sub *deps.Subgraph) (map[int]int, map[int]int) {
	self := -1
	for i := range sub.Nodes {
		if sub.Nodes[i].Relation == deps.RelationSelf {
			self = i
			break
		}
	}

	depth := make(map[int]int)
	parent := make(map[int]int)
	if self < 0 {
		return depth, parent
	}

	adj := make(map[int][]int)
	for _, e := range sub.Edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	queue := []int{self}
	depth[self] = 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if _, seen := depth[next]; seen {
				continue
			}
			depth[next] = depth[cur] + 1
			if cur == self {
				parent[next] = -1
			} else {
				parent[next] = cur
			}
			queue = append(queue, next)
		}
	}
	return depth, parent
}

// chainNames returns the node names on the path self -> node, excluding
// the self node, in walk order.
func chainNames(sub *deps.Subgraph, parent map[int]int, node int) []string {
	var rev []string
	cur := node
	for {
		rev = append(rev, sub.Nodes[cur].Name)
		p, ok := parent[cur]
		if !ok || p < 0 {
			break
		}
		cur = p
	}
	names := make([]string, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		names = append(names, rev[i])
	}
	return names
}
