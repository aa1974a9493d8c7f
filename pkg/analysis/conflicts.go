package analysis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/stackaudit/stackaudit/pkg/audit"
	"github.com/stackaudit/stackaudit/pkg/deps"
)

// ConflictDetection reports a package required at more than one distinct
// version by different parents.
type ConflictDetection struct {
	Package             string   `json:"package"`
	ConflictType        string   `json:"conflictType"`
	RequiredVersions    []string `json:"requiredVersions"`
	AffectedParents     []string `json:"affectedParents"`
	RiskLevel           string   `json:"riskLevel"`
	SuggestedResolution string   `json:"suggestedResolution"`
}

var leadingNumberRE = regexp.MustCompile(`^\D*(\d+)`)

// DetectConflicts scans every retained subgraph edge for packages whose
// parents require them at differing versions. Conflicts across distinct
// leading version numbers (usually majors) rate high, otherwise low.
// Conflicts are detected only among transitive dependencies; two
// manifests pinning different versions of the same top-level package are
// not modeled.
func DetectConflicts(res *audit.Result) []ConflictDetection {
	type requirement struct {
		requiredBy string
		version    string
	}
	reqs := make(map[string][]requirement)
	var order []string

	seen := make(map[*deps.Dependency]bool)
	for _, path := range res.Paths {
		for _, dep := range res.Dependencies[path] {
			if seen[dep] || dep.Transitive == nil {
				continue
			}
			seen[dep] = true
			sub := dep.Transitive
			for _, e := range sub.Edges {
				if e.Source < 0 || e.Source >= len(sub.Nodes) || e.Target < 0 || e.Target >= len(sub.Nodes) {
					continue
				}
				target := &sub.Nodes[e.Target]
				if target.Relation == deps.RelationSelf {
					continue
				}
				version := e.Requirement
				if version == "" {
					version = target.Version
				}
				if _, ok := reqs[target.Name]; !ok {
					order = append(order, target.Name)
				}
				reqs[target.Name] = append(reqs[target.Name], requirement{
					requiredBy: sub.Nodes[e.Source].Name,
					version:    version,
				})
			}
		}
	}

	var out []ConflictDetection
	for _, name := range order {
		versions := make(map[string]bool)
		majors := make(map[string]bool)
		var versionList, parents []string
		for _, req := range reqs[name] {
			if !versions[req.version] {
				versions[req.version] = true
				versionList = append(versionList, req.version)
				if m := leadingNumberRE.FindStringSubmatch(req.version); m != nil {
					majors[m[1]] = true
				}
			}
			if !contains(parents, req.requiredBy) {
				parents = append(parents, req.requiredBy)
			}
		}
		if len(versions) < 2 {
			continue
		}

		risk := "low"
		if len(majors) > 1 {
			risk = "high"
		}
		sort.Strings(versionList)
		out = append(out, ConflictDetection{
			Package:          name,
			ConflictType:     "version_mismatch",
			RequiredVersions: versionList,
			AffectedParents:  parents,
			RiskLevel:        risk,
			SuggestedResolution: fmt.Sprintf("Align %s to a single version (currently required at %s)",
				name, strings.Join(versionList, ", ")),
		})
	}
	return out
}
