package analysis

import (
	"sort"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

// TransitiveInsight aggregates one vulnerable transitive package across
// every direct dependency that pulls it in.
type TransitiveInsight struct {
	Package            string         `json:"package"`
	Version            string         `json:"version"`
	Ecosystem          deps.Ecosystem `json:"ecosystem"`
	VulnerabilityCount int            `json:"vulnerabilityCount"`
	UsedBy             []string       `json:"usedBy"`
	ImpactMultiplier   int            `json:"impactMultiplier"`
	FixAvailable       bool           `json:"fixAvailable"`
	QuickWinPotential  bool           `json:"quickWinPotential"`
	VulnerabilityIDs   []string       `json:"vulnerabilityIds"`
}

// quickWinImpactThreshold is the minimum impact multiplier for a shared
// transitive fix to count as a quick win.
const quickWinImpactThreshold = 6

// TransitiveImpact groups vulnerable transitive packages by
// name@version and scores each by how many distinct parents depend on it
// times how many vulnerabilities it carries. Output is sorted by
// descending impact.
func TransitiveImpact(flat []FlattenedDependency) []TransitiveInsight {
	index := make(map[string]*TransitiveInsight)
	var order []string

	for i := range flat {
		dep := &flat[i]
		if dep.Level != LevelTransitive || len(dep.Vulnerabilities) == 0 {
			continue
		}

		key := dep.Name + "@" + dep.Version
		insight, ok := index[key]
		if !ok {
			insight = &TransitiveInsight{
				Package:   dep.Name,
				Version:   dep.Version,
				Ecosystem: dep.Ecosystem,
			}
			index[key] = insight
			order = append(order, key)
		}

		if !contains(insight.UsedBy, dep.Parent) {
			insight.UsedBy = append(insight.UsedBy, dep.Parent)
		}
		for j := range dep.Vulnerabilities {
			v := &dep.Vulnerabilities[j]
			if contains(insight.VulnerabilityIDs, v.ID) {
				continue
			}
			insight.VulnerabilityIDs = append(insight.VulnerabilityIDs, v.ID)
			insight.VulnerabilityCount++
			if v.FixAvailable != "" {
				insight.FixAvailable = true
			}
		}
	}

	out := make([]TransitiveInsight, 0, len(order))
	for _, key := range order {
		insight := index[key]
		insight.ImpactMultiplier = len(insight.UsedBy) * insight.VulnerabilityCount
		insight.QuickWinPotential = insight.ImpactMultiplier >= quickWinImpactThreshold && insight.FixAvailable
		out = append(out, *insight)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ImpactMultiplier > out[j].ImpactMultiplier
	})
	return out
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
