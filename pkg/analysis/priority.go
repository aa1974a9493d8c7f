package analysis

import (
	"sort"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

// PrioritizedVulnerability is a vulnerability annotated with its position
// in the graph and a composite priority score.
type PrioritizedVulnerability struct {
	deps.Vulnerability

	PackageName    string         `json:"packageName"`
	PackageVersion string         `json:"packageVersion"`
	Ecosystem      deps.Ecosystem `json:"ecosystem"`
	FilePath       string         `json:"filePath"`
	Level          string         `json:"dependencyLevel"`
	Parent         string         `json:"parent,omitempty"`
	Chain          string         `json:"chain"`
	PriorityScore  float64        `json:"priorityScore"`
	RiskLevel      string         `json:"riskLevel"`
}

// PrioritizeVulnerabilities scores every vulnerability in the flattened
// view and returns them sorted by descending score. The sort is stable,
// so equal scores keep discovery order.
func PrioritizeVulnerabilities(flat []FlattenedDependency) []PrioritizedVulnerability {
	var out []PrioritizedVulnerability
	for i := range flat {
		dep := &flat[i]
		for j := range dep.Vulnerabilities {
			vuln := &dep.Vulnerabilities[j]
			score := priorityScore(vuln, dep.Level, dep.UsageFrequency)
			out = append(out, PrioritizedVulnerability{
				Vulnerability:  *vuln,
				PackageName:    dep.Name,
				PackageVersion: dep.Version,
				Ecosystem:      dep.Ecosystem,
				FilePath:       dep.FilePath,
				Level:          dep.Level,
				Parent:         dep.Parent,
				Chain:          dep.Chain,
				PriorityScore:  score,
				RiskLevel:      priorityRisk(score),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriorityScore > out[j].PriorityScore
	})
	return out
}

// priorityScore combines the CVSS base score with exploit and fix
// availability, dependency depth, and how widely the package is used.
func priorityScore(v *deps.Vulnerability, level string, usage int) float64 {
	score := v.SeverityScore.Best()
	if v.ExploitAvailable() {
		score += 5
	}
	if v.FixAvailable != "" {
		score += 3
	}
	if level == LevelDirect {
		score += 2
	} else {
		score += 1
	}
	usageBonus := float64(usage / 2)
	if usageBonus > 3 {
		usageBonus = 3
	}
	return score + usageBonus
}

func priorityRisk(score float64) string {
	switch {
	case score >= 15:
		return "critical"
	case score >= 10:
		return "high"
	case score >= 5:
		return "medium"
	default:
		return "low"
	}
}
