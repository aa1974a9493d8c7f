package analysis

import (
	"fmt"
	"strings"
)

// CriticalPath is the highest-priority vulnerability chain for one
// vulnerable package.
type CriticalPath struct {
	Path            string `json:"path"`
	Risk            string `json:"risk"`
	Resolution      string `json:"resolution"`
	EstimatedImpact string `json:"estimated_impact"`
	CVEID           string `json:"cve_id"`
}

// ExtractCriticalPaths keeps, for each package with a critical or high
// vulnerability, only its top-scored entry and renders the introduction
// chain with a resolution suggestion. Vulnerabilities without a usable
// CVSS score are skipped. At most the 10 highest-scored paths are
// returned.
func ExtractCriticalPaths(priorities []PrioritizedVulnerability) []CriticalPath {
	var out []CriticalPath
	taken := make(map[string]bool)
	for i := range priorities {
		if len(out) >= 10 {
			break
		}
		p := &priorities[i]
		if p.RiskLevel != "critical" && p.RiskLevel != "high" {
			continue
		}
		if p.SeverityScore.Best() == 0 {
			continue
		}
		if taken[p.PackageName] {
			continue
		}
		taken[p.PackageName] = true

		out = append(out, CriticalPath{
			Path:            p.Chain,
			Risk:            p.RiskLevel,
			Resolution:      resolution(p),
			EstimatedImpact: fmt.Sprintf("%s (score %.1f)", p.RiskLevel, p.PriorityScore),
			CVEID:           cveID(p),
		})
	}
	return out
}

func resolution(p *PrioritizedVulnerability) string {
	switch {
	case p.FixAvailable == "":
		return fmt.Sprintf("No fix available for %s yet; monitor advisories", p.PackageName)
	case p.Level == LevelDirect:
		return fmt.Sprintf("Upgrade %s to %s", p.PackageName, p.FixAvailable)
	default:
		return fmt.Sprintf("Update parent %s to resolve %s", p.Parent, p.PackageName)
	}
}

// cveID prefers a CVE alias over the advisory's native id.
func cveID(p *PrioritizedVulnerability) string {
	for _, alias := range p.Aliases {
		if strings.HasPrefix(alias, "CVE-") {
			return alias
		}
	}
	return p.ID
}
