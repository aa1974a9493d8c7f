package analysis

import (
	"fmt"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

// Quick win types.
const (
	QuickWinDirectUpgrade        = "direct_upgrade"
	QuickWinTransitiveMultiplier = "transitive_multiplier"
)

// QuickWin is a low-effort, high-impact remediation surfaced ahead of
// the full remediation plan.
type QuickWin struct {
	Type          string `json:"type"`
	Package       string `json:"package"`
	Impact        string `json:"impact"`
	Effort        string `json:"effort"`
	Command       string `json:"command,omitempty"`
	EstimatedTime string `json:"estimatedTime,omitempty"`
}

// IdentifyQuickWins selects direct dependencies that a single upgrade
// fixes (fix available, priority score above 10, not implicated in a
// version conflict), capped at 5, followed by shared transitive fixes
// flagged as quick-win potential, capped at 3.
func IdentifyQuickWins(priorities []PrioritizedVulnerability, insights []TransitiveInsight, conflicts []ConflictDetection) []QuickWin {
	conflicted := make(map[string]bool)
	for _, c := range conflicts {
		conflicted[c.Package] = true
		for _, parent := range c.AffectedParents {
			conflicted[parent] = true
		}
	}

	var out []QuickWin
	taken := make(map[string]bool)
	for i := range priorities {
		if len(out) >= 5 {
			break
		}
		p := &priorities[i]
		if p.Level != LevelDirect || p.FixAvailable == "" || p.PriorityScore <= 10 {
			continue
		}
		if conflicted[p.PackageName] || taken[p.PackageName] {
			continue
		}
		taken[p.PackageName] = true
		out = append(out, QuickWin{
			Type:          QuickWinDirectUpgrade,
			Package:       p.PackageName,
			Impact:        fmt.Sprintf("Resolves %s (%s risk)", p.ID, p.RiskLevel),
			Effort:        "low",
			Command:       UpgradeCommand(p.Ecosystem, p.PackageName, p.FixAvailable),
			EstimatedTime: "15 minutes",
		})
	}

	count := 0
	for i := range insights {
		if count >= 3 {
			break
		}
		insight := &insights[i]
		if !insight.QuickWinPotential {
			continue
		}
		count++
		out = append(out, QuickWin{
			Type:    QuickWinTransitiveMultiplier,
			Package: insight.Package,
			Impact: fmt.Sprintf("Fixes %d vulnerabilities across %d dependents",
				insight.VulnerabilityCount, len(insight.UsedBy)),
			Effort:        "medium",
			EstimatedTime: "1 hour",
		})
	}
	return out
}

// UpgradeCommand renders the ecosystem-native command that upgrades a
// package to the given version. Unknown ecosystems get a comment
// placeholder.
func UpgradeCommand(eco deps.Ecosystem, name, version string) string {
	switch eco {
	case deps.EcosystemNpm:
		return fmt.Sprintf("npm update %s@%s", name, version)
	case deps.EcosystemPyPI:
		return fmt.Sprintf("pip install --upgrade %s==%s", name, version)
	case deps.EcosystemMaven:
		return fmt.Sprintf("mvn versions:use-dep-version -Dincludes=%s -DdepVersion=%s", name, version)
	case deps.EcosystemGo:
		return fmt.Sprintf("go get %s@v%s", name, version)
	case deps.EcosystemCargo:
		return fmt.Sprintf("cargo update -p %s --precise %s", name, version)
	case deps.EcosystemRubyGems:
		return fmt.Sprintf("bundle update %s", name)
	case deps.EcosystemComposer:
		return fmt.Sprintf("composer require %s:%s", name, version)
	case deps.EcosystemPub:
		return fmt.Sprintf("dart pub upgrade %s", name)
	default:
		return fmt.Sprintf("# upgrade %s to %s", name, version)
	}
}
