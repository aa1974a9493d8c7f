package analysis

import (
	"github.com/stackaudit/stackaudit/pkg/audit"
)

// Report bundles the output of every analyzer for one audit result.
type Report struct {
	Priorities    []PrioritizedVulnerability `json:"prioritizedVulnerabilities"`
	Insights      []TransitiveInsight        `json:"transitiveInsights"`
	Conflicts     []ConflictDetection        `json:"conflicts"`
	QuickWins     []QuickWin                 `json:"quickWins"`
	CriticalPaths []CriticalPath             `json:"criticalPaths"`
}

// Analyze flattens the filtered result once and runs all analyzers over
// the shared view.
func Analyze(res *audit.Result) *Report {
	flat := Flatten(res)
	priorities := PrioritizeVulnerabilities(flat)
	insights := TransitiveImpact(flat)
	conflicts := DetectConflicts(res)
	return &Report{
		Priorities:    priorities,
		Insights:      insights,
		Conflicts:     conflicts,
		QuickWins:     IdentifyQuickWins(priorities, insights, conflicts),
		CriticalPaths: ExtractCriticalPaths(priorities),
	}
}
