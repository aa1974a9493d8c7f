package analysis

import (
	"testing"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

func TestAnalyze(t *testing.T) {
	lodash := &deps.Dependency{
		Name: "lodash", Version: "4.17.19", Ecosystem: deps.EcosystemNpm,
		Vulnerabilities: []deps.Vulnerability{
			{
				ID:            "GHSA-p6mc",
				Aliases:       []string{"CVE-2020-8203"},
				SeverityScore: deps.SeverityScore{CVSSV3: f64(7.5)},
				References:    []deps.Reference{{Type: "EXPLOIT"}},
				FixAvailable:  "4.17.21",
			},
			{
				ID:            "GHSA-35jh",
				SeverityScore: deps.SeverityScore{CVSSV3: f64(8.1)},
				FixAvailable:  "4.17.21",
			},
		},
	}
	express := &deps.Dependency{
		Name: "express", Version: "4.18.2", Ecosystem: deps.EcosystemNpm,
		Transitive: &deps.Subgraph{
			Nodes: []deps.Dependency{
				{Name: "express", Version: "4.18.2", Ecosystem: deps.EcosystemNpm, Relation: deps.RelationSelf},
				{Name: "qs", Version: "6.7.0", Ecosystem: deps.EcosystemNpm, Relation: deps.RelationDirect,
					Vulnerabilities: []deps.Vulnerability{
						{ID: "GHSA-qs", SeverityScore: deps.SeverityScore{CVSSV3: f64(7.5)}},
					}},
			},
			Edges: []deps.Edge{{Source: 0, Target: 1, Requirement: "6.7.0"}},
		},
	}
	res := newResult(map[string][]*deps.Dependency{"package.json": {lodash, express}}, "package.json")

	report := Analyze(res)

	if len(report.Priorities) != 3 {
		t.Fatalf("got %d priorities, want 3", len(report.Priorities))
	}
	top := report.Priorities[0]
	if top.ID != "GHSA-p6mc" || top.PriorityScore != 17.5 || top.RiskLevel != "critical" {
		t.Errorf("top priority = %s score=%v risk=%s", top.ID, top.PriorityScore, top.RiskLevel)
	}

	if len(report.Insights) != 1 || report.Insights[0].Package != "qs" || report.Insights[0].ImpactMultiplier != 1 {
		t.Errorf("insights = %+v, want qs with impact 1", report.Insights)
	}
	if len(report.Conflicts) != 0 {
		t.Errorf("conflicts = %+v, want none", report.Conflicts)
	}

	if len(report.QuickWins) != 1 {
		t.Fatalf("quick wins = %+v, want the lodash upgrade", report.QuickWins)
	}
	if report.QuickWins[0].Command != "npm update lodash@4.17.21" {
		t.Errorf("quick win command = %q", report.QuickWins[0].Command)
	}

	if len(report.CriticalPaths) != 1 {
		t.Fatalf("critical paths = %+v, want one (lodash deduped, qs only medium)", report.CriticalPaths)
	}
	cp := report.CriticalPaths[0]
	if cp.Path != "package.json > lodash" || cp.CVEID != "CVE-2020-8203" {
		t.Errorf("critical path = %q (%s)", cp.Path, cp.CVEID)
	}
}
