package analysis

import (
	"testing"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

func TestPriorityScore(t *testing.T) {
	cvss := func(v float64) deps.SeverityScore {
		return deps.SeverityScore{CVSSV3: &v}
	}
	exploit := []deps.Reference{{Type: "EXPLOIT", URL: "https://example.com/poc"}}

	tests := []struct {
		name  string
		vuln  deps.Vulnerability
		level string
		usage int
		want  float64
	}{
		{
			name:  "direct with exploit and fix",
			vuln:  deps.Vulnerability{SeverityScore: cvss(7.5), References: exploit, FixAvailable: "4.17.21"},
			level: LevelDirect,
			usage: 1,
			want:  17.5, // 7.5 + 5 exploit + 3 fix + 2 direct
		},
		{
			name:  "direct with fix only",
			vuln:  deps.Vulnerability{SeverityScore: cvss(8.1), FixAvailable: "4.17.21"},
			level: LevelDirect,
			usage: 1,
			want:  13.1,
		},
		{
			name:  "bare transitive",
			vuln:  deps.Vulnerability{SeverityScore: cvss(5.0)},
			level: LevelTransitive,
			usage: 1,
			want:  6.0,
		},
		{
			name:  "usage bonus",
			vuln:  deps.Vulnerability{SeverityScore: cvss(5.0)},
			level: LevelTransitive,
			usage: 4,
			want:  8.0, // 4/2 = 2 bonus
		},
		{
			name:  "usage bonus capped",
			vuln:  deps.Vulnerability{SeverityScore: cvss(5.0)},
			level: LevelTransitive,
			usage: 40,
			want:  9.0,
		},
		{
			name:  "unscored placeholder",
			vuln:  deps.Vulnerability{},
			level: LevelTransitive,
			usage: 0,
			want:  1.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := priorityScore(&tt.vuln, tt.level, tt.usage); got != tt.want {
				t.Errorf("priorityScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPriorityRisk(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{17.5, "critical"},
		{15, "critical"},
		{14.9, "high"},
		{10, "high"},
		{9.9, "medium"},
		{5, "medium"},
		{4.9, "low"},
		{0, "low"},
	}
	for _, tt := range tests {
		if got := priorityRisk(tt.score); got != tt.want {
			t.Errorf("priorityRisk(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestPrioritizeVulnerabilities(t *testing.T) {
	flat := []FlattenedDependency{
		{
			Name: "lodash", Version: "4.17.19", Ecosystem: deps.EcosystemNpm,
			FilePath: "package.json", Level: LevelDirect,
			Chain: "package.json > lodash", UsageFrequency: 1,
			Vulnerabilities: []deps.Vulnerability{
				{
					ID:            "GHSA-p6mc",
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
		},
		{
			Name: "qs", Version: "6.7.0", Ecosystem: deps.EcosystemNpm,
			FilePath: "package.json", Level: LevelTransitive, Parent: "express",
			Chain: "package.json > express > qs", UsageFrequency: 1,
			Vulnerabilities: []deps.Vulnerability{
				{ID: "GHSA-qs", SeverityScore: deps.SeverityScore{CVSSV3: f64(7.5)}},
			},
		},
	}

	got := PrioritizeVulnerabilities(flat)
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}

	first := got[0]
	if first.ID != "GHSA-p6mc" {
		t.Fatalf("top entry = %s, want GHSA-p6mc", first.ID)
	}
	if first.PriorityScore != 17.5 || first.RiskLevel != "critical" {
		t.Errorf("top entry score=%v risk=%s, want 17.5 critical", first.PriorityScore, first.RiskLevel)
	}
	if first.PackageName != "lodash" || first.Level != LevelDirect || first.Chain != "package.json > lodash" {
		t.Errorf("top entry position = %s/%s/%q", first.PackageName, first.Level, first.Chain)
	}

	for i := 1; i < len(got); i++ {
		if got[i].PriorityScore > got[i-1].PriorityScore {
			t.Errorf("entry %d score %v out of order after %v", i, got[i].PriorityScore, got[i-1].PriorityScore)
		}
	}
	if got[1].ID != "GHSA-35jh" || got[2].ID != "GHSA-qs" {
		t.Errorf("order = %s, %s; want GHSA-35jh, GHSA-qs", got[1].ID, got[2].ID)
	}
}
