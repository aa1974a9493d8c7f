package deps

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/package-url/packageurl-go"
)

// Dependency relation constants, mirroring the dependency-graph service.
const (
	RelationSelf     = "SELF"
	RelationDirect   = "DIRECT"
	RelationIndirect = "INDIRECT"
)

// Dependency is a single package at a concrete version within an ecosystem.
// Identity is name@version@ecosystem; the global [Table] owns one Dependency
// per identity, and per-manifest groupings reference (never duplicate) it.
type Dependency struct {
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	Ecosystem       Ecosystem       `json:"ecosystem"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`

	// Relation is set on transitive subgraph nodes (SELF, DIRECT, INDIRECT)
	// and empty on top-level dependencies.
	Relation string `json:"dependencyType,omitempty"`

	// Transitive holds the resolved transitive closure of this dependency,
	// nil until resolution and for transitive nodes themselves.
	Transitive *Subgraph `json:"transitiveDependencies,omitempty"`
}

// Key returns the identity string name@version@ecosystem.
func (d *Dependency) Key() string {
	return fmt.Sprintf("%s@%s@%s", d.Name, d.Version, d.Ecosystem)
}

// NameVersion returns the name@version pair, the grouping identity used by
// the analyzers (which aggregate across ecosystems within one audit).
func (d *Dependency) NameVersion() string {
	return d.Name + "@" + d.Version
}

// Purl returns the package-url for this dependency, or "" when the
// ecosystem has no purl type or the version is unknown.
func (d *Dependency) Purl() string {
	t := d.Ecosystem.PurlType()
	if t == "" {
		return ""
	}
	version := d.Version
	if version == UnknownVersion {
		version = ""
	}
	namespace, name := "", d.Name
	if d.Ecosystem == EcosystemMaven {
		// Maven names are group:artifact coordinates; purl wants them split.
		if group, artifact, ok := strings.Cut(d.Name, ":"); ok {
			namespace, name = group, artifact
		}
	}
	return packageurl.NewPackageURL(t, namespace, name, version, nil, "").ToString()
}

// MarshalJSON emits the dependency with its package-url attached, so API
// and report consumers get a stable cross-ecosystem identifier.
func (d Dependency) MarshalJSON() ([]byte, error) {
	type alias Dependency
	return json.Marshal(struct {
		alias
		Purl string `json:"purl,omitempty"`
	}{alias(d), d.Purl()})
}

// Vulnerable reports whether the dependency itself carries vulnerabilities.
func (d *Dependency) Vulnerable() bool {
	return len(d.Vulnerabilities) > 0
}

// HasVulnerableTransitives reports whether any resolved transitive node
// other than the self node carries vulnerabilities.
func (d *Dependency) HasVulnerableTransitives() bool {
	if d.Transitive == nil {
		return false
	}
	for i := range d.Transitive.Nodes {
		node := &d.Transitive.Nodes[i]
		if node.Relation != RelationSelf && node.Vulnerable() {
			return true
		}
	}
	return false
}

// Subgraph is an adjacency-list dependency subgraph owned by its parent
// Dependency. Edge Source/Target values index into Nodes; any filtering of
// Nodes must remap or drop edges referencing removed indices.
type Subgraph struct {
	Nodes []Dependency `json:"nodes"`
	Edges []Edge       `json:"edges"`
}

// Edge is one requirement relation between two subgraph nodes.
type Edge struct {
	Source      int    `json:"source"`
	Target      int    `json:"target"`
	Requirement string `json:"requirement"`
}

// Vulnerability is a known-vulnerability record attached to a dependency.
// Immediately after discovery only ID is populated; the detail fetch phase
// replaces the placeholder with the fully-populated record.
type Vulnerability struct {
	ID            string        `json:"id"`
	Summary       string        `json:"summary,omitempty"`
	Details       string        `json:"details,omitempty"`
	Severity      []Severity    `json:"severity"`
	SeverityScore SeverityScore `json:"severityScore"`
	References    []Reference   `json:"references"`
	FixAvailable  string        `json:"fixAvailable,omitempty"`
	Affected      []Affected    `json:"affected"`
	Aliases       []string      `json:"aliases"`
}

// Severity is a raw severity vector as reported by the vulnerability
// database (e.g. type CVSS_V3 with a CVSS:3.1/... vector string).
type Severity struct {
	Type  string `json:"type"`
	Score string `json:"score"`
}

// SeverityScore holds normalized scalar CVSS scores. A nil field means the
// corresponding vector was absent or unparsable.
type SeverityScore struct {
	CVSSV3 *float64 `json:"cvss_v3,omitempty"`
	CVSSV4 *float64 `json:"cvss_v4,omitempty"`
}

// Best returns the highest available normalized score, 0 when unscored.
func (s SeverityScore) Best() float64 {
	var best float64
	if s.CVSSV3 != nil {
		best = *s.CVSSV3
	}
	if s.CVSSV4 != nil && *s.CVSSV4 > best {
		best = *s.CVSSV4
	}
	return best
}

// Reference is a link attached to a vulnerability record.
type Reference struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Affected describes one affected package with its version ranges.
type Affected struct {
	Package  AffectedPackage `json:"package"`
	Ranges   []Range         `json:"ranges"`
	Versions []string        `json:"versions,omitempty"`
}

// AffectedPackage identifies the package an Affected entry applies to.
type AffectedPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
	Purl      string `json:"purl,omitempty"`
}

// Range is a version range with introduced/fixed events.
type Range struct {
	Type   string  `json:"type"`
	Events []Event `json:"events"`
}

// Event marks a version where a vulnerability was introduced or fixed.
type Event struct {
	Introduced string `json:"introduced,omitempty"`
	Fixed      string `json:"fixed,omitempty"`
}

// ExploitAvailable reports whether the record references a known exploit.
func (v *Vulnerability) ExploitAvailable() bool {
	for _, ref := range v.References {
		if ref.Type == "EXPLOIT" || ref.Type == "EVIDENCE" {
			return true
		}
	}
	return false
}

// FixedVersion returns the first fixed version across all affected ranges,
// or "" when no fix is recorded.
func FixedVersion(affected []Affected) string {
	for _, a := range affected {
		for _, r := range a.Ranges {
			for _, ev := range r.Events {
				if ev.Fixed != "" {
					return ev.Fixed
				}
			}
		}
	}
	return ""
}
