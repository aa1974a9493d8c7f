// Package ruby parses Bundler manifests.
package ruby

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

var gemRE = regexp.MustCompile(`^\s*gem\s+['"]([^'"]+)['"](?:\s*,\s*['"]([^'"]+)['"])?`)

// Gemfile parses Gemfile manifests, extracting gem 'name', 'version' lines.
// Gems pinned to git or path sources keep whatever version requirement is
// present; a gem without one degrades to an unknown version.
type Gemfile struct{}

func (g *Gemfile) Ecosystem() deps.Ecosystem { return deps.EcosystemRubyGems }
func (g *Gemfile) Type() string              { return "Gemfile" }
func (g *Gemfile) Supports(name string) bool { return name == "Gemfile" || name == "gems.rb" }

func (g *Gemfile) Parse(data []byte) ([]deps.Dependency, error) {
	var out []deps.Dependency
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}

		m := gemRE.FindStringSubmatch(line)
		if len(m) < 2 || seen[m[1]] {
			continue
		}
		seen[m[1]] = true

		version := deps.UnknownVersion
		if len(m) >= 3 && m[2] != "" {
			version = deps.NormalizeVersion(stripRequirementOperator(m[2]))
		}
		out = append(out, deps.Dependency{
			Name:      m[1],
			Version:   version,
			Ecosystem: deps.EcosystemRubyGems,
		})
	}
	return out, scanner.Err()
}

// stripRequirementOperator removes Bundler requirement operators
// ("~> 1.2", ">= 2.0") ahead of the shared normalization pass.
func stripRequirementOperator(req string) string {
	req = strings.TrimSpace(req)
	for _, op := range []string{"~>", ">=", "<=", ">", "<", "="} {
		if strings.HasPrefix(req, op) {
			return strings.TrimSpace(strings.TrimPrefix(req, op))
		}
	}
	return req
}
