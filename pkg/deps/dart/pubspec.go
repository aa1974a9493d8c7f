// Package dart parses pub manifests.
package dart

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

// Pubspec parses pubspec.yaml files. Dependencies declared as maps
// (git, path, sdk, hosted) carry no resolvable registry version and are
// recorded with an unknown version.
type Pubspec struct{}

func (p *Pubspec) Ecosystem() deps.Ecosystem { return deps.EcosystemPub }
func (p *Pubspec) Type() string              { return "pubspec.yaml" }
func (p *Pubspec) Supports(name string) bool {
	return strings.EqualFold(name, "pubspec.yaml") || strings.EqualFold(name, "pubspec.yml")
}

func (p *Pubspec) Parse(data []byte) ([]deps.Dependency, error) {
	var spec pubspecFile
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}

	var out []deps.Dependency
	for _, section := range []map[string]any{spec.Dependencies, spec.DevDependencies} {
		for _, name := range sortedKeys(section) {
			if name == "flutter" || name == "flutter_test" {
				continue
			}
			version := deps.UnknownVersion
			if s, ok := section[name].(string); ok {
				version = deps.NormalizeVersion(s)
			}
			out = append(out, deps.Dependency{
				Name:      name,
				Version:   version,
				Ecosystem: deps.EcosystemPub,
			})
		}
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type pubspecFile struct {
	Name            string         `yaml:"name"`
	Dependencies    map[string]any `yaml:"dependencies"`
	DevDependencies map[string]any `yaml:"dev_dependencies"`
}
