// Package javascript parses npm manifests.
package javascript

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

// PackageJSON parses package.json files. It extracts dependencies,
// devDependencies, and peerDependencies.
type PackageJSON struct{}

func (p *PackageJSON) Ecosystem() deps.Ecosystem { return deps.EcosystemNpm }
func (p *PackageJSON) Type() string              { return "package.json" }
func (p *PackageJSON) Supports(name string) bool { return strings.EqualFold(name, "package.json") }

func (p *PackageJSON) Parse(data []byte) ([]deps.Dependency, error) {
	var pkg packageFile
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}

	var out []deps.Dependency
	for _, section := range []map[string]string{pkg.Dependencies, pkg.DevDependencies, pkg.PeerDependencies} {
		for _, name := range sortedKeys(section) {
			out = append(out, deps.Dependency{
				Name:      name,
				Version:   deps.NormalizeVersion(section[name]),
				Ecosystem: deps.EcosystemNpm,
			})
		}
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type packageFile struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}
