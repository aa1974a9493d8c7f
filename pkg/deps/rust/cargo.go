// Package rust parses Cargo manifests.
package rust

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

// CargoToml parses Cargo.toml files, collecting every dependency table:
// [dependencies], [dev-dependencies], [build-dependencies],
// [target.*.dependencies] variants, and [workspace.dependencies].
// Entries without an explicit version (git or path only) are skipped.
type CargoToml struct{}

func (c *CargoToml) Ecosystem() deps.Ecosystem { return deps.EcosystemCargo }
func (c *CargoToml) Type() string              { return "Cargo.toml" }
func (c *CargoToml) Supports(name string) bool { return strings.EqualFold(name, "cargo.toml") }

func (c *CargoToml) Parse(data []byte) ([]deps.Dependency, error) {
	var cargo cargoFile
	if err := toml.Unmarshal(data, &cargo); err != nil {
		return nil, err
	}

	tables := []map[string]any{
		cargo.Dependencies,
		cargo.DevDependencies,
		cargo.BuildDependencies,
		cargo.Workspace.Dependencies,
	}
	for _, name := range sortedKeys(cargo.Target) {
		t := cargo.Target[name]
		tables = append(tables, t.Dependencies, t.DevDependencies, t.BuildDependencies)
	}

	var out []deps.Dependency
	seen := make(map[string]bool)
	for _, table := range tables {
		for _, name := range sortedKeysAny(table) {
			version, ok := cargoVersion(table[name])
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, deps.Dependency{
				Name:      name,
				Version:   deps.NormalizeVersion(version),
				Ecosystem: deps.EcosystemCargo,
			})
		}
	}
	return out, nil
}

// cargoVersion extracts the version requirement from a dependency entry.
// Entries are either a plain version string or a table; tables lacking a
// version key (git/path dependencies) report ok=false.
func cargoVersion(entry any) (string, bool) {
	switch v := entry.(type) {
	case string:
		return v, true
	case map[string]any:
		if s, ok := v["version"].(string); ok {
			return s, true
		}
	}
	return "", false
}

func sortedKeys(m map[string]targetTables) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysAny(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type cargoFile struct {
	Dependencies      map[string]any          `toml:"dependencies"`
	DevDependencies   map[string]any          `toml:"dev-dependencies"`
	BuildDependencies map[string]any          `toml:"build-dependencies"`
	Target            map[string]targetTables `toml:"target"`
	Workspace         struct {
		Dependencies map[string]any `toml:"dependencies"`
	} `toml:"workspace"`
}

type targetTables struct {
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}
