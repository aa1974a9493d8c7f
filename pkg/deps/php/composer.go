// Package php parses Composer manifests.
package php

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

// ComposerJSON parses composer.json files. Platform requirements (php
// itself and ext-* / lib-* entries) are not packages and are skipped.
type ComposerJSON struct{}

func (c *ComposerJSON) Ecosystem() deps.Ecosystem { return deps.EcosystemComposer }
func (c *ComposerJSON) Type() string              { return "composer.json" }
func (c *ComposerJSON) Supports(name string) bool { return strings.EqualFold(name, "composer.json") }

func (c *ComposerJSON) Parse(data []byte) ([]deps.Dependency, error) {
	var composer composerFile
	if err := json.Unmarshal(data, &composer); err != nil {
		return nil, err
	}

	var out []deps.Dependency
	for _, section := range []map[string]string{composer.Require, composer.RequireDev} {
		for _, name := range sortedKeys(section) {
			if isPlatformRequirement(name) {
				continue
			}
			out = append(out, deps.Dependency{
				Name:      name,
				Version:   deps.NormalizeVersion(section[name]),
				Ecosystem: deps.EcosystemComposer,
			})
		}
	}
	return out, nil
}

func isPlatformRequirement(name string) bool {
	return name == "php" ||
		strings.HasPrefix(name, "ext-") ||
		strings.HasPrefix(name, "lib-") ||
		!strings.Contains(name, "/")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type composerFile struct {
	Name       string            `json:"name"`
	Require    map[string]string `json:"require"`
	RequireDev map[string]string `json:"require-dev"`
}
