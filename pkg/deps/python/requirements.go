// Package python parses pip requirements manifests.
package python

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

var requirementRE = regexp.MustCompile(`^([a-zA-Z0-9][-a-zA-Z0-9._]*)\s*(?:\[[^\]]*\])?\s*(==|>=|<=|~=|!=|>|<)?\s*([^\s;#,]+)?`)

// Requirements parses requirements.txt files, line-oriented
// name<op>version entries. Editable installs, URLs, and include directives
// are skipped.
type Requirements struct{}

func (r *Requirements) Ecosystem() deps.Ecosystem { return deps.EcosystemPyPI }
func (r *Requirements) Type() string              { return "requirements.txt" }

func (r *Requirements) Supports(name string) bool {
	return name == "requirements.txt" ||
		(strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"))
}

func (r *Requirements) Parse(data []byte) ([]deps.Dependency, error) {
	var out []deps.Dependency
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '-' {
			continue
		}
		if strings.Contains(line, "://") || strings.HasPrefix(line, "git+") {
			continue
		}

		m := requirementRE.FindStringSubmatch(line)
		if len(m) < 2 {
			continue
		}
		name := normalize(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true

		version := deps.UnknownVersion
		if len(m) >= 4 && m[3] != "" {
			version = deps.NormalizeVersion(m[3])
		}
		out = append(out, deps.Dependency{
			Name:      name,
			Version:   version,
			Ecosystem: deps.EcosystemPyPI,
		})
	}
	return out, scanner.Err()
}

// normalize applies PEP 503 name normalization (lowercase, underscores and
// dots collapse to hyphens).
func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "_", "-")
	return strings.ReplaceAll(name, ".", "-")
}
