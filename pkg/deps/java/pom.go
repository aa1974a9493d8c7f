// Package java parses Maven POM manifests.
package java

import (
	"encoding/xml"
	"strings"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

// POM parses pom.xml files. Dependency versions written as ${property}
// placeholders are resolved against the <properties> block; unresolvable
// placeholders degrade to an unknown version.
type POM struct{}

func (p *POM) Ecosystem() deps.Ecosystem { return deps.EcosystemMaven }
func (p *POM) Type() string              { return "pom.xml" }
func (p *POM) Supports(name string) bool { return name == "pom.xml" }

func (p *POM) Parse(data []byte) ([]deps.Dependency, error) {
	var pom pomProject
	if err := xml.Unmarshal(data, &pom); err != nil {
		return nil, err
	}

	props := map[string]string(pom.Properties)
	if props == nil {
		props = make(map[string]string)
	}
	if pom.Version != "" {
		props["project.version"] = pom.Version
	}

	var out []deps.Dependency
	seen := make(map[string]bool)
	for _, dep := range pom.Dependencies {
		if strings.HasPrefix(dep.GroupID, "${") || strings.HasPrefix(dep.ArtifactID, "${") {
			continue
		}
		coord := dep.GroupID + ":" + dep.ArtifactID
		if seen[coord] {
			continue
		}
		seen[coord] = true

		out = append(out, deps.Dependency{
			Name:      coord,
			Version:   deps.NormalizeVersion(resolveProperty(dep.Version, props)),
			Ecosystem: deps.EcosystemMaven,
		})
	}
	return out, nil
}

// resolveProperty expands a ${name} placeholder against the properties map.
// Plain versions pass through; unknown properties resolve to "".
func resolveProperty(version string, props map[string]string) string {
	if !strings.HasPrefix(version, "${") || !strings.HasSuffix(version, "}") {
		return version
	}
	return props[strings.TrimSuffix(strings.TrimPrefix(version, "${"), "}")]
}

type pomProject struct {
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Properties   propertiesMap   `xml:"properties"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
}

// propertiesMap decodes the free-form <properties> element into a map.
type propertiesMap map[string]string

func (m *propertiesMap) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	*m = make(map[string]string)
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &el); err != nil {
				return err
			}
			(*m)[el.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			if el.Name == start.Name {
				return nil
			}
		}
	}
}
