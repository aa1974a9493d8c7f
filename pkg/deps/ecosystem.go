package deps

// Ecosystem identifies a package-manager namespace. It is a closed set:
// unknown tags map to EcosystemNull, never to an arbitrary string, so every
// switch over ecosystems can be exhaustive.
type Ecosystem string

const (
	EcosystemNull     Ecosystem = ""
	EcosystemNpm      Ecosystem = "npm"
	EcosystemPyPI     Ecosystem = "pypi"
	EcosystemMaven    Ecosystem = "maven"
	EcosystemRubyGems Ecosystem = "rubygems"
	EcosystemComposer Ecosystem = "composer"
	EcosystemPub      Ecosystem = "pub"
	EcosystemCargo    Ecosystem = "cargo"
	EcosystemGo       Ecosystem = "go"
)

// ecosystems is the exhaustive mapping table from input tags (including
// common aliases) to Ecosystem values.
var ecosystems = map[string]Ecosystem{
	"npm":        EcosystemNpm,
	"node":       EcosystemNpm,
	"javascript": EcosystemNpm,
	"pypi":       EcosystemPyPI,
	"pip":        EcosystemPyPI,
	"python":     EcosystemPyPI,
	"maven":      EcosystemMaven,
	"java":       EcosystemMaven,
	"rubygems":   EcosystemRubyGems,
	"gem":        EcosystemRubyGems,
	"ruby":       EcosystemRubyGems,
	"composer":   EcosystemComposer,
	"packagist":  EcosystemComposer,
	"php":        EcosystemComposer,
	"pub":        EcosystemPub,
	"dart":       EcosystemPub,
	"cargo":      EcosystemCargo,
	"crates.io":  EcosystemCargo,
	"rust":       EcosystemCargo,
	"go":         EcosystemGo,
	"golang":     EcosystemGo,
}

// ParseEcosystem maps a tag to its Ecosystem. Unknown tags return
// EcosystemNull and ok=false.
func ParseEcosystem(tag string) (Ecosystem, bool) {
	e, ok := ecosystems[tag]
	return e, ok
}

// String returns the canonical tag.
func (e Ecosystem) String() string { return string(e) }

// OSVName returns the ecosystem name used by the OSV vulnerability database,
// or "" if OSV does not index this ecosystem.
func (e Ecosystem) OSVName() string {
	switch e {
	case EcosystemNpm:
		return "npm"
	case EcosystemPyPI:
		return "PyPI"
	case EcosystemMaven:
		return "Maven"
	case EcosystemRubyGems:
		return "RubyGems"
	case EcosystemComposer:
		return "Packagist"
	case EcosystemPub:
		return "Pub"
	case EcosystemCargo:
		return "crates.io"
	case EcosystemGo:
		return "Go"
	default:
		return ""
	}
}

// GraphSystem returns the system name used by the dependency-graph service,
// or "" if the service cannot resolve this ecosystem. Unresolvable
// ecosystems degrade to empty transitive subgraphs.
func (e Ecosystem) GraphSystem() string {
	switch e {
	case EcosystemNpm:
		return "NPM"
	case EcosystemPyPI:
		return "PYPI"
	case EcosystemMaven:
		return "MAVEN"
	case EcosystemRubyGems:
		return "RUBYGEMS"
	case EcosystemCargo:
		return "CARGO"
	case EcosystemGo:
		return "GO"
	default:
		return ""
	}
}

// PurlType returns the package-url type for this ecosystem, or "" when no
// purl type is defined.
func (e Ecosystem) PurlType() string {
	switch e {
	case EcosystemNpm:
		return "npm"
	case EcosystemPyPI:
		return "pypi"
	case EcosystemMaven:
		return "maven"
	case EcosystemRubyGems:
		return "gem"
	case EcosystemComposer:
		return "composer"
	case EcosystemPub:
		return "pub"
	case EcosystemCargo:
		return "cargo"
	case EcosystemGo:
		return "golang"
	default:
		return ""
	}
}

// FromOSVName maps an OSV ecosystem name back to an Ecosystem.
func FromOSVName(name string) Ecosystem {
	switch name {
	case "npm":
		return EcosystemNpm
	case "PyPI":
		return EcosystemPyPI
	case "Maven":
		return EcosystemMaven
	case "RubyGems":
		return EcosystemRubyGems
	case "Packagist":
		return EcosystemComposer
	case "Pub":
		return EcosystemPub
	case "crates.io":
		return EcosystemCargo
	case "Go":
		return EcosystemGo
	default:
		return EcosystemNull
	}
}

// FromGraphSystem maps a dependency-graph service system name back to an
// Ecosystem.
func FromGraphSystem(system string) Ecosystem {
	switch system {
	case "NPM":
		return EcosystemNpm
	case "PYPI":
		return EcosystemPyPI
	case "MAVEN":
		return EcosystemMaven
	case "RUBYGEMS":
		return EcosystemRubyGems
	case "CARGO":
		return EcosystemCargo
	case "GO":
		return EcosystemGo
	default:
		return EcosystemNull
	}
}
