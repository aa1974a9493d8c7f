package deps

import "testing"

func TestParseEcosystem(t *testing.T) {
	tests := []struct {
		tag  string
		want Ecosystem
		ok   bool
	}{
		{"npm", EcosystemNpm, true},
		{"javascript", EcosystemNpm, true},
		{"pypi", EcosystemPyPI, true},
		{"python", EcosystemPyPI, true},
		{"rust", EcosystemCargo, true},
		{"crates.io", EcosystemCargo, true},
		{"golang", EcosystemGo, true},
		{"cobol", EcosystemNull, false},
		{"", EcosystemNull, false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, ok := ParseEcosystem(tt.tag)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseEcosystem(%q) = (%q, %v), want (%q, %v)", tt.tag, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestEcosystem_OSVNameRoundTrip(t *testing.T) {
	all := []Ecosystem{
		EcosystemNpm, EcosystemPyPI, EcosystemMaven, EcosystemRubyGems,
		EcosystemComposer, EcosystemPub, EcosystemCargo, EcosystemGo,
	}
	for _, e := range all {
		name := e.OSVName()
		if name == "" {
			t.Errorf("%s has no OSV name", e)
			continue
		}
		if got := FromOSVName(name); got != e {
			t.Errorf("FromOSVName(%q) = %q, want %q", name, got, e)
		}
	}
	if got := EcosystemNull.OSVName(); got != "" {
		t.Errorf("null ecosystem OSV name = %q, want empty", got)
	}
}

func TestEcosystem_GraphSystem(t *testing.T) {
	// Composer and pub have no dependency-graph system and must degrade to
	// empty subgraphs.
	for _, e := range []Ecosystem{EcosystemComposer, EcosystemPub} {
		if got := e.GraphSystem(); got != "" {
			t.Errorf("%s graph system = %q, want empty", e, got)
		}
	}
	for _, e := range []Ecosystem{EcosystemNpm, EcosystemPyPI, EcosystemMaven, EcosystemRubyGems, EcosystemCargo, EcosystemGo} {
		system := e.GraphSystem()
		if system == "" {
			t.Errorf("%s has no graph system", e)
			continue
		}
		if got := FromGraphSystem(system); got != e {
			t.Errorf("FromGraphSystem(%q) = %q, want %q", system, got, e)
		}
	}
}
