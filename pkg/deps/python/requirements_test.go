package python

import (
	"reflect"
	"testing"

	"github.com/stackaudit/stackaudit/pkg/deps"
)

func TestRequirements_Supports(t *testing.T) {
	parser := &Requirements{}

	tests := []struct {
		filename string
		want     bool
	}{
		{"requirements.txt", true},
		{"requirements-dev.txt", true},
		{"requirements_prod.txt", true},
		{"pyproject.toml", false},
		{"Pipfile", false},
		{"setup.py", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := parser.Supports(tt.filename); got != tt.want {
				t.Errorf("Supports(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestRequirements_Parse(t *testing.T) {
	content := `# Test requirements
requests>=2.28.0
click==8.1.0
Django~=4.2
typing_extensions==4.5.0
pydantic[email]==2.0.0
httpx

# Comment line
-e ./local-package
-r other-requirements.txt
git+https://github.com/user/repo.git
https://example.com/package.tar.gz
flask==2.3.0 ; python_version >= "3.8"
`

	parser := &Requirements{}
	got, err := parser.Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []deps.Dependency{
		{Name: "requests", Version: "2.28.0", Ecosystem: deps.EcosystemPyPI},
		{Name: "click", Version: "8.1.0", Ecosystem: deps.EcosystemPyPI},
		{Name: "django", Version: "4.2.0", Ecosystem: deps.EcosystemPyPI},
		{Name: "typing-extensions", Version: "4.5.0", Ecosystem: deps.EcosystemPyPI},
		{Name: "pydantic", Version: "2.0.0", Ecosystem: deps.EcosystemPyPI},
		{Name: "httpx", Version: deps.UnknownVersion, Ecosystem: deps.EcosystemPyPI},
		{Name: "flask", Version: "2.3.0", Ecosystem: deps.EcosystemPyPI},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dependencies, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Errorf("dependency %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRequirements_ParseDeduplicates(t *testing.T) {
	content := "requests==2.28.0\nRequests==2.30.0\n"

	parser := &Requirements{}
	got, err := parser.Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d dependencies, want 1 (name-normalized dedup)", len(got))
	}
	if got[0].Version != "2.28.0" {
		t.Errorf("kept version %q, want first occurrence 2.28.0", got[0].Version)
	}
}
