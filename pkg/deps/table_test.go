package deps

import (
	"reflect"
	"testing"
)

func dep(name, version string) Dependency {
	return Dependency{Name: name, Version: version, Ecosystem: EcosystemNpm, Relation: RelationDirect}
}

func TestTable_DeduplicatesAcrossFiles(t *testing.T) {
	table := NewTable()
	a := table.Add(dep("lodash", "4.17.19"), "package.json")
	b := table.Add(dep("lodash", "4.17.19"), "web/package.json")

	if a != b {
		t.Fatal("same identity from two files produced distinct entries")
	}
	if table.Len() != 1 {
		t.Errorf("Len = %d, want 1", table.Len())
	}

	files := table.Files(a.Key())
	want := []string{"package.json", "web/package.json"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("Files = %v, want %v", files, want)
	}
}

func TestTable_DistinctVersionsStaySeparate(t *testing.T) {
	table := NewTable()
	table.Add(dep("lodash", "4.17.19"), "package.json")
	table.Add(dep("lodash", "4.17.21"), "package.json")

	if table.Len() != 2 {
		t.Errorf("Len = %d, want 2", table.Len())
	}
}

func TestTable_MaterializePreservesDiscoveryOrder(t *testing.T) {
	table := NewTable()
	table.Add(dep("express", "4.18.2"), "package.json")
	table.Add(dep("lodash", "4.17.19"), "package.json")
	table.Add(dep("lodash", "4.17.19"), "web/package.json")
	table.Add(dep("axios", "1.6.0"), "web/package.json")

	if got, want := table.Paths(), []string{"package.json", "web/package.json"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Paths = %v, want %v", got, want)
	}

	groups := table.Materialize()
	names := func(group []*Dependency) []string {
		out := make([]string, len(group))
		for i, d := range group {
			out[i] = d.Name
		}
		return out
	}

	if got, want := names(groups["package.json"]), []string{"express", "lodash"}; !reflect.DeepEqual(got, want) {
		t.Errorf("package.json group = %v, want %v", got, want)
	}
	if got, want := names(groups["web/package.json"]), []string{"lodash", "axios"}; !reflect.DeepEqual(got, want) {
		t.Errorf("web/package.json group = %v, want %v", got, want)
	}

	// Shared identity resolves to the same canonical instance in both groups.
	if groups["package.json"][1] != groups["web/package.json"][0] {
		t.Error("shared dependency is not the same instance in both groups")
	}
}

func TestTable_TouchFileKeepsEmptyManifests(t *testing.T) {
	table := NewTable()
	table.TouchFile("empty/package.json")
	table.Add(dep("express", "4.18.2"), "package.json")

	groups := table.Materialize()
	group, ok := groups["empty/package.json"]
	if !ok {
		t.Fatal("touched file missing from Materialize")
	}
	if len(group) != 0 {
		t.Errorf("empty manifest group has %d entries, want 0", len(group))
	}
}
