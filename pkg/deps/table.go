package deps

// Table is the global dependency table for one audit run, keyed by
// name@version@ecosystem. The same logical dependency appearing in two
// manifests is stored once and referenced from both groups, so enrichment
// never produces diverging copies of the same package.
//
// Table is not safe for concurrent mutation; the pipeline mutates it only
// between waves (single writer).
type Table struct {
	entries map[string]*Dependency
	files   map[string][]string // identity -> manifest paths referencing it
	perFile map[string][]string // manifest path -> identity keys, discovery order
	order   []string            // insertion order of manifest paths
	seen    map[string]bool     // identity+path pairs already recorded
}

// NewTable creates an empty dependency table.
func NewTable() *Table {
	return &Table{
		entries: make(map[string]*Dependency),
		files:   make(map[string][]string),
		perFile: make(map[string][]string),
		seen:    make(map[string]bool),
	}
}

// Add inserts dep under its identity if absent and records filePath against
// that identity. File paths are deduplicated per identity. The stored
// dependency is returned, so callers observe the canonical instance.
func (t *Table) Add(dep Dependency, filePath string) *Dependency {
	key := dep.Key()
	stored, ok := t.entries[key]
	if !ok {
		d := dep
		stored = &d
		t.entries[key] = stored
	}

	pair := key + "\x00" + filePath
	if !t.seen[pair] {
		t.seen[pair] = true
		t.files[key] = append(t.files[key], filePath)
		if _, ok := t.perFile[filePath]; !ok {
			t.order = append(t.order, filePath)
		}
		t.perFile[filePath] = append(t.perFile[filePath], key)
	}
	return stored
}

// TouchFile registers a manifest path with no dependencies yet, so files
// that parsed cleanly but declared nothing still appear in Materialize.
func (t *Table) TouchFile(path string) {
	if _, ok := t.perFile[path]; !ok {
		t.perFile[path] = []string{}
		t.order = append(t.order, path)
	}
}

// Get returns the canonical dependency for an identity key.
func (t *Table) Get(key string) (*Dependency, bool) {
	d, ok := t.entries[key]
	return d, ok
}

// Len returns the number of distinct dependencies in the table.
func (t *Table) Len() int { return len(t.entries) }

// All returns every canonical dependency. Order is unspecified.
func (t *Table) All() []*Dependency {
	out := make([]*Dependency, 0, len(t.entries))
	for _, d := range t.entries {
		out = append(out, d)
	}
	return out
}

// Files returns the deduplicated manifest paths referencing an identity.
func (t *Table) Files(key string) []string {
	return t.files[key]
}

// Materialize reconstitutes the manifest-path -> dependencies grouping by
// replaying the per-file index in discovery order. Groups share the
// canonical *Dependency instances; they are never duplicated.
func (t *Table) Materialize() map[string][]*Dependency {
	groups := make(map[string][]*Dependency, len(t.order))
	for _, path := range t.order {
		keys := t.perFile[path]
		group := make([]*Dependency, 0, len(keys))
		for _, key := range keys {
			group = append(group, t.entries[key])
		}
		groups[path] = group
	}
	return groups
}

// Paths returns the manifest paths in discovery order.
func (t *Table) Paths() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}
