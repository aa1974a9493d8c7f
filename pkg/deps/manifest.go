package deps

import (
	"path/filepath"
	"strings"
)

// Parser reads direct dependencies out of one manifest format. Parsers are
// pure text transforms: they receive raw file contents (the engine is
// agnostic to where files come from) and return dependencies with
// normalized versions.
type Parser interface {
	// Ecosystem returns the ecosystem this parser produces dependencies for.
	Ecosystem() Ecosystem
	// Type returns the manifest type identifier (e.g. "package.json").
	Type() string
	// Supports reports whether this parser handles the given filename.
	Supports(filename string) bool
	// Parse extracts name/version pairs from the manifest contents.
	Parse(data []byte) ([]Dependency, error)
}

// Detect finds a parser that supports the given file path.
// Returns ok=false if no parser matches.
func Detect(path string, parsers []Parser) (Parser, bool) {
	name := filepath.Base(path)
	for _, p := range parsers {
		if p.Supports(name) {
			return p, true
		}
	}
	return nil, false
}

// IsManifestFilename reports whether name looks like a manifest any of the
// given parsers can handle. Used by file-tree scanners to pre-filter paths.
func IsManifestFilename(name string, parsers []Parser) bool {
	_, ok := Detect(name, parsers)
	return ok
}

// SkipDir reports whether a directory should be skipped while scanning a
// source tree for manifests (dependency install dirs, VCS metadata).
func SkipDir(name string) bool {
	switch strings.ToLower(name) {
	case "node_modules", "vendor", ".git", ".hg", ".svn", "dist", "build", "__pycache__", ".venv", "venv":
		return true
	}
	return false
}
