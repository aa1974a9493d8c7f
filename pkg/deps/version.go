package deps

import (
	"regexp"
	"strings"
)

// UnknownVersion is the sentinel for versions that cannot be resolved to a
// concrete release (commit hashes, git/path references, empty input).
// Dependencies with an unknown version are skipped during transitive
// resolution.
const UnknownVersion = "unknown"

var (
	rangePrefixRE = regexp.MustCompile(`^(\^|~|>=|<=|>|<)+\s*`)
	hexRE         = regexp.MustCompile(`^[0-9a-fA-F]{7,}$`)
	letterRE      = regexp.MustCompile(`[a-fA-F]`)
	leadingNumRE  = regexp.MustCompile(`^\d+`)
)

// NormalizeVersion reduces a version requirement string to a concrete
// version, applying the same rules for every ecosystem:
//
//   - leading range operators (^ ~ >= <= > <) are stripped
//   - major-only ("3") and major.minor ("1.2") versions are completed with
//     trailing .0 components
//   - wildcard components (x, X, *) become 0
//   - hex strings of length >= 7 containing a hex letter (commit hashes)
//     resolve to [UnknownVersion]
//   - a first numeric component longer than 9 digits resolves to
//     [UnknownVersion] (hash-like garbage)
//   - empty or already-unknown input returns [UnknownVersion]
//
// The function is idempotent: normalizing a normalized version is a no-op.
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == UnknownVersion {
		return UnknownVersion
	}

	v = rangePrefixRE.ReplaceAllString(v, "")
	v = strings.TrimSpace(v)
	if v == "" {
		return UnknownVersion
	}

	// Commit hashes: hex-only, at least 7 chars, with at least one a-f so
	// plain numeric versions are not misclassified.
	if hexRE.MatchString(v) && letterRE.MatchString(v) {
		return UnknownVersion
	}

	parts := strings.Split(v, ".")
	for i, p := range parts {
		if p == "x" || p == "X" || p == "*" {
			parts[i] = "0"
		}
	}

	// Guard against hash-like garbage being mistaken for a version.
	if lead := leadingNumRE.FindString(parts[0]); len(lead) > 9 {
		return UnknownVersion
	}

	for len(parts) < 3 {
		if !leadingNumRE.MatchString(parts[len(parts)-1]) {
			break
		}
		parts = append(parts, "0")
	}

	return strings.Join(parts, ".")
}
