// Package manifests registers every supported manifest parser.
//
// It exists as a separate package so pkg/deps stays import-free of the
// per-ecosystem parser packages (which all import pkg/deps for the model).
package manifests

import (
	"github.com/stackaudit/stackaudit/pkg/deps"
	"github.com/stackaudit/stackaudit/pkg/deps/dart"
	"github.com/stackaudit/stackaudit/pkg/deps/java"
	"github.com/stackaudit/stackaudit/pkg/deps/javascript"
	"github.com/stackaudit/stackaudit/pkg/deps/php"
	"github.com/stackaudit/stackaudit/pkg/deps/python"
	"github.com/stackaudit/stackaudit/pkg/deps/ruby"
	"github.com/stackaudit/stackaudit/pkg/deps/rust"
)

// All returns one parser per supported manifest format.
func All() []deps.Parser {
	return []deps.Parser{
		&javascript.PackageJSON{},
		&python.Requirements{},
		&java.POM{},
		&ruby.Gemfile{},
		&php.ComposerJSON{},
		&dart.Pubspec{},
		&rust.CargoToml{},
	}
}
