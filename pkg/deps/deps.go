package deps

import (
	"context"
	"strconv"
	"strings"
)

// Kind selects a class of declared dependencies.
type Kind int

const (
	KindRuntime Kind = iota
	KindBuild
	KindTest
	KindRecommended
	KindOptional
)

var kindNames = map[Kind]string{
	KindRuntime:     "runtime",
	KindBuild:       "build",
	KindTest:        "test",
	KindRecommended: "recommended",
	KindOptional:    "optional",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Options configures dependency resolution behavior.
type Options struct {
	Kinds   []Kind               // Extra kinds to follow in addition to runtime
	Refresh bool                 // Bypass cached descriptors
	Logger  func(string, ...any) // Progress callback (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Provider looks up package descriptors. Implementations return an error
// with code PACKAGE_NOT_FOUND when the name is unknown.
type Provider interface {
	// Formula returns the descriptor for a formula by short name. If refresh
	// is true, cached data is bypassed.
	Formula(ctx context.Context, name string, refresh bool) (*Formula, error)
	// Cask returns the descriptor for a cask by token.
	Cask(ctx context.Context, token string) (*Cask, error)
}

// Versions holds the version strings published for a formula.
type Versions struct {
	Stable string // Empty when the formula has no stable release
	Head   string
}

// BottleFile is the archive reference for one platform tag.
type BottleFile struct {
	URL    string
	SHA256 string
}

// Bottle is the per-platform archive table of a formula. The rebuild counter
// is shared across all tags.
type Bottle struct {
	Rebuild int
	Files   map[string]BottleFile // platform tag -> archive
}

// Formula is the package descriptor consumed by the resolver, the pipeline
// and the safety checker. It is read-only to those components.
type Formula struct {
	Name                    string
	FullName                string // May carry a tap namespace: owner/tap/name
	Tap                     string
	Description             string
	Homepage                string
	Versions                Versions
	Revision                int
	Dependencies            []string // Runtime
	BuildDependencies       []string
	TestDependencies        []string
	RecommendedDependencies []string
	OptionalDependencies    []string
	Bottle                  *Bottle
	Pinned                  bool
	KegOnly                 bool
}

// Installable reports whether the formula can be poured from a bottle. A
// formula without a stable version cannot.
func (f *Formula) Installable() bool { return f.Versions.Stable != "" }

// PkgVersion returns the keg version: the stable version, suffixed with
// "_<revision>" when the formula has been revised.
func (f *Formula) PkgVersion() string {
	if f.Revision > 0 {
		return f.Versions.Stable + "_" + strconv.Itoa(f.Revision)
	}
	return f.Versions.Stable
}

// DependencyNames returns runtime dependencies followed by those of each
// requested kind in build, test, recommended, optional order. Declaration
// order is kept and the first occurrence of a name wins.
func (f *Formula) DependencyNames(kinds ...Kind) []string {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	groups := []struct {
		kind  Kind
		names []string
	}{
		{KindRuntime, f.Dependencies},
		{KindBuild, f.BuildDependencies},
		{KindTest, f.TestDependencies},
		{KindRecommended, f.RecommendedDependencies},
		{KindOptional, f.OptionalDependencies},
	}

	seen := make(map[string]bool)
	var out []string
	for _, g := range groups {
		if g.kind != KindRuntime && !want[g.kind] {
			continue
		}
		for _, name := range g.names {
			name = ShortName(name)
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// Metadata converts Formula fields to a map for node metadata.
func (f *Formula) Metadata() map[string]any {
	m := map[string]any{"version": f.PkgVersion()}
	if f.Description != "" {
		m["description"] = f.Description
	}
	if f.Tap != "" {
		m["tap"] = f.Tap
	}
	if f.KegOnly {
		m["keg_only"] = true
	}
	if f.Pinned {
		m["pinned"] = true
	}
	return m
}

// Cask is the descriptor of a GUI application package. Only its formula
// dependencies matter here: they keep those formulae from being treated as
// removable leaves.
type Cask struct {
	Token             string
	DependsOnFormulae []string
}

// ShortName strips a tap namespace ("homebrew/core/wget" → "wget").
func ShortName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Lister is implemented by providers that can enumerate every formula they
// serve, not just look them up by name.
type Lister interface {
	FormulaNames(ctx context.Context) ([]string, error)
}
