// Package safety decides which installed formulae other installed software
// still needs. Uninstall consults [Checker.FindDependents]; leaves and
// autoremove sweep the whole system through a [ReverseMap].
package safety

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cellar/pkg/deps"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/keg"
)

// CaskPrefix marks reverse-map dependents that are casks.
const CaskPrefix = "cask:"

// Checker answers dependency questions about installed formulae.
type Checker struct {
	provider deps.Provider
	layout   *keg.Layout
	logger   *log.Logger
}

// NewChecker creates a Checker. Descriptors come from provider; the layout
// supplies install receipts and serves as fallback for formulae the
// provider no longer knows.
func NewChecker(provider deps.Provider, layout *keg.Layout, logger *log.Logger) *Checker {
	if logger == nil {
		logger = log.Default()
	}
	return &Checker{provider: provider, layout: layout, logger: logger}
}

// runtimeDeps returns the direct runtime dependencies of an installed
// formula. Formulae missing from the provider fall back to the receipt of
// their active keg.
func (c *Checker) runtimeDeps(ctx context.Context, name string) ([]string, error) {
	f, err := c.provider.Formula(ctx, name, false)
	if err == nil {
		return f.DependencyNames(), nil
	}
	if !errors.Is(err, errors.ErrCodePackageNotFound) {
		return nil, err
	}
	k, kerr := c.layout.ActiveKeg(name)
	if kerr != nil {
		return nil, err
	}
	tab, terr := c.layout.ReadTab(k)
	if terr != nil {
		return nil, err
	}
	c.logger.Debug("using receipt for unknown formula", "name", name)
	names := make([]string, 0, len(tab.RuntimeDependencies))
	for _, d := range tab.RuntimeDependencies {
		names = append(names, deps.ShortName(d.FullName))
	}
	return names, nil
}

// FindDependents returns the installed formulae other than name whose
// runtime dependencies include name, directly or transitively. The result
// is sorted.
func (c *Checker) FindDependents(ctx context.Context, name string, installed []string) ([]string, error) {
	memo := make(map[string][]string)
	lookup := func(n string) ([]string, error) {
		if d, ok := memo[n]; ok {
			return d, nil
		}
		d, err := c.runtimeDeps(ctx, n)
		if err != nil {
			return nil, err
		}
		memo[n] = d
		return d, nil
	}

	var dependsOn func(n string, visited map[string]bool) (bool, error)
	dependsOn = func(n string, visited map[string]bool) (bool, error) {
		if visited[n] {
			return false, nil
		}
		visited[n] = true
		direct, err := lookup(n)
		if err != nil {
			return false, err
		}
		for _, d := range direct {
			if d == name {
				return true, nil
			}
			ok, err := dependsOn(d, visited)
			if err != nil {
				if errors.Is(err, errors.ErrCodePackageNotFound) {
					continue
				}
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	var dependents []string
	for _, other := range installed {
		if other == name {
			continue
		}
		ok, err := dependsOn(other, make(map[string]bool))
		if errors.Is(err, errors.ErrCodePackageNotFound) {
			c.logger.Warn("skipping formula without descriptor or receipt", "name", other)
			continue
		}
		if err != nil {
			return nil, err
		}
		if ok {
			dependents = append(dependents, other)
		}
	}
	slices.Sort(dependents)
	return dependents, nil
}

// ReverseMap maps a formula to the installed formulae and casks that
// declare it as a runtime dependency.
type ReverseMap map[string]map[string]struct{}

func (m ReverseMap) add(dep, dependent string) {
	set, ok := m[dep]
	if !ok {
		set = make(map[string]struct{})
		m[dep] = set
	}
	set[dependent] = struct{}{}
}

// Dependents returns the dependents of name, sorted.
func (m ReverseMap) Dependents(name string) []string {
	out := make([]string, 0, len(m[name]))
	for d := range m[name] {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// Has reports whether anything depends on name.
func (m ReverseMap) Has(name string) bool { return len(m[name]) > 0 }

// drop removes name as a dependent everywhere.
func (m ReverseMap) drop(name string) {
	for dep, set := range m {
		delete(set, name)
		if len(set) == 0 {
			delete(m, dep)
		}
	}
}

// ReverseMap builds the reverse dependency map of the installed formulae,
// plus a "cask:<token>" dependent for each formula an installed cask
// requires. Build it once per invocation and reuse it for every query.
func (c *Checker) ReverseMap(ctx context.Context, installed, casks []string) (ReverseMap, error) {
	m := make(ReverseMap)
	for _, name := range installed {
		direct, err := c.runtimeDeps(ctx, name)
		if err != nil {
			if errors.Is(err, errors.ErrCodePackageNotFound) {
				c.logger.Warn("skipping formula without descriptor or receipt", "name", name)
				continue
			}
			return nil, err
		}
		for _, d := range direct {
			m.add(d, name)
		}
	}
	for _, token := range casks {
		cask, err := c.provider.Cask(ctx, token)
		if err != nil {
			if errors.Is(err, errors.ErrCodePackageNotFound) {
				continue
			}
			return nil, err
		}
		for _, f := range cask.DependsOnFormulae {
			m.add(deps.ShortName(f), CaskPrefix+token)
		}
	}
	return m, nil
}

// Leaves returns the installed formulae nothing depends on, sorted.
func Leaves(installed []string, reverse ReverseMap) []string {
	var leaves []string
	for _, name := range installed {
		if !reverse.Has(name) {
			leaves = append(leaves, name)
		}
	}
	slices.Sort(leaves)
	return leaves
}

// LeafFilter narrows leaves by how they were installed. At most one field
// may be set.
type LeafFilter struct {
	OnRequest    bool
	AsDependency bool
}

// Validate rejects filters that set both directions.
func (f LeafFilter) Validate() error {
	if f.OnRequest && f.AsDependency {
		return errors.New(errors.ErrCodeInvalidInput,
			"--installed-on-request and --installed-as-dependency are mutually exclusive")
	}
	return nil
}

// FilterLeaves applies filter using the receipts of each leaf's active keg.
func (c *Checker) FilterLeaves(leaves []string, filter LeafFilter) ([]string, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if !filter.OnRequest && !filter.AsDependency {
		return leaves, nil
	}
	var out []string
	for _, name := range leaves {
		tab, err := c.tab(name)
		if err != nil {
			return nil, err
		}
		if (filter.OnRequest && tab.InstalledOnRequest) || (filter.AsDependency && tab.InstalledAsDependency) {
			out = append(out, name)
		}
	}
	return out, nil
}

// AutoremoveCandidates returns the formulae that were only installed as
// dependencies and are no longer needed, in removal order.
//
// Leaves installed as dependencies are taken in rounds; after each round
// they stop counting as dependents, which may expose more leaves. The
// reverse map is updated in place.
func (c *Checker) AutoremoveCandidates(installed []string, reverse ReverseMap) ([]string, error) {
	remaining := slices.Clone(installed)
	var removed []string
	for {
		var round []string
		for _, name := range Leaves(remaining, reverse) {
			tab, err := c.tab(name)
			if err != nil {
				return nil, err
			}
			if tab.InstalledAsDependency {
				round = append(round, name)
			}
		}
		if len(round) == 0 {
			return removed, nil
		}
		for _, name := range round {
			reverse.drop(name)
		}
		remaining = slices.DeleteFunc(remaining, func(n string) bool { return slices.Contains(round, n) })
		removed = append(removed, round...)
	}
}

func (c *Checker) tab(name string) (*keg.Tab, error) {
	k, err := c.layout.ActiveKeg(name)
	if err != nil {
		return nil, err
	}
	return c.layout.ReadTab(k)
}
