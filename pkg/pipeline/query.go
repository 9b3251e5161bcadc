package pipeline

import (
	"context"

	"github.com/matzehuels/cellar/pkg/deps"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/keg"
	"github.com/matzehuels/cellar/pkg/link"
	"github.com/matzehuels/cellar/pkg/safety"
)

// Outdated lists installed formulae whose active version differs from the
// version the provider currently serves. Formulae the provider no longer
// knows are skipped.
func (i *Installer) Outdated(ctx context.Context) ([]Outdated, error) {
	names, err := i.Layout.InstalledNames()
	if err != nil {
		return nil, err
	}
	var out []Outdated
	for _, name := range names {
		active, err := i.Layout.ActiveKeg(name)
		if err != nil {
			return nil, err
		}
		f, err := i.Provider.Formula(ctx, name, false)
		if errors.Is(err, errors.ErrCodePackageNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !f.Installable() || active.Version == f.PkgVersion() {
			continue
		}
		out = append(out, Outdated{
			Name:      name,
			Installed: active.Version,
			Current:   f.PkgVersion(),
			Pinned:    i.Layout.IsPinned(name) || f.Pinned,
		})
	}
	return out, nil
}

// Uses lists the formulae whose runtime dependencies include name, directly
// or transitively. With installedOnly, or when the provider cannot list
// its formulae, only installed formulae are considered.
func (i *Installer) Uses(ctx context.Context, name string, installedOnly bool) ([]string, error) {
	name = deps.ShortName(name)
	var candidates []string
	if lister, ok := i.Provider.(deps.Lister); ok && !installedOnly {
		names, err := lister.FormulaNames(ctx)
		if err != nil {
			return nil, err
		}
		candidates = names
	} else {
		names, err := i.Layout.InstalledNames()
		if err != nil {
			return nil, err
		}
		candidates = names
	}
	return i.Checker.FindDependents(ctx, name, candidates)
}

// Leaves lists installed formulae nothing else depends on, narrowed by
// filter.
func (i *Installer) Leaves(ctx context.Context, filter safety.LeafFilter) ([]string, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	installed, err := i.Layout.InstalledNames()
	if err != nil {
		return nil, err
	}
	casks, err := i.Layout.InstalledCasks()
	if err != nil {
		return nil, err
	}
	reverse, err := i.Checker.ReverseMap(ctx, installed, casks)
	if err != nil {
		return nil, err
	}
	return i.Checker.FilterLeaves(safety.Leaves(installed, reverse), filter)
}

// Link links the active keg of each name into the prefix.
func (i *Installer) Link(names []string, opts link.Options) ([]Result, error) {
	return i.eachActive(names, func(k keg.Keg) (link.Result, error) { return i.Linker.Link(k, opts) })
}

// Unlink removes the prefix symlinks of every keg of each name.
func (i *Installer) Unlink(names []string, opts link.Options) ([]Result, error) {
	var results []Result
	for _, name := range names {
		name = deps.ShortName(name)
		kegs, err := i.Layout.Kegs(name)
		if err != nil {
			return results, err
		}
		if len(kegs) == 0 {
			return results, errors.New(errors.ErrCodeNotInstalled, "%s is not installed", name)
		}
		res := Result{Name: name, Requested: true, Keg: kegs[len(kegs)-1], Version: kegs[len(kegs)-1].Version}
		for _, k := range kegs {
			lr, err := i.Linker.Unlink(k, opts)
			if err != nil {
				res.Status, res.Err = StatusFailed, err
				return append(results, res), err
			}
			res.Linked += lr.Count
		}
		res.Status = StatusPlanned
		if !opts.DryRun {
			res.Status = StatusUnlinked
		}
		results = append(results, res)
	}
	return results, nil
}

func (i *Installer) eachActive(names []string, fn func(keg.Keg) (link.Result, error)) ([]Result, error) {
	var results []Result
	for _, name := range names {
		k, err := i.Layout.ActiveKeg(deps.ShortName(name))
		if err != nil {
			return results, err
		}
		lr, err := fn(k)
		res := Result{Name: k.Name, Version: k.Version, Keg: k, Requested: true, Linked: lr.Count}
		switch {
		case err != nil:
			res.Status, res.Err = StatusFailed, err
			return append(results, res), err
		case lr.AlreadyLinked:
			res.Status = StatusAlreadyLinked
		default:
			res.Status = StatusLinked
		}
		results = append(results, res)
	}
	return results, nil
}

// Installed returns every installed keg, grouped by name and oldest first,
// with its receipt. Kegs without a readable receipt get an empty one.
func (i *Installer) Installed() ([]keg.Keg, map[keg.Keg]*keg.Tab, error) {
	kegs, err := i.Layout.Installed()
	if err != nil {
		return nil, nil, err
	}
	tabs := make(map[keg.Keg]*keg.Tab, len(kegs))
	for _, k := range kegs {
		tab, err := i.Layout.ReadTab(k)
		if err != nil {
			tab = &keg.Tab{}
		}
		tabs[k] = tab
	}
	return kegs, tabs, nil
}
