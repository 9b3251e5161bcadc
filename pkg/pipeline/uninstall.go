package pipeline

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/matzehuels/cellar/pkg/deps"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/keg"
	"github.com/matzehuels/cellar/pkg/link"
)

// Uninstall removes the named formulae. Every name must be installed.
//
// Unless opts.Force or opts.IgnoreDependencies is set, a formula that other
// installed formulae still depend on is refused with REFUSING_TO_UNINSTALL
// listing them; formulae removed in the same call do not count. All checks
// run before anything is removed.
//
// Without Force only the active keg goes; when other versions remain the
// opt alias moves to the newest of them. With Force every version goes.
func (i *Installer) Uninstall(ctx context.Context, names []string, opts UninstallOptions) ([]Result, error) {
	targets := make([]string, 0, len(names))
	for _, name := range names {
		name = deps.ShortName(name)
		versions, err := i.Layout.Versions(name)
		if err != nil {
			return nil, err
		}
		if _, dangling := i.Layout.OptTarget(name); len(versions) == 0 && !dangling {
			return nil, errors.New(errors.ErrCodeNotInstalled,
				"%s is not installed (no such keg: %s)", name, filepath.Join(i.Layout.Cellar, name))
		}
		if !slices.Contains(targets, name) {
			targets = append(targets, name)
		}
	}

	if !opts.Force && !opts.IgnoreDependencies {
		installed, err := i.Layout.InstalledNames()
		if err != nil {
			return nil, err
		}
		for _, name := range targets {
			dependents, err := i.Checker.FindDependents(ctx, name, installed)
			if err != nil {
				return nil, err
			}
			dependents = slices.DeleteFunc(dependents, func(d string) bool { return slices.Contains(targets, d) })
			if len(dependents) > 0 {
				return nil, &errors.DependentsError{Name: name, Dependents: dependents}
			}
		}
	}

	var results []Result
	for _, name := range targets {
		res, err := i.uninstallOne(name, opts.Force)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (i *Installer) uninstallOne(name string, all bool) (Result, error) {
	res := Result{Name: name, Requested: true}
	lock, err := i.Layout.Lock(name)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res, err
	}
	defer lock.Release()

	active, err := i.Layout.ActiveKeg(name)
	if errors.Is(err, errors.ErrCodeNotInstalled) {
		if stale, ok := i.Layout.OptTarget(name); ok {
			return i.removeStale(name, stale)
		}
	}
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res, err
	}
	victims := []keg.Keg{active}
	if all {
		if victims, err = i.Layout.Kegs(name); err != nil {
			res.Status, res.Err = StatusFailed, err
			return res, err
		}
	}

	unlinked, err := i.removeKegs(name, victims)
	res.Keg, res.Version, res.Linked = active, active.Version, unlinked
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res, err
	}
	res.Status = StatusUninstalled
	return res, nil
}

// removeStale cleans up after a keg that vanished from the Cellar while its
// opt alias and prefix links stayed behind.
func (i *Installer) removeStale(name string, stale keg.Keg) (Result, error) {
	res := Result{Name: name, Version: stale.Version, Keg: stale, Requested: true}
	lr, err := i.Linker.Unlink(stale, link.Options{})
	res.Linked = lr.Count
	if err == nil {
		err = i.Layout.RemoveOpt(name)
	}
	if err == nil {
		_, err = i.Layout.Unpin(name)
	}
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res, err
	}
	i.Logger.Warn("keg was already gone, removed leftover links", "keg", stale.String(), "symlinks", lr.Count)
	res.Status = StatusUninstalled
	return res, nil
}

// removeKegs unlinks and deletes kegs of name, then fixes up the opt alias
// and pin. It returns the number of prefix symlinks removed.
func (i *Installer) removeKegs(name string, kegs []keg.Keg) (int, error) {
	active, hasActive := i.activeKeg(name)
	unlinked := 0
	for _, k := range kegs {
		lr, err := i.Linker.Unlink(k, link.Options{})
		if err != nil {
			return unlinked, err
		}
		unlinked += lr.Count
		if hasActive && k == active {
			if err := i.Layout.RemoveOpt(name); err != nil {
				return unlinked, err
			}
		}
		if err := i.Layout.Remove(k); err != nil {
			return unlinked, err
		}
		i.Logger.Info("uninstalled", "keg", k.String(), "symlinks", lr.Count)
	}

	remaining, err := i.Layout.Kegs(name)
	if err != nil {
		return unlinked, err
	}
	if len(remaining) == 0 {
		if err := i.Layout.RemoveOpt(name); err != nil {
			return unlinked, err
		}
		if _, err := i.Layout.Unpin(name); err != nil {
			return unlinked, err
		}
		return unlinked, nil
	}
	if !i.Layout.HasOpt(name) {
		newest := remaining[len(remaining)-1]
		if err := i.Layout.LinkOpt(newest); err != nil {
			return unlinked, err
		}
		i.Logger.Info("other versions remain", "name", name, "active", newest.Version)
	}
	return unlinked, nil
}

// Autoremove uninstalls formulae that were only installed as dependencies
// and that nothing installed needs any more, including formulae freed up
// by earlier removals in the same run.
func (i *Installer) Autoremove(ctx context.Context, opts AutoremoveOptions) ([]Result, error) {
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
	candidates, err := i.Checker.AutoremoveCandidates(installed, reverse)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, name := range candidates {
		kegs, err := i.Layout.Kegs(name)
		if err != nil {
			return results, err
		}
		res := Result{Name: name}
		if len(kegs) > 0 {
			res.Keg, res.Version = kegs[len(kegs)-1], kegs[len(kegs)-1].Version
		}
		if opts.DryRun {
			res.Status = StatusPlanned
			results = append(results, res)
			continue
		}

		lock, err := i.Layout.Lock(name)
		if err != nil {
			res.Status, res.Err = StatusFailed, err
			return append(results, res), err
		}
		res.Linked, err = i.removeKegs(name, kegs)
		lock.Release()
		if err != nil {
			res.Status, res.Err = StatusFailed, err
			return append(results, res), err
		}
		res.Status = StatusUninstalled
		results = append(results, res)
	}
	return results, nil
}
