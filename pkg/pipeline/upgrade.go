package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/matzehuels/cellar/pkg/dag"
	"github.com/matzehuels/cellar/pkg/deps"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/keg"
	"github.com/matzehuels/cellar/pkg/link"
)

// Upgrade installs the current version of each named formula whose active
// keg is out of date. No names means every installed formula. Pinned
// formulae are reported and left alone.
//
// Missing dependencies of the new versions are installed first. Each
// upgraded formula is unlinked, poured, linked and, unless opts.KeepOld is
// set or cleanup is disabled, stripped of its superseded versions. A failed
// cleanup is reported on the Result and does not undo the upgrade.
func (i *Installer) Upgrade(ctx context.Context, names []string, opts UpgradeOptions) ([]Result, error) {
	explicit := len(names) > 0
	if !explicit {
		var err error
		if names, err = i.Layout.InstalledNames(); err != nil {
			return nil, err
		}
	}

	var results []Result
	var outdated []*deps.Formula
	old := make(map[string]keg.Keg)
	for _, name := range names {
		name = deps.ShortName(name)
		active, err := i.Layout.ActiveKeg(name)
		if err != nil {
			return results, err
		}
		f, err := i.Provider.Formula(ctx, name, false)
		if err != nil {
			if !explicit && errors.Is(err, errors.ErrCodePackageNotFound) {
				i.Logger.Warn("skipping formula missing from the registry", "name", name)
				continue
			}
			return results, err
		}
		res := Result{Name: name, Version: f.PkgVersion(), OldVersion: active.Version, Requested: explicit, Keg: active}
		switch {
		case i.Layout.IsPinned(name) || f.Pinned:
			res.Status = StatusPinned
			i.Logger.Info("not upgrading pinned formula", "name", name, "version", active.Version)
			results = append(results, res)
		case !f.Installable():
			return results, errors.New(errors.ErrCodeNoStableVersion, "%s has no stable version to pour", name)
		case active.Version == f.PkgVersion():
			if explicit {
				res.Status = StatusUpToDate
				results = append(results, res)
			}
		default:
			outdated = append(outdated, f)
			old[name] = active
		}
	}
	if len(outdated) == 0 {
		return results, nil
	}

	queue, g, err := i.plan(ctx, outdated, nil, false)
	if err != nil {
		return results, err
	}
	if opts.DryRun {
		for _, f := range queue {
			if prev, ok := old[f.Name]; ok {
				results = append(results, Result{Name: f.Name, Version: f.PkgVersion(), OldVersion: prev.Version,
					Status: StatusPlanned, Requested: explicit, Keg: i.Layout.Keg(f.Name, f.PkgVersion())})
			} else if !i.Layout.HasOpt(f.Name) {
				results = append(results, Result{Name: f.Name, Version: f.PkgVersion(), Status: StatusPlanned,
					Keg: i.Layout.Keg(f.Name, f.PkgVersion())})
			}
		}
		return results, nil
	}

	for _, f := range queue {
		prev, upgrading := old[f.Name]
		if !upgrading {
			// a dependency; poured only when missing
			depResults, err := i.installQueue(ctx, []*deps.Formula{f}, g, nil, Options{})
			for _, r := range depResults {
				if r.Status != StatusAlreadyInstalled {
					results = append(results, r)
				}
			}
			if err != nil {
				return results, err
			}
			continue
		}
		res, err := i.upgradeOne(ctx, f, prev, g, opts)
		res.Requested = explicit
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (i *Installer) upgradeOne(ctx context.Context, f *deps.Formula, prev keg.Keg, g *dag.DAG, opts UpgradeOptions) (Result, error) {
	res := Result{Name: f.Name, Version: f.PkgVersion(), OldVersion: prev.Version}
	fail := func(err error) (Result, error) {
		res.Status = StatusFailed
		res.Err = err
		return res, err
	}

	lock, err := i.Layout.Lock(f.Name)
	if err != nil {
		return fail(err)
	}
	defer lock.Release()

	asDependency := false
	if tab, err := i.Layout.ReadTab(prev); err == nil {
		asDependency = tab.InstalledAsDependency
	}

	if _, err := i.Linker.Unlink(prev, link.Options{}); err != nil {
		return fail(fmt.Errorf("unlink %s: %w", prev, err))
	}

	k, err := i.pour(ctx, f, asDependency, runtimeClosure(ctx, i.Provider, g, f))
	if err != nil {
		i.restore(ctx, f, prev)
		return fail(err)
	}
	res.Keg = k
	i.link(ctx, f, k, &res)

	if !opts.KeepOld && i.Cleanup {
		res.CleanupErr = i.removeOtherVersions(f.Name, k)
		if res.CleanupErr != nil {
			i.Logger.Warn("could not remove old versions", "name", f.Name, "err", res.CleanupErr)
		}
	}
	res.Status = StatusUpgraded
	return res, nil
}

// restore relinks the previous keg after a failed upgrade. The new keg was
// staged, so the previous one is still on disk.
func (i *Installer) restore(ctx context.Context, f *deps.Formula, prev keg.Keg) {
	if !i.Layout.Exists(prev) {
		return
	}
	if err := i.Layout.LinkOpt(prev); err != nil {
		i.Logger.Warn("could not restore opt alias", "keg", prev.String(), "err", err)
		return
	}
	var res Result
	i.link(ctx, f, prev, &res)
}

// removeOtherVersions deletes every keg of name except keep, unlinking each
// first.
func (i *Installer) removeOtherVersions(name string, keep keg.Keg) error {
	kegs, err := i.Layout.Kegs(name)
	if err != nil {
		return err
	}
	var errs []error
	for _, k := range kegs {
		if k == keep {
			continue
		}
		if _, err := i.Linker.Unlink(k, link.Options{}); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := i.Layout.Remove(k); err != nil {
			errs = append(errs, err)
			continue
		}
		i.Logger.Info("removed old version", "keg", k.String())
	}
	return stderrors.Join(errs...)
}
