package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cellar/pkg/bottle"
	"github.com/matzehuels/cellar/pkg/config"
	"github.com/matzehuels/cellar/pkg/dag"
	"github.com/matzehuels/cellar/pkg/deps"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/keg"
	"github.com/matzehuels/cellar/pkg/link"
	"github.com/matzehuels/cellar/pkg/observability"
	"github.com/matzehuels/cellar/pkg/safety"
)

// Installer runs install, upgrade and removal operations against one
// prefix. Operations are sequential; separate processes are kept apart by
// per-formula locks.
type Installer struct {
	Layout    *keg.Layout
	Provider  deps.Provider
	Resolver  *deps.Resolver
	Fetcher   *bottle.Fetcher
	Linker    *link.Linker
	Checker   *safety.Checker
	Tag       string // Bottle platform tag
	Downloads string // Bottle download cache
	Cleanup   bool   // Remove superseded versions after upgrade
	Logger    *log.Logger
}

// New wires an Installer from configuration. A nil fetcher downloads
// without a response cache; a nil logger uses the default logger.
func New(cfg *config.Config, tag string, provider deps.Provider, fetcher *bottle.Fetcher, logger *log.Logger) *Installer {
	if logger == nil {
		logger = log.Default()
	}
	if fetcher == nil {
		fetcher = bottle.NewFetcher(nil, logger)
	}
	layout := keg.NewLayout(cfg.Prefix, cfg.Cellar)
	return &Installer{
		Layout:    layout,
		Provider:  provider,
		Resolver:  deps.NewResolver(provider),
		Fetcher:   fetcher,
		Linker:    link.New(cfg.Prefix, layout.FS, logger),
		Checker:   safety.NewChecker(provider, layout, logger),
		Tag:       tag,
		Downloads: cfg.DownloadsDir(),
		Cleanup:   !cfg.NoInstallCleanup,
		Logger:    logger,
	}
}

// descriptor fetches an installable descriptor for a user-supplied name.
func (i *Installer) descriptor(ctx context.Context, name string) (*deps.Formula, error) {
	name = deps.ShortName(name)
	if err := errors.ValidateFormulaName(name); err != nil {
		return nil, err
	}
	f, err := i.Provider.Formula(ctx, name, false)
	if err != nil {
		return nil, err
	}
	if !f.Installable() {
		return nil, errors.New(errors.ErrCodeNoStableVersion, "%s has no stable version to pour", name)
	}
	return f, nil
}

// plan returns the formulae to consider, dependencies first, and the graph
// they came from. With ignoreDeps the graph holds only the roots.
func (i *Installer) plan(ctx context.Context, roots []*deps.Formula, kinds []deps.Kind, ignoreDeps bool) ([]*deps.Formula, *dag.DAG, error) {
	if ignoreDeps {
		g := dag.New(nil)
		for _, f := range roots {
			meta := dag.Metadata(f.Metadata())
			meta[deps.MetaFormula] = f
			_ = g.AddNode(dag.Node{ID: f.Name, Meta: meta})
		}
		return roots, g, nil
	}

	names := make([]string, len(roots))
	for n, f := range roots {
		names[n] = f.Name
	}
	g, err := i.Resolver.Resolve(ctx, names, deps.Options{
		Kinds:  kinds,
		Logger: func(format string, args ...any) { i.Logger.Debugf(format, args...) },
	})
	if err != nil {
		return nil, nil, err
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, nil, err
	}
	queue := make([]*deps.Formula, 0, len(order))
	for _, name := range order {
		f := deps.FormulaOf(g, name)
		if !f.Installable() {
			return nil, nil, errors.New(errors.ErrCodeNoStableVersion, "%s has no stable version to pour", name)
		}
		queue = append(queue, f)
	}
	return queue, g, nil
}

// Install pours the named formulae and, unless opts.IgnoreDependencies is
// set, their dependencies.
func (i *Installer) Install(ctx context.Context, names []string, opts Options) ([]Result, error) {
	start := time.Now()
	roots := make([]*deps.Formula, 0, len(names))
	requested := make(map[string]bool, len(names))
	for _, name := range names {
		f, err := i.descriptor(ctx, name)
		if err != nil {
			return nil, err
		}
		roots = append(roots, f)
		requested[f.Name] = true
	}

	var kinds []deps.Kind
	if opts.IncludeBuild {
		kinds = append(kinds, deps.KindBuild)
	}
	queue, g, err := i.plan(ctx, roots, kinds, opts.IgnoreDependencies)
	if err != nil {
		return nil, err
	}

	results, err := i.installQueue(ctx, queue, g, requested, opts)
	installed, failed := 0, 0
	for _, r := range results {
		switch r.Status {
		case StatusInstalled:
			installed++
		case StatusFailed:
			failed++
		}
	}
	observability.Install().OnInstallComplete(ctx, installed, failed, time.Since(start))
	return results, err
}

func (i *Installer) installQueue(ctx context.Context, queue []*deps.Formula, g *dag.DAG, requested map[string]bool, opts Options) ([]Result, error) {
	var results []Result
	for _, f := range queue {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := Result{Name: f.Name, Version: f.PkgVersion(), Requested: requested[f.Name]}

		if i.Layout.HasOpt(f.Name) && !opts.Force {
			res.Status = StatusAlreadyInstalled
			if active, err := i.Layout.ActiveKeg(f.Name); err == nil {
				res.Keg, res.Version = active, active.Version
				if res.Requested {
					if err := i.Layout.MarkInstalledOnRequest(active); err != nil {
						i.Logger.Warn("could not update receipt", "keg", active.String(), "err", err)
					}
				}
			}
			if res.Requested {
				i.Logger.Warn(fmt.Sprintf("%s %s is already installed", f.Name, res.Version),
					"hint", "to upgrade run `cellar upgrade "+f.Name+"`")
			}
			results = append(results, res)
			continue
		}

		if opts.DryRun {
			res.Status = StatusPlanned
			res.Keg = i.Layout.Keg(f.Name, f.PkgVersion())
			results = append(results, res)
			continue
		}

		if err := i.installOne(ctx, f, g, !res.Requested, opts, &res); err != nil {
			res.Status = StatusFailed
			res.Err = err
			results = append(results, res)
			return results, err
		}
		res.Status = StatusInstalled
		results = append(results, res)
	}
	return results, nil
}

// installOne pours and links a single formula under its lock.
func (i *Installer) installOne(ctx context.Context, f *deps.Formula, g *dag.DAG, asDependency bool, opts Options, res *Result) error {
	lock, err := i.Layout.Lock(f.Name)
	if err != nil {
		return err
	}
	defer lock.Release()

	previous, hadPrevious := i.activeKeg(f.Name)
	stale, staleOK := i.Layout.OptTarget(f.Name)
	k, err := i.pour(ctx, f, asDependency, runtimeClosure(ctx, i.Provider, g, f))
	if err != nil {
		return err
	}
	res.Keg = k

	if !hadPrevious {
		// A dangling opt alias names a keg deleted outside cellar. Its
		// prefix links are stale.
		previous, hadPrevious = stale, staleOK
	}
	if hadPrevious && previous != k {
		if _, err := i.Linker.Unlink(previous, link.Options{}); err != nil {
			i.Logger.Warn("could not unlink previous version", "keg", previous.String(), "err", err)
		}
	}
	if !opts.NoLink {
		i.link(ctx, f, k, res)
	}
	return nil
}

func (i *Installer) activeKeg(name string) (keg.Keg, bool) {
	k, err := i.Layout.ActiveKeg(name)
	return k, err == nil
}

// pour fetches, verifies and extracts the bottle of f, then records the keg.
// The caller holds the formula lock.
func (i *Installer) pour(ctx context.Context, f *deps.Formula, asDependency bool, runtimeDeps []*deps.Formula) (k keg.Keg, err error) {
	start := time.Now()
	version := f.PkgVersion()
	defer func() { observability.Install().OnPour(ctx, f.Name, version, time.Since(start), err) }()

	tag, file, err := bottle.Select(f, i.Tag)
	if err != nil {
		return keg.Keg{}, err
	}
	filename := bottle.Filename(f.Name, version, tag, f.Bottle.Rebuild)
	archive := bottle.CachePath(i.Downloads, file.URL, filename)
	if _, err := i.Fetcher.Fetch(ctx, f.Name, file.URL, archive, file.SHA256); err != nil {
		return keg.Keg{}, err
	}

	k = i.Layout.Keg(f.Name, version)
	if err := i.stageAndSwap(k, archive); err != nil {
		return keg.Keg{}, err
	}
	if !i.Layout.Exists(k) {
		return keg.Keg{}, errors.New(errors.ErrCodeExtractionFailed, "%s: keg %s missing after extraction", f.Name, k.Path)
	}

	if err := i.Layout.LinkOpt(k); err != nil {
		return k, err
	}
	rdeps := keg.RuntimeDependencies(f, runtimeDeps)
	if err := i.Layout.WriteTab(k, f, asDependency, rdeps); err != nil {
		return k, err
	}
	i.Logger.Info("poured", "keg", k.String(), "from", filename)
	return k, nil
}

// stageAndSwap extracts archive next to the Cellar and moves the keg into
// place. A failed extraction leaves any existing keg untouched.
func (i *Installer) stageAndSwap(k keg.Keg, archive string) error {
	fsys := i.Layout.FS
	if err := fsys.MkdirAll(i.Layout.StagingDir(), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", i.Layout.StagingDir(), err)
	}
	staging, err := fsys.MkdirTemp(i.Layout.StagingDir(), k.Name+"-")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer fsys.RemoveAll(staging)

	if err := bottle.Extract(archive, staging); err != nil {
		return err
	}
	staged := filepath.Join(staging, k.Name, k.Version)
	if fi, err := fsys.Stat(staged); err != nil || !fi.IsDir() {
		return errors.New(errors.ErrCodeExtractionFailed,
			"bottle %s does not contain %s/%s", archive, k.Name, k.Version)
	}

	if i.Layout.Exists(k) {
		if err := i.Layout.Remove(k); err != nil {
			return err
		}
	}
	if err := fsys.MkdirAll(filepath.Dir(k.Path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(k.Path), err)
	}
	if err := fsys.Rename(staged, k.Path); err != nil {
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "move %s into place", k.Path)
	}
	return nil
}

// link links k into the prefix unless the formula is keg-only. Conflicts
// are recorded on res and do not fail the install.
func (i *Installer) link(ctx context.Context, f *deps.Formula, k keg.Keg, res *Result) {
	if f.KegOnly {
		i.Logger.Info("keg-only, not linked", "keg", k.String())
		return
	}
	lr, err := i.Linker.Link(k, link.Options{})
	observability.Install().OnLink(ctx, f.Name, lr.Count, err)
	if err != nil {
		res.LinkErr = err
		i.Logger.Warn("poured but not linked", "keg", k.String(), "err", errors.UserMessage(err))
		return
	}
	res.Linked = lr.Count
}

// runtimeClosure returns the descriptors of every runtime dependency of f,
// sorted by name. Descriptors come from g when present there.
func runtimeClosure(ctx context.Context, provider deps.Provider, g *dag.DAG, f *deps.Formula) []*deps.Formula {
	seen := map[string]bool{f.Name: true}
	queue := f.DependencyNames()
	var out []*deps.Formula
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		d := deps.FormulaOf(g, name)
		if d == nil {
			var err error
			if d, err = provider.Formula(ctx, name, false); err != nil {
				continue
			}
		}
		out = append(out, d)
		queue = append(queue, d.DependencyNames()...)
	}
	slices.SortFunc(out, func(a, b *deps.Formula) int { return strings.Compare(a.Name, b.Name) })
	return out
}
