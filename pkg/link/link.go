package link

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/keg"
)

// Dirs are the keg subdirectories mirrored into the prefix.
var Dirs = []string{"bin", "sbin", "lib", "include", "share", "etc", "Frameworks"}

// Options controls a link or unlink pass.
type Options struct {
	DryRun    bool // Report what would change without touching the prefix
	Overwrite bool // Replace conflicting files instead of failing
	Verbose   bool // Log every path
}

// Result reports a link or unlink pass. In a dry run Count and Paths
// describe what would have changed.
type Result struct {
	Count         int
	Paths         []string // Prefix paths linked or unlinked
	AlreadyLinked bool
}

// Linker links kegs into one prefix.
type Linker struct {
	Prefix string
	FS     keg.FS
	Logger *log.Logger
}

// New creates a Linker for prefix. A nil fsys uses the OS filesystem and a
// nil logger the default logger.
func New(prefix string, fsys keg.FS, logger *log.Logger) *Linker {
	if fsys == nil {
		fsys = keg.NewOSFS()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Linker{Prefix: prefix, FS: fsys, Logger: logger}
}

type action struct {
	src, dst string
	mkdir    bool // create dst as a directory
	replace  bool // remove dst before linking
}

// Link symlinks the contents of k into the prefix.
//
// A keg that already has a symlink in <Prefix>/bin resolving into it is
// reported as AlreadyLinked without changes, except in a dry run. Existing
// destinations that already point at the right file are left alone.
// Destinations pointing elsewhere fail the whole pass with LINK_CONFLICT
// before anything is created, unless opts.Overwrite is set. A directory in
// the way is always a conflict.
func (l *Linker) Link(k keg.Keg, opts Options) (Result, error) {
	if !opts.DryRun && l.IsLinked(k) {
		l.Logger.Warn("already linked", "keg", k.String(),
			"hint", "run `cellar unlink "+k.Name+"` then link again to relink")
		return Result{AlreadyLinked: true}, nil
	}

	plan, err := l.plan(k, opts)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, a := range plan {
		if a.mkdir {
			if !opts.DryRun {
				if a.replace {
					if err := l.FS.Remove(a.dst); err != nil {
						return res, errors.Wrap(errors.ErrCodeLinkConflict, err, "remove %s", a.dst)
					}
				}
				if err := l.FS.MkdirAll(a.dst, 0o755); err != nil {
					return res, errors.Wrap(errors.ErrCodeLinkConflict, err, "create %s", a.dst)
				}
			}
			continue
		}
		if !opts.DryRun {
			if a.replace {
				if err := l.FS.Remove(a.dst); err != nil {
					return res, errors.Wrap(errors.ErrCodeLinkConflict, err, "remove %s", a.dst)
				}
			}
			if err := keg.RelativeLink(l.FS, a.src, a.dst); err != nil {
				return res, errors.Wrap(errors.ErrCodeLinkConflict, err, "could not symlink %s", a.dst)
			}
		}
		if opts.Verbose || opts.DryRun {
			l.Logger.Info("link", "path", a.dst)
		} else {
			l.Logger.Debug("linked", "path", a.dst)
		}
		res.Count++
		res.Paths = append(res.Paths, a.dst)
	}
	return res, nil
}

// plan walks the keg and decides every change, parent directories first.
func (l *Linker) plan(k keg.Keg, opts Options) ([]action, error) {
	var plan []action
	for _, dir := range Dirs {
		src := filepath.Join(k.Path, dir)
		fi, err := l.FS.Lstat(src)
		if err != nil || !fi.IsDir() {
			continue
		}
		if err := l.planDir(k, src, filepath.Join(l.Prefix, dir), opts, &plan); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

func (l *Linker) planDir(k keg.Keg, src, dst string, opts Options, plan *[]action) error {
	fi, err := l.FS.Lstat(dst)
	switch {
	case errors.IsNotExist(err):
		*plan = append(*plan, action{dst: dst, mkdir: true})
	case err != nil:
		return err
	case !fi.IsDir():
		if !opts.Overwrite {
			return &errors.LinkConflictError{Keg: k.String(), Path: dst, Source: src}
		}
		*plan = append(*plan, action{dst: dst, mkdir: true, replace: true})
	}

	entries, err := l.FS.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		s := filepath.Join(src, e.Name())
		d := filepath.Join(dst, e.Name())
		if skip(k.Path, s) {
			continue
		}
		if e.IsDir() {
			if err := l.planDir(k, s, d, opts, plan); err != nil {
				return err
			}
			continue
		}
		if err := l.planFile(k, s, d, opts, plan); err != nil {
			return err
		}
	}
	return nil
}

func (l *Linker) planFile(k keg.Keg, src, dst string, opts Options, plan *[]action) error {
	fi, err := l.FS.Lstat(dst)
	if errors.IsNotExist(err) {
		*plan = append(*plan, action{src: src, dst: dst})
		return nil
	}
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return &errors.LinkConflictError{Keg: k.String(), Path: dst, Source: src, Dir: true}
	}
	if l.sameFile(src, dst) {
		return nil
	}
	if !opts.Overwrite {
		return &errors.LinkConflictError{Keg: k.String(), Path: dst, Source: src}
	}
	*plan = append(*plan, action{src: src, dst: dst, replace: true})
	return nil
}

func (l *Linker) sameFile(src, dst string) bool {
	a, err := l.FS.EvalSymlinks(src)
	if err != nil {
		return false
	}
	b, err := l.FS.EvalSymlinks(dst)
	return err == nil && a == b
}

// Unlink removes every symlink under the prefix directories that resolves
// into k. The opt alias is never touched. Directories left empty are
// pruned.
func (l *Linker) Unlink(k keg.Keg, opts Options) (Result, error) {
	links, err := l.scan(k, Dirs)
	if err != nil {
		return Result{}, err
	}
	var res Result
	for _, p := range links {
		if !opts.DryRun {
			if err := l.FS.Remove(p); err != nil && !errors.IsNotExist(err) {
				return res, errors.Wrap(errors.ErrCodeInternal, err, "unlink %s: remove %s", k, p)
			}
			l.prune(filepath.Dir(p))
		}
		if opts.Verbose || opts.DryRun {
			l.Logger.Info("unlink", "path", p)
		} else {
			l.Logger.Debug("unlinked", "path", p)
		}
		res.Count++
		res.Paths = append(res.Paths, p)
	}
	return res, nil
}

// LinkedPaths lists the prefix symlinks that resolve into k.
func (l *Linker) LinkedPaths(k keg.Keg) ([]string, error) {
	return l.scan(k, Dirs)
}

// IsLinked reports whether <Prefix>/bin holds a symlink into k.
func (l *Linker) IsLinked(k keg.Keg) bool {
	links, err := l.scan(k, []string{"bin"})
	return err == nil && len(links) > 0
}

func (l *Linker) scan(k keg.Keg, dirs []string) ([]string, error) {
	roots := []string{filepath.Clean(k.Path)}
	if real, err := l.FS.EvalSymlinks(k.Path); err == nil && real != roots[0] {
		roots = append(roots, real)
	}

	var found []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := l.FS.ReadDir(dir)
		if errors.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			if e.Type()&os.ModeSymlink != 0 {
				if l.pointsInto(p, roots) {
					found = append(found, p)
				}
				continue
			}
			if e.IsDir() {
				if err := walk(p); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, d := range dirs {
		if err := walk(filepath.Join(l.Prefix, d)); err != nil {
			return nil, err
		}
	}
	slices.Sort(found)
	return found, nil
}

// pointsInto reports whether the symlink at p resolves inside one of roots.
// Dangling links are judged by their literal target.
func (l *Linker) pointsInto(p string, roots []string) bool {
	target, err := l.FS.EvalSymlinks(p)
	if err != nil {
		raw, rerr := l.FS.Readlink(p)
		if rerr != nil {
			return false
		}
		if !filepath.IsAbs(raw) {
			raw = filepath.Join(filepath.Dir(p), raw)
		}
		target = filepath.Clean(raw)
	}
	for _, root := range roots {
		if target == root || strings.HasPrefix(target, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// prune removes dir and its parents while they are empty, stopping at the
// top-level prefix directories.
func (l *Linker) prune(dir string) {
	for {
		rel, err := filepath.Rel(l.Prefix, dir)
		if err != nil || !strings.Contains(rel, string(filepath.Separator)) {
			return
		}
		entries, err := l.FS.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := l.FS.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
