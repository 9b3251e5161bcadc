// Package keg models the package store: kegs, their install receipts, the
// opt aliases that mark the active version, pins, and per-formula locks.
//
// The on-disk layout is
//
//	<Cellar>/<name>/<version>/                     a keg
//	<Cellar>/<name>/<version>/INSTALL_RECEIPT.json its Tab
//	<Prefix>/opt/<name>                            symlink to the active keg
//	<Prefix>/var/cellar/pinned/<name>              symlink to the pinned keg
//	<Prefix>/var/cellar/locks/<name>.lock          advisory lock file
//
// All filesystem access goes through [FS] so that callers can swap in a
// different store for tests.
package keg

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/cellar/pkg/errors"
)

// Keg is one installed (formula, version) pair.
type Keg struct {
	Name    string
	Version string
	Path    string // <Cellar>/<name>/<version>
}

// String returns "name/version".
func (k Keg) String() string { return k.Name + "/" + k.Version }

// Layout locates kegs and aliases for one prefix/Cellar pair.
type Layout struct {
	Prefix string
	Cellar string
	FS     FS
	Host   Host
}

// NewLayout returns a Layout on the OS filesystem. An empty cellar defaults
// to <prefix>/Cellar.
func NewLayout(prefix, cellar string) *Layout {
	if cellar == "" {
		cellar = filepath.Join(prefix, "Cellar")
	}
	return &Layout{Prefix: prefix, Cellar: cellar, FS: NewOSFS(), Host: CurrentHost()}
}

// Keg constructs the keg for name and version. It performs no I/O.
func (l *Layout) Keg(name, version string) Keg {
	return Keg{Name: name, Version: version, Path: filepath.Join(l.Cellar, name, version)}
}

// Exists reports whether the keg directory is present.
func (l *Layout) Exists(k Keg) bool {
	fi, err := l.FS.Stat(k.Path)
	return err == nil && fi.IsDir()
}

// OptPath returns <Prefix>/opt/<name>.
func (l *Layout) OptPath(name string) string {
	return filepath.Join(l.Prefix, "opt", name)
}

// HasOpt reports whether the opt alias for name resolves to a keg
// directory. A dangling alias does not count.
func (l *Layout) HasOpt(name string) bool {
	fi, err := l.FS.Stat(l.OptPath(name))
	return err == nil && fi.IsDir()
}

// OptTarget returns the keg the opt alias names, read literally. ok is false
// when there is no alias or it points outside <Cellar>/<name>. The keg
// directory may be gone.
func (l *Layout) OptTarget(name string) (k Keg, ok bool) {
	opt := l.OptPath(name)
	target, err := l.FS.Readlink(opt)
	if err != nil {
		return Keg{}, false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(opt), target)
	}
	k = l.Keg(name, filepath.Base(target))
	return k, filepath.Clean(target) == k.Path
}

// StagingDir is where bottles are unpacked before being moved into place.
// It lives inside the Cellar so the final rename stays on one filesystem.
func (l *Layout) StagingDir() string {
	return filepath.Join(l.Cellar, ".staging")
}

// LinkOpt points the opt alias at k. Whatever exists at the alias is removed
// first, so the last caller wins.
func (l *Layout) LinkOpt(k Keg) error {
	opt := l.OptPath(k.Name)
	if err := l.FS.MkdirAll(filepath.Dir(opt), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(opt), err)
	}
	if exists(l.FS, opt) {
		if err := l.FS.RemoveAll(opt); err != nil {
			return fmt.Errorf("remove old opt alias %s: %w", opt, err)
		}
	}
	if err := RelativeLink(l.FS, k.Path, opt); err != nil {
		return fmt.Errorf("link %s -> %s: %w", opt, k.Path, err)
	}
	return nil
}

// RemoveOpt deletes the opt alias for name. A missing alias is not an error.
func (l *Layout) RemoveOpt(name string) error {
	opt := l.OptPath(name)
	if !exists(l.FS, opt) {
		return nil
	}
	if err := l.FS.Remove(opt); err != nil {
		return fmt.Errorf("remove %s: %w", opt, err)
	}
	return nil
}

// ActiveKeg returns the keg the opt alias points at. Without a resolvable
// alias it falls back to the newest installed version. Returns NOT_INSTALLED
// when no keg of name exists.
func (l *Layout) ActiveKeg(name string) (Keg, error) {
	if k, ok := l.OptTarget(name); ok && l.Exists(k) {
		return k, nil
	}

	versions, err := l.Versions(name)
	if err != nil {
		return Keg{}, err
	}
	if len(versions) == 0 {
		return Keg{}, errors.New(errors.ErrCodeNotInstalled, "no such keg: %s", filepath.Join(l.Cellar, name))
	}
	return l.Keg(name, versions[len(versions)-1]), nil
}

// Versions returns the installed versions of name, oldest first.
func (l *Layout) Versions(name string) ([]string, error) {
	entries, err := l.FS.ReadDir(filepath.Join(l.Cellar, name))
	if errors.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Join(l.Cellar, name), err)
	}
	var versions []string
	for _, e := range entries {
		if isKegDir(e) {
			versions = append(versions, e.Name())
		}
	}
	SortVersions(versions)
	return versions, nil
}

// Kegs returns every installed keg of name, oldest first.
func (l *Layout) Kegs(name string) ([]Keg, error) {
	versions, err := l.Versions(name)
	if err != nil {
		return nil, err
	}
	kegs := make([]Keg, len(versions))
	for i, v := range versions {
		kegs[i] = l.Keg(name, v)
	}
	return kegs, nil
}

// InstalledNames returns the names of all formulae with at least one keg,
// sorted.
func (l *Layout) InstalledNames() ([]string, error) {
	entries, err := l.FS.ReadDir(l.Cellar)
	if errors.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.Cellar, err)
	}
	var names []string
	for _, e := range entries {
		if !isKegDir(e) {
			continue
		}
		versions, err := l.Versions(e.Name())
		if err != nil {
			return nil, err
		}
		if len(versions) > 0 {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Installed returns every keg in the Cellar, grouped by name.
func (l *Layout) Installed() ([]Keg, error) {
	names, err := l.InstalledNames()
	if err != nil {
		return nil, err
	}
	var kegs []Keg
	for _, name := range names {
		ks, err := l.Kegs(name)
		if err != nil {
			return nil, err
		}
		kegs = append(kegs, ks...)
	}
	return kegs, nil
}

// Remove deletes the keg directory, and the formula directory once it holds
// no other versions.
func (l *Layout) Remove(k Keg) error {
	if !exists(l.FS, k.Path) {
		return errors.New(errors.ErrCodeNoSuchKeg, "no such keg: %s", k.Path)
	}
	if err := l.FS.RemoveAll(k.Path); err != nil {
		return fmt.Errorf("remove %s: %w", k.Path, err)
	}
	parent := filepath.Dir(k.Path)
	if entries, err := l.FS.ReadDir(parent); err == nil && len(entries) == 0 {
		_ = l.FS.Remove(parent)
	}
	return nil
}

func isKegDir(e fs.DirEntry) bool {
	return e.IsDir() && !strings.HasPrefix(e.Name(), ".")
}
