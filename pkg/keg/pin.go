package keg

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/matzehuels/cellar/pkg/errors"
)

// PinnedDir holds one symlink per pinned formula.
func (l *Layout) PinnedDir() string {
	return filepath.Join(l.Prefix, "var", "cellar", "pinned")
}

// Pin records the active keg of name as pinned. Pinned formulae are
// skipped by upgrade.
func (l *Layout) Pin(name string) (Keg, error) {
	k, err := l.ActiveKeg(name)
	if err != nil {
		return Keg{}, err
	}
	link := filepath.Join(l.PinnedDir(), name)
	if err := l.FS.MkdirAll(l.PinnedDir(), 0o755); err != nil {
		return Keg{}, fmt.Errorf("create %s: %w", l.PinnedDir(), err)
	}
	if exists(l.FS, link) {
		if err := l.FS.Remove(link); err != nil {
			return Keg{}, fmt.Errorf("remove %s: %w", link, err)
		}
	}
	if err := RelativeLink(l.FS, k.Path, link); err != nil {
		return Keg{}, fmt.Errorf("pin %s: %w", name, err)
	}
	return k, nil
}

// Unpin removes the pin of name. It reports whether a pin existed.
func (l *Layout) Unpin(name string) (bool, error) {
	link := filepath.Join(l.PinnedDir(), name)
	if !exists(l.FS, link) {
		return false, nil
	}
	if err := l.FS.Remove(link); err != nil {
		return false, fmt.Errorf("unpin %s: %w", name, err)
	}
	return true, nil
}

// IsPinned reports whether name is pinned.
func (l *Layout) IsPinned(name string) bool {
	return exists(l.FS, filepath.Join(l.PinnedDir(), name))
}

// Pinned returns the names of all pinned formulae, sorted.
func (l *Layout) Pinned() ([]string, error) {
	entries, err := l.FS.ReadDir(l.PinnedDir())
	if errors.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.PinnedDir(), err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}
