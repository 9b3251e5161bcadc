package keg

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/matzehuels/cellar/pkg/errors"
)

// CaskroomDir holds one directory per installed cask. Casks are never
// installed by this tool but their formula dependencies are honoured.
func (l *Layout) CaskroomDir() string {
	return filepath.Join(l.Prefix, "Caskroom")
}

// InstalledCasks returns the tokens of installed casks, sorted.
func (l *Layout) InstalledCasks() ([]string, error) {
	entries, err := l.FS.ReadDir(l.CaskroomDir())
	if errors.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.CaskroomDir(), err)
	}
	var tokens []string
	for _, e := range entries {
		if isKegDir(e) {
			tokens = append(tokens, e.Name())
		}
	}
	slices.Sort(tokens)
	return tokens, nil
}
