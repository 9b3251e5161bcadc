//go:build unix

package keg

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/matzehuels/cellar/pkg/errors"
)

// FormulaLock is a held per-formula lock.
type FormulaLock struct {
	name string
	f    *os.File
}

func acquire(dir, path, name string) (*FormulaLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, errors.New(errors.ErrCodeLocked,
				"%s is being modified by another process (lock held on %s)", name, path)
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	return &FormulaLock{name: name, f: f}, nil
}

// Release unlocks and closes the lock file. It is safe to call on nil and
// more than once.
func (fl *FormulaLock) Release() error {
	if fl == nil || fl.f == nil {
		return nil
	}
	err := unix.Flock(int(fl.f.Fd()), unix.LOCK_UN)
	if cerr := fl.f.Close(); err == nil {
		err = cerr
	}
	fl.f = nil
	return err
}
