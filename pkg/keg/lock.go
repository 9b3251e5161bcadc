package keg

import "path/filepath"

// LockDir holds the per-formula lock files.
func (l *Layout) LockDir() string {
	return filepath.Join(l.Prefix, "var", "cellar", "locks")
}

// LockPath returns the lock file for name.
func (l *Layout) LockPath(name string) string {
	return filepath.Join(l.LockDir(), name+".lock")
}

// Lock takes the advisory lock for name without blocking. It fails with
// LOCKED when another process holds it. Release the lock with
// [FormulaLock.Release].
func (l *Layout) Lock(name string) (*FormulaLock, error) {
	return acquire(l.LockDir(), l.LockPath(name), name)
}
