//go:build !unix

package keg

// FormulaLock is a no-op lock on platforms without flock.
type FormulaLock struct{}

func acquire(_, _, _ string) (*FormulaLock, error) { return &FormulaLock{}, nil }

// Release is a no-op.
func (fl *FormulaLock) Release() error { return nil }
