package keg

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FS is the filesystem surface used by the keg store and the linker. Every
// mutation of the Cellar and the prefix goes through it.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	MkdirTemp(dir, pattern string) (string, error)
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)
	EvalSymlinks(path string) (string, error)
	Rename(oldpath, newpath string) error
	Remove(name string) error
	RemoveAll(path string) error
}

// OSFS implements FS using the OS filesystem.
type OSFS struct{}

// NewOSFS returns the OS filesystem implementation.
func NewOSFS() FS { return OSFS{} }

func (OSFS) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }
func (OSFS) Lstat(name string) (fs.FileInfo, error)     { return os.Lstat(name) }
func (OSFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
func (OSFS) ReadFile(name string) ([]byte, error)       { return os.ReadFile(name) }
func (OSFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}
func (OSFS) MkdirAll(path string, perm fs.FileMode) error  { return os.MkdirAll(path, perm) }
func (OSFS) MkdirTemp(dir, pattern string) (string, error) { return os.MkdirTemp(dir, pattern) }
func (OSFS) Symlink(oldname, newname string) error         { return os.Symlink(oldname, newname) }
func (OSFS) Readlink(name string) (string, error)          { return os.Readlink(name) }
func (OSFS) EvalSymlinks(path string) (string, error)      { return filepath.EvalSymlinks(path) }
func (OSFS) Rename(oldpath, newpath string) error          { return os.Rename(oldpath, newpath) }
func (OSFS) Remove(name string) error                      { return os.Remove(name) }
func (OSFS) RemoveAll(path string) error                   { return os.RemoveAll(path) }

// exists reports whether name exists without following a final symlink.
func exists(fsys FS, name string) bool {
	_, err := fsys.Lstat(name)
	return err == nil
}

// RelativeLink creates a symlink at link pointing to target, expressed
// relative to link's directory when possible.
func RelativeLink(fsys FS, target, link string) error {
	dest := target
	if rel, err := filepath.Rel(filepath.Dir(link), target); err == nil {
		dest = rel
	}
	return fsys.Symlink(dest, link)
}
