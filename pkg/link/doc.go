// Package link maintains the symlink farm that exposes keg contents under
// the shared prefix.
//
// [Linker.Link] mirrors a keg's bin, sbin, lib, include, share, etc and
// Frameworks trees into the prefix: directories are created, files become
// relative symlinks. [Linker.Unlink] is the inverse: it scans the prefix,
// not the keg, and removes every symlink that resolves into the keg, so it
// also cleans up after kegs whose contents changed since they were linked.
//
// Nothing about links is persisted. Whether a keg is linked is always
// derived from the prefix itself.
package link
