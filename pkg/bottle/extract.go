package bottle

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/matzehuels/cellar/pkg/errors"
)

// Extract unpacks a gzipped bottle tarball under destRoot. Bottles hold a
// single <name>/<version>/ tree, so extracting into a Cellar (or a staging
// directory shaped like one) yields a keg.
//
// Regular files, directories, symlinks and hard links are supported. Entries
// whose path would land outside destRoot, and hard links pointing outside
// it, fail with EXTRACTION_FAILED.
func Extract(archive, destRoot string) error {
	f, err := os.Open(archive)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "open %s", archive)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "read %s", archive)
	}
	defer gz.Close()

	if err := extractTar(tar.NewReader(gz), destRoot); err != nil {
		return errors.Wrap(errors.ErrCodeExtractionFailed, err, "extract %s", archive)
	}
	return nil
}

func extractTar(tr *tar.Reader, root string) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return err
	}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target, err := within(root, hdr.Name)
		if err != nil {
			return err
		}
		if err := parentWithin(realRoot, target); err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, dirMode(hdr)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(tr, target, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		case tar.TypeLink:
			src, err := within(root, hdr.Linkname)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Link(src, target); err != nil {
				return err
			}
		default:
			// xattrs and other pax records carry nothing to pour
		}
	}
}

// within joins name onto root and rejects results outside root.
func within(root, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("archive entry %q is absolute", name)
	}
	target := filepath.Join(root, name)
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes %s", name, root)
	}
	return target, nil
}

// parentWithin rejects targets whose existing parent directory resolves
// outside root through a symlink unpacked earlier.
func parentWithin(realRoot, target string) error {
	dir := filepath.Dir(target)
	for {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			if resolved != realRoot && !strings.HasPrefix(resolved, realRoot+string(filepath.Separator)) {
				return fmt.Errorf("archive entry %s resolves outside %s", target, realRoot)
			}
			return nil
		}
		if !os.IsNotExist(err) {
			return err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

func dirMode(hdr *tar.Header) os.FileMode {
	if m := hdr.FileInfo().Mode().Perm(); m != 0 {
		return m | 0o700
	}
	return 0o755
}

func writeFile(r io.Reader, path string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	_ = os.Remove(path)
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
