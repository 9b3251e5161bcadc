package bottle

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
)

// Filename returns <name>--<version>.<tag>.bottle[.<rebuild>].tar.gz. The
// rebuild segment only appears for rebuilds above zero.
func Filename(name, version, tag string, rebuild int) string {
	s := name + "--" + version + "." + tag + ".bottle"
	if rebuild > 0 {
		s += "." + strconv.Itoa(rebuild)
	}
	return s + ".tar.gz"
}

// CachePath returns <downloads>/<sha256(url)>--<filename>. Keying on the URL
// keeps two sources of the same bottle from colliding.
func CachePath(downloads, url, filename string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(downloads, hex.EncodeToString(sum[:])+"--"+filename)
}
