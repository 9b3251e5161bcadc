package bottle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/cellar/pkg/errors"
)

// Checksum returns the hex SHA-256 of the file at path.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify checks the file at path against the expected hex SHA-256. On a
// mismatch the file is deleted and CHECKSUM_MISMATCH is returned.
func Verify(path, want string) error {
	got, err := Checksum(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(got, want) {
		return nil
	}
	_ = os.Remove(path)
	return errors.New(errors.ErrCodeChecksumMismatch,
		"SHA-256 mismatch for %s\n  expected: %s\n  actual:   %s", path, want, got)
}
