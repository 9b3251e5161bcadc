package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// ValidateFormulaName validates a formula name for safety and correctness.
// Formula names become path components under the Cellar and the prefix, so
// anything that could escape those directories is rejected.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
//
// Names qualified with a tap ("owner/tap/name") must be normalized before
// validation.
func ValidateFormulaName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidFormula, "formula name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidFormula, "formula name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidFormula, "formula name contains invalid control characters")
		}
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidFormula, "invalid formula name: %q", name)
	}

	dangerousPatterns := []string{
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidFormula, "formula name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateVersion validates a keg version directory name.
func ValidateVersion(version string) error {
	if version == "" {
		return New(ErrCodeInvalidFormula, "version cannot be empty")
	}
	if version == "." || version == ".." || strings.ContainsAny(version, "/\\\x00") {
		return New(ErrCodeInvalidFormula, "invalid version: %q", version)
	}
	return nil
}

// ValidateURL validates a bottle or registry URL. Only http and https are accepted.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must have a host")
	}

	return nil
}
