package link

import (
	"path/filepath"
	"strings"
)

// skip reports whether a keg path must never be linked.
func skip(kegPath, path string) bool {
	base := filepath.Base(path)
	switch base {
	case ".DS_Store", "INSTALL_RECEIPT.json":
		return true
	}
	rel, err := filepath.Rel(kegPath, path)
	if err != nil {
		return false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	inSitePackages := false
	for _, p := range parts {
		switch p {
		case ".brew":
			return true
		case "site-packages":
			inSitePackages = true
		}
	}
	if inSitePackages && (base == "__pycache__" || strings.HasSuffix(base, ".pyc")) {
		return true
	}
	return false
}
