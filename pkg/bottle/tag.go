package bottle

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/matzehuels/cellar/pkg/deps"
	"github.com/matzehuels/cellar/pkg/errors"
)

// TagAll is the platform tag of bottles that run everywhere.
const TagAll = "all"

// macOS releases, newest first. Bottles built for an older release also run
// on newer ones.
type release struct {
	version  string
	codename string
}

var macOSReleases = []release{
	{"26", "tahoe"},
	{"15", "sequoia"},
	{"14", "sonoma"},
	{"13", "ventura"},
	{"12", "monterey"},
	{"11", "big_sur"},
	{"10.15", "catalina"},
	{"10.14", "mojave"},
}

// HostTag returns the platform tag of the running machine. A non-empty
// override wins.
func HostTag(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return PlatformTag(runtime.GOOS, runtime.GOARCH, macOSVersion)
}

// HostOSVersion returns the macOS product version ("14.5"), or "" on other
// systems or when it cannot be read.
func HostOSVersion() string {
	v, err := macOSVersion()
	if err != nil {
		return ""
	}
	return v
}

// PlatformTag derives a tag from OS and architecture. osVersion is only
// consulted on darwin.
func PlatformTag(goos, goarch string, osVersion func() (string, error)) (string, error) {
	arch := goarch
	if arch == "amd64" {
		arch = "x86_64"
	}
	switch goos {
	case "linux":
		return arch + "_linux", nil
	case "darwin":
		v, err := osVersion()
		if err != nil {
			return "", fmt.Errorf("detect macOS version: %w", err)
		}
		codename := Codename(v)
		if codename == "" {
			return "", errors.New(errors.ErrCodeUnsupported, "unsupported macOS version %q", v)
		}
		if arch == "arm64" {
			return "arm64_" + codename, nil
		}
		return codename, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "no bottles are published for %s/%s", goos, goarch)
}

// Codename maps a macOS product version such as "14.6.1" to its bottle
// codename. Returns "" for unknown versions.
func Codename(version string) string {
	for _, r := range macOSReleases {
		if version == r.version || strings.HasPrefix(version, r.version+".") {
			return r.codename
		}
	}
	return ""
}

// Candidates lists the tags tried for tag, in order: tag itself, the same
// architecture on every older macOS release, then [TagAll].
func Candidates(tag string) []string {
	out := []string{tag}
	prefix, codename := "", tag
	if rest, ok := strings.CutPrefix(tag, "arm64_"); ok {
		prefix, codename = "arm64_", rest
	}
	i := slices.IndexFunc(macOSReleases, func(r release) bool {
		return r.codename == codename
	})
	if i >= 0 {
		for _, r := range macOSReleases[i+1:] {
			out = append(out, prefix+r.codename)
		}
	}
	return append(out, TagAll)
}

// Select picks the bottle of f for tag. It fails with
// NO_BOTTLE_FOR_PLATFORM when no candidate tag has an entry.
func Select(f *deps.Formula, tag string) (string, deps.BottleFile, error) {
	if f.Bottle != nil {
		for _, t := range Candidates(tag) {
			if file, ok := f.Bottle.Files[t]; ok {
				return t, file, nil
			}
		}
	}
	return "", deps.BottleFile{}, errors.New(errors.ErrCodeNoBottleForPlatform,
		"no bottle available for %s on %s", f.Name, tag)
}
