package keg

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SortVersions sorts keg versions oldest first. Versions are compared as
// semantic versions with the "_<revision>" suffix as a tiebreaker; anything
// that does not parse falls back to string order.
func SortVersions(versions []string) {
	slices.SortFunc(versions, CompareVersions)
}

// CompareVersions orders two keg versions, returning -1, 0 or +1.
func CompareVersions(a, b string) int {
	av, ar := splitRevision(a)
	bv, br := splitRevision(b)
	sa, errA := semver.NewVersion(av)
	sb, errB := semver.NewVersion(bv)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	if c := sa.Compare(sb); c != 0 {
		return c
	}
	switch {
	case ar < br:
		return -1
	case ar > br:
		return 1
	}
	return 0
}

func splitRevision(v string) (string, int) {
	i := strings.LastIndexByte(v, '_')
	if i < 0 {
		return v, 0
	}
	rev, err := strconv.Atoi(v[i+1:])
	if err != nil {
		return v, 0
	}
	return v[:i], rev
}
