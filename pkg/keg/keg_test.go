package keg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/cellar/pkg/deps"
	"github.com/matzehuels/cellar/pkg/errors"
)

func newTestLayout(t *testing.T) *Layout {
	t.Helper()
	prefix := t.TempDir()
	l := NewLayout(prefix, "")
	require.NoError(t, os.MkdirAll(l.Cellar, 0o755))
	return l
}

func mkKeg(t *testing.T, l *Layout, name, version string) Keg {
	t.Helper()
	k := l.Keg(name, version)
	require.NoError(t, os.MkdirAll(filepath.Join(k.Path, "bin"), 0o755))
	return k
}

func TestKeg_PathConstruction(t *testing.T) {
	l := NewLayout("/opt/homebrew", "")
	k := l.Keg("wget", "1.24.5")

	assert.Equal(t, "/opt/homebrew/Cellar/wget/1.24.5", k.Path)
	assert.Equal(t, "/opt/homebrew/opt/wget", l.OptPath("wget"))
	assert.Equal(t, "wget/1.24.5", k.String())

	custom := NewLayout("/usr/local", "/data/Cellar")
	assert.Equal(t, "/data/Cellar/wget/1.24.5", custom.Keg("wget", "1.24.5").Path)
}

func TestLayout_Exists(t *testing.T) {
	l := newTestLayout(t)
	k := l.Keg("wget", "1.24.5")
	assert.False(t, l.Exists(k))

	mkKeg(t, l, "wget", "1.24.5")
	assert.True(t, l.Exists(k))
}

func TestLayout_LinkOpt(t *testing.T) {
	l := newTestLayout(t)
	old := mkKeg(t, l, "openssl@3", "3.3.1")
	cur := mkKeg(t, l, "openssl@3", "3.3.2")

	require.NoError(t, l.LinkOpt(old))
	active, err := l.ActiveKeg("openssl@3")
	require.NoError(t, err)
	assert.Equal(t, old, active)

	// last writer wins
	require.NoError(t, l.LinkOpt(cur))
	active, err = l.ActiveKeg("openssl@3")
	require.NoError(t, err)
	assert.Equal(t, cur, active)

	target, err := os.Readlink(l.OptPath("openssl@3"))
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(target), "opt alias should be relative, got %s", target)

	resolved, err := filepath.EvalSymlinks(l.OptPath("openssl@3"))
	require.NoError(t, err)
	want, _ := filepath.EvalSymlinks(cur.Path)
	assert.Equal(t, want, resolved)
}

func TestLayout_LinkOptReplacesNonSymlink(t *testing.T) {
	l := newTestLayout(t)
	k := mkKeg(t, l, "wget", "1.24.5")

	require.NoError(t, os.MkdirAll(l.OptPath("wget"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(l.OptPath("wget"), "junk"), nil, 0o644))

	require.NoError(t, l.LinkOpt(k))
	fi, err := os.Lstat(l.OptPath("wget"))
	require.NoError(t, err)
	assert.True(t, fi.Mode()&os.ModeSymlink != 0)
}

func TestLayout_LinkOptDanglingTarget(t *testing.T) {
	l := newTestLayout(t)
	k := mkKeg(t, l, "wget", "1.24.5")
	require.NoError(t, l.LinkOpt(k))
	require.NoError(t, os.RemoveAll(k.Path))

	assert.False(t, l.HasOpt("wget"), "dangling alias does not count as present")
	stale, ok := l.OptTarget("wget")
	assert.True(t, ok)
	assert.Equal(t, k, stale)

	k2 := mkKeg(t, l, "wget", "1.25.0")
	require.NoError(t, l.LinkOpt(k2))
	active, err := l.ActiveKeg("wget")
	require.NoError(t, err)
	assert.Equal(t, "1.25.0", active.Version)
}

func TestLayout_ActiveKegFallback(t *testing.T) {
	l := newTestLayout(t)
	mkKeg(t, l, "wget", "1.9.0")
	mkKeg(t, l, "wget", "1.24.5")

	active, err := l.ActiveKeg("wget")
	require.NoError(t, err)
	assert.Equal(t, "1.24.5", active.Version, "newest version without opt alias")

	_, err = l.ActiveKeg("curl")
	assert.True(t, errors.Is(err, errors.ErrCodeNotInstalled))
}

func TestLayout_Installed(t *testing.T) {
	l := newTestLayout(t)
	mkKeg(t, l, "wget", "1.24.5")
	mkKeg(t, l, "openssl@3", "3.3.2")
	mkKeg(t, l, "openssl@3", "3.3.2_1")
	require.NoError(t, os.MkdirAll(filepath.Join(l.StagingDir(), "tmp123"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(l.Cellar, "empty"), 0o755))

	names, err := l.InstalledNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"openssl@3", "wget"}, names)

	kegs, err := l.Installed()
	require.NoError(t, err)
	require.Len(t, kegs, 3)
	assert.Equal(t, "3.3.2", kegs[0].Version)
	assert.Equal(t, "3.3.2_1", kegs[1].Version)
}

func TestLayout_InstalledMissingCellar(t *testing.T) {
	l := NewLayout(t.TempDir(), "")
	names, err := l.InstalledNames()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLayout_Remove(t *testing.T) {
	l := newTestLayout(t)
	a := mkKeg(t, l, "wget", "1.9.0")
	b := mkKeg(t, l, "wget", "1.24.5")

	require.NoError(t, l.Remove(a))
	assert.False(t, l.Exists(a))
	assert.DirExists(t, filepath.Join(l.Cellar, "wget"))

	require.NoError(t, l.Remove(b))
	assert.NoDirExists(t, filepath.Join(l.Cellar, "wget"))

	err := l.Remove(b)
	assert.True(t, errors.Is(err, errors.ErrCodeNoSuchKeg))
	assert.Contains(t, err.Error(), b.Path)
}

func TestLayout_RemoveOpt(t *testing.T) {
	l := newTestLayout(t)
	k := mkKeg(t, l, "wget", "1.24.5")
	require.NoError(t, l.LinkOpt(k))

	require.NoError(t, l.RemoveOpt("wget"))
	assert.False(t, l.HasOpt("wget"))
	assert.True(t, l.Exists(k), "keg must survive opt removal")
	require.NoError(t, l.RemoveOpt("wget"))
}

func TestTab_WriteRead(t *testing.T) {
	l := newTestLayout(t)
	k := mkKeg(t, l, "wget", "1.24.5")
	f := &deps.Formula{
		Name:         "wget",
		Tap:          "homebrew/core",
		Versions:     deps.Versions{Stable: "1.24.5"},
		Dependencies: []string{"openssl@3"},
	}
	openssl := &deps.Formula{Name: "openssl@3", FullName: "openssl@3", Versions: deps.Versions{Stable: "3.3.2"}, Revision: 1}
	ca := &deps.Formula{Name: "ca-certificates", Versions: deps.Versions{Stable: "2024-09-24"}}

	rdeps := RuntimeDependencies(f, []*deps.Formula{openssl, ca})
	require.NoError(t, l.WriteTab(k, f, false, rdeps))

	tab, err := l.ReadTab(k)
	require.NoError(t, err)
	assert.True(t, tab.InstalledOnRequest)
	assert.False(t, tab.InstalledAsDependency)
	assert.True(t, tab.PouredFromBottle)
	assert.NotZero(t, tab.Time)
	require.Len(t, tab.RuntimeDependencies, 2)
	assert.Equal(t, RuntimeDependency{FullName: "openssl@3", Version: "3.3.2", Revision: 1, PkgVersion: "3.3.2_1", DeclaredDirectly: true}, tab.RuntimeDependencies[0])
	assert.False(t, tab.RuntimeDependencies[1].DeclaredDirectly)
	require.NotNil(t, tab.Source)
	assert.Equal(t, "homebrew/core", tab.Source.Tap)

	raw, err := os.ReadFile(TabPath(k))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"installed_as_dependency\": false", "receipt is pretty-printed")
}

func TestTab_AsDependencyAndMark(t *testing.T) {
	l := newTestLayout(t)
	k := mkKeg(t, l, "openssl@3", "3.3.2")
	require.NoError(t, l.WriteTab(k, nil, true, nil))

	tab, err := l.ReadTab(k)
	require.NoError(t, err)
	assert.True(t, tab.InstalledAsDependency)
	assert.False(t, tab.InstalledOnRequest)
	assert.NotNil(t, tab.RuntimeDependencies)

	require.NoError(t, l.MarkInstalledOnRequest(k))
	tab, err = l.ReadTab(k)
	require.NoError(t, err)
	assert.True(t, tab.InstalledOnRequest)
	assert.False(t, tab.InstalledAsDependency)
}

func TestTab_Missing(t *testing.T) {
	l := newTestLayout(t)
	k := mkKeg(t, l, "wget", "1.24.5")

	tab, err := l.ReadTab(k)
	require.NoError(t, err)
	assert.False(t, tab.InstalledAsDependency)

	_, err = l.ReadTab(l.Keg("curl", "8.0"))
	assert.True(t, errors.Is(err, errors.ErrCodeNoSuchKeg))
}

func TestPin(t *testing.T) {
	l := newTestLayout(t)
	k := mkKeg(t, l, "wget", "1.24.5")
	require.NoError(t, l.LinkOpt(k))

	assert.False(t, l.IsPinned("wget"))
	pinned, err := l.Pin("wget")
	require.NoError(t, err)
	assert.Equal(t, k, pinned)
	assert.True(t, l.IsPinned("wget"))

	names, err := l.Pinned()
	require.NoError(t, err)
	assert.Equal(t, []string{"wget"}, names)

	ok, err := l.Unpin("wget")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = l.Unpin("wget")
	require.NoError(t, err)
	assert.False(t, ok, "unpinning twice is informational")

	_, err = l.Pin("curl")
	assert.True(t, errors.Is(err, errors.ErrCodeNotInstalled))
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.9.0", "1.24.5", -1},
		{"3.3.2_1", "3.3.2", 1},
		{"3.3.2_1", "3.3.2_2", -1},
		{"2.0", "1.99.9", 1},
		{"2024a", "2024b", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
		})
	}

	vs := []string{"1.24.5", "1.9.0", "1.10.0_1", "1.10.0"}
	SortVersions(vs)
	assert.Equal(t, []string{"1.9.0", "1.10.0", "1.10.0_1", "1.24.5"}, vs)
}
