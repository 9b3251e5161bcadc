package formulae

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/httputil"
)

const wgetJSON = `{
  "name": "wget",
  "full_name": "wget",
  "tap": "homebrew/core",
  "desc": "Internet file retriever",
  "homepage": "https://www.gnu.org/software/wget/",
  "versions": {"stable": "1.24.5", "head": "HEAD", "bottle": true},
  "revision": 1,
  "dependencies": ["libidn2", "openssl@3"],
  "build_dependencies": ["pkgconf"],
  "test_dependencies": [],
  "recommended_dependencies": [],
  "optional_dependencies": [],
  "bottle": {
    "stable": {
      "rebuild": 2,
      "root_url": "https://ghcr.io/v2/homebrew/core",
      "files": {
        "arm64_sonoma": {"cellar": "/opt/homebrew/Cellar", "url": "https://ghcr.io/v2/homebrew/core/wget/blobs/sha256:aaa", "sha256": "aaa"},
        "x86_64_linux": {"cellar": "/home/linuxbrew/.linuxbrew/Cellar", "url": "https://ghcr.io/v2/homebrew/core/wget/blobs/sha256:bbb", "sha256": "bbb"}
      }
    }
  },
  "pinned": false,
  "keg_only": false
}`

func newServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/formula/wget.json", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(wgetJSON))
	})
	mux.HandleFunc("/formula/gettext.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "gettext", "versions": {"stable": ""}}`))
	})
	mux.HandleFunc("/formula/broken.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": `))
	})
	mux.HandleFunc("/cask/firefox.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token": "firefox", "depends_on": {"formula": ["ffmpeg"]}}`))
	})
	mux.HandleFunc("/formula.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name": "wget"}, {"name": "curl"}, {"name": "ca-certificates"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Formula(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	c := NewClient(nil, srv.URL)

	f, err := c.Formula(context.Background(), "homebrew/core/wget", false)
	if err != nil {
		t.Fatalf("Formula: %v", err)
	}
	if f.Name != "wget" || f.Tap != "homebrew/core" {
		t.Errorf("got name=%q tap=%q", f.Name, f.Tap)
	}
	if f.PkgVersion() != "1.24.5_1" {
		t.Errorf("PkgVersion = %q, want 1.24.5_1", f.PkgVersion())
	}
	if len(f.Dependencies) != 2 || f.Dependencies[1] != "openssl@3" {
		t.Errorf("Dependencies = %v", f.Dependencies)
	}
	if len(f.BuildDependencies) != 1 {
		t.Errorf("BuildDependencies = %v", f.BuildDependencies)
	}
	if f.Bottle == nil || f.Bottle.Rebuild != 2 {
		t.Fatalf("Bottle = %+v", f.Bottle)
	}
	if got := f.Bottle.Files["x86_64_linux"].SHA256; got != "bbb" {
		t.Errorf("x86_64_linux sha = %q", got)
	}

	if _, err := c.Formula(context.Background(), "wget", false); err != nil {
		t.Fatalf("second Formula: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1 (memoized)", hits.Load())
	}

	if _, err := c.Formula(context.Background(), "wget", true); err != nil {
		t.Fatalf("refresh Formula: %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2 after refresh", hits.Load())
	}
}

func TestClient_Formula_DiskCache(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	cache, err := httputil.NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewClient(cache, srv.URL).Formula(context.Background(), "wget", false); err != nil {
		t.Fatal(err)
	}
	// A fresh client has an empty memo and must be served from disk.
	f, err := NewClient(cache, srv.URL).Formula(context.Background(), "wget", false)
	if err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}
	if f.Bottle == nil || f.Bottle.Files["arm64_sonoma"].URL == "" {
		t.Errorf("bottle lost in cache round trip: %+v", f.Bottle)
	}
}

func TestClient_Formula_Errors(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	c := NewClient(nil, srv.URL)
	ctx := context.Background()

	tests := []struct {
		name string
		code errors.Code
	}{
		{"missing", errors.ErrCodePackageNotFound},
		{"broken", errors.ErrCodeInvalidFormula},
		{"..", errors.ErrCodeInvalidFormula},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Formula(ctx, tt.name, false)
			if !errors.Is(err, tt.code) {
				t.Errorf("Formula(%q) error = %v, want %s", tt.name, err, tt.code)
			}
		})
	}
}

func TestClient_Formula_NoStable(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)

	f, err := NewClient(nil, srv.URL).Formula(context.Background(), "gettext", false)
	if err != nil {
		t.Fatal(err)
	}
	if f.Installable() {
		t.Error("formula without a stable version reported installable")
	}
	if f.Bottle != nil {
		t.Errorf("Bottle = %+v, want nil", f.Bottle)
	}
	if f.FullName != "gettext" {
		t.Errorf("FullName = %q, want name fallback", f.FullName)
	}
}

func TestClient_Cask(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	c := NewClient(nil, srv.URL)

	k, err := c.Cask(context.Background(), "firefox")
	if err != nil {
		t.Fatal(err)
	}
	if k.Token != "firefox" || len(k.DependsOnFormulae) != 1 || k.DependsOnFormulae[0] != "ffmpeg" {
		t.Errorf("Cask = %+v", k)
	}

	if _, err := c.Cask(context.Background(), "nope"); !errors.Is(err, errors.ErrCodePackageNotFound) {
		t.Errorf("Cask(nope) error = %v, want PACKAGE_NOT_FOUND", err)
	}
}

func TestClient_FormulaNames(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)

	names, err := NewClient(nil, srv.URL).FormulaNames(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"ca-certificates", "curl", "wget"}
	if len(names) != len(want) {
		t.Fatalf("FormulaNames = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("FormulaNames[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer srv.Close()

	_, err := NewClient(nil, srv.URL).Formula(context.Background(), "wget", false)
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("error = %v, want NETWORK", err)
	}
}
