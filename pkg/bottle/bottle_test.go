package bottle

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/matzehuels/cellar/pkg/deps"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/integrations"
)

type entry struct {
	name     string
	typ      byte
	body     string
	linkname string
}

func makeBottle(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Typeflag: e.typ, Mode: 0o755, Linkname: e.linkname}
		if e.typ == tar.TypeReg {
			hdr.Size = int64(len(e.body))
			hdr.Mode = 0o644
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if e.typ == tar.TypeReg {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "b.tar.gz")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func sum(data []byte) string {
	s := sha256.Sum256(data)
	return hex.EncodeToString(s[:])
}

func TestPlatformTag(t *testing.T) {
	version := func(v string) func() (string, error) {
		return func() (string, error) { return v, nil }
	}
	tests := []struct {
		goos, goarch, osVersion string
		want                    string
		wantErr                 bool
	}{
		{"linux", "amd64", "", "x86_64_linux", false},
		{"linux", "arm64", "", "arm64_linux", false},
		{"darwin", "arm64", "14.6.1", "arm64_sonoma", false},
		{"darwin", "amd64", "13.0", "ventura", false},
		{"darwin", "arm64", "15", "arm64_sequoia", false},
		{"darwin", "arm64", "9.0", "", true},
		{"windows", "amd64", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch+"/"+tt.osVersion, func(t *testing.T) {
			got, err := PlatformTag(tt.goos, tt.goarch, version(tt.osVersion))
			if (err != nil) != tt.wantErr {
				t.Fatalf("PlatformTag() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PlatformTag() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHostTagOverride(t *testing.T) {
	got, err := HostTag("arm64_sonoma")
	if err != nil || got != "arm64_sonoma" {
		t.Errorf("HostTag(override) = %q, %v", got, err)
	}
}

func TestSelect(t *testing.T) {
	f := &deps.Formula{
		Name: "wget",
		Bottle: &deps.Bottle{Files: map[string]deps.BottleFile{
			"arm64_ventura": {URL: "https://example.com/ventura", SHA256: "aa"},
			"x86_64_linux":  {URL: "https://example.com/linux", SHA256: "bb"},
		}},
	}

	tests := []struct {
		tag     string
		want    string
		wantErr bool
	}{
		{"x86_64_linux", "x86_64_linux", false},
		{"arm64_ventura", "arm64_ventura", false},
		{"arm64_sequoia", "arm64_ventura", false},
		{"arm64_monterey", "", true},
		{"sonoma", "", true},
		{"arm64_linux", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, file, err := Select(f, tt.tag)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeNoBottleForPlatform) {
					t.Fatalf("Select() error = %v, want NO_BOTTLE_FOR_PLATFORM", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if got != tt.want || file != f.Bottle.Files[tt.want] {
				t.Errorf("Select() = %q %v, want %q", got, file, tt.want)
			}
		})
	}

	all := &deps.Formula{Name: "ca-certificates", Bottle: &deps.Bottle{Files: map[string]deps.BottleFile{"all": {URL: "u"}}}}
	if got, _, err := Select(all, "arm64_linux"); err != nil || got != TagAll {
		t.Errorf("Select(all) = %q, %v", got, err)
	}

	if _, _, err := Select(&deps.Formula{Name: "nobottle"}, "x86_64_linux"); !errors.Is(err, errors.ErrCodeNoBottleForPlatform) {
		t.Errorf("Select(no bottle table) error = %v", err)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("wget", "1.24.5", "arm64_sonoma", 0); got != "wget--1.24.5.arm64_sonoma.bottle.tar.gz" {
		t.Errorf("Filename() = %q", got)
	}
	if got := Filename("openssl@3", "3.3.2_1", "x86_64_linux", 2); got != "openssl@3--3.3.2_1.x86_64_linux.bottle.2.tar.gz" {
		t.Errorf("Filename(rebuild) = %q", got)
	}
}

func TestCachePath(t *testing.T) {
	a := CachePath("/cache/downloads", "https://a.example/wget", "wget.tar.gz")
	b := CachePath("/cache/downloads", "https://b.example/wget", "wget.tar.gz")
	if a == b {
		t.Error("different URLs must not share a cache path")
	}
	if a != CachePath("/cache/downloads", "https://a.example/wget", "wget.tar.gz") {
		t.Error("CachePath is not deterministic")
	}
	if filepath.Dir(a) != "/cache/downloads" || len(filepath.Base(a)) != 64+2+len("wget.tar.gz") {
		t.Errorf("CachePath() = %q", a)
	}
}

func TestVerify(t *testing.T) {
	data := []byte("bottle bytes")
	path := writeTemp(t, data)

	if err := Verify(path, sum(data)); err != nil {
		t.Fatalf("Verify(good) = %v", err)
	}

	err := Verify(path, sum([]byte("other")))
	if !errors.Is(err, errors.ErrCodeChecksumMismatch) {
		t.Fatalf("Verify(bad) = %v, want CHECKSUM_MISMATCH", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("mismatching file was not deleted")
	}
}

func TestExtract(t *testing.T) {
	data := makeBottle(t, []entry{
		{name: "wget/1.24.5/", typ: tar.TypeDir},
		{name: "wget/1.24.5/bin/", typ: tar.TypeDir},
		{name: "wget/1.24.5/bin/wget", typ: tar.TypeReg, body: "#!/bin/sh\n"},
		{name: "wget/1.24.5/share/man/man1/wget.1", typ: tar.TypeReg, body: "man"},
		{name: "wget/1.24.5/bin/wget2", typ: tar.TypeSymlink, linkname: "wget"},
		{name: "wget/1.24.5/bin/wget-hard", typ: tar.TypeLink, linkname: "wget/1.24.5/bin/wget"},
	})
	dest := t.TempDir()

	if err := Extract(writeTemp(t, data), dest); err != nil {
		t.Fatalf("Extract() = %v", err)
	}

	body, err := os.ReadFile(filepath.Join(dest, "wget/1.24.5/bin/wget"))
	if err != nil || string(body) != "#!/bin/sh\n" {
		t.Errorf("bin/wget = %q, %v", body, err)
	}
	if target, err := os.Readlink(filepath.Join(dest, "wget/1.24.5/bin/wget2")); err != nil || target != "wget" {
		t.Errorf("symlink = %q, %v", target, err)
	}
	if _, err := os.Stat(filepath.Join(dest, "wget/1.24.5/bin/wget-hard")); err != nil {
		t.Errorf("hard link missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "wget/1.24.5/share/man/man1/wget.1")); err != nil {
		t.Errorf("nested file missing: %v", err)
	}
}

func TestExtractRejectsEscapes(t *testing.T) {
	tests := []struct {
		name    string
		entries []entry
	}{
		{"dot dot", []entry{{name: "../evil", typ: tar.TypeReg, body: "x"}}},
		{"absolute", []entry{{name: "/tmp/evil", typ: tar.TypeReg, body: "x"}}},
		{"hard link out", []entry{{name: "a", typ: tar.TypeLink, linkname: "../../etc/passwd"}}},
		{"through symlink", []entry{
			{name: "out", typ: tar.TypeSymlink, linkname: "/"},
			{name: "out/evil", typ: tar.TypeReg, body: "x"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Extract(writeTemp(t, makeBottle(t, tt.entries)), t.TempDir())
			if !errors.Is(err, errors.ErrCodeExtractionFailed) {
				t.Errorf("Extract() = %v, want EXTRACTION_FAILED", err)
			}
		})
	}
}

func TestExtractNotGzip(t *testing.T) {
	err := Extract(writeTemp(t, []byte("not a bottle")), t.TempDir())
	if !errors.Is(err, errors.ErrCodeExtractionFailed) {
		t.Errorf("Extract() = %v, want EXTRACTION_FAILED", err)
	}
}

func newTestFetcher(srv *httptest.Server) *Fetcher {
	return NewFetcher(integrations.NewClient(nil, nil).WithHTTPClient(srv.Client()), nil)
}

func TestFetch(t *testing.T) {
	payload := []byte("bottle payload")
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	dest := filepath.Join(t.TempDir(), "downloads", "x--wget.tar.gz")

	cached, err := f.Fetch(context.Background(), "wget", srv.URL+"/wget", dest, sum(payload))
	if err != nil || cached {
		t.Fatalf("Fetch() = %v, %v", cached, err)
	}
	if _, err := os.Stat(dest + ".incomplete"); !os.IsNotExist(err) {
		t.Error("incomplete file left behind")
	}

	cached, err = f.Fetch(context.Background(), "wget", srv.URL+"/wget", dest, sum(payload))
	if err != nil || !cached {
		t.Fatalf("second Fetch() = %v, %v", cached, err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
}

func TestFetchCorruptCacheFailsClosed(t *testing.T) {
	payload := []byte("bottle payload")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	dest := filepath.Join(t.TempDir(), "wget.tar.gz")
	if err := os.WriteFile(dest, []byte("truncated"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := f.Fetch(context.Background(), "wget", srv.URL, dest, sum(payload))
	if !errors.Is(err, errors.ErrCodeChecksumMismatch) {
		t.Fatalf("Fetch() = %v, want CHECKSUM_MISMATCH", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatal("corrupt cache entry was kept")
	}

	cached, err := f.Fetch(context.Background(), "wget", srv.URL, dest, sum(payload))
	if err != nil || cached {
		t.Fatalf("retry Fetch() = %v, %v", cached, err)
	}
	got, _ := os.ReadFile(dest)
	if !bytes.Equal(got, payload) {
		t.Errorf("cache holds %q", got)
	}
}

func TestFetchChecksumMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tampered"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "wget.tar.gz")
	_, err := newTestFetcher(srv).Fetch(context.Background(), "wget", srv.URL, dest, sum([]byte("original")))
	if !errors.Is(err, errors.ErrCodeChecksumMismatch) {
		t.Fatalf("Fetch() = %v, want CHECKSUM_MISMATCH", err)
	}
	if errors.Is(err, errors.ErrCodeNetwork) {
		t.Error("checksum failure must not be reported as a network error")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("tampered bottle kept in cache")
	}
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestFetcher(srv).Fetch(context.Background(), "wget", srv.URL, filepath.Join(t.TempDir(), "w"), "00")
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("Fetch() = %v, want NETWORK", err)
	}
}

func TestHeadersFor(t *testing.T) {
	h := headersFor("https://ghcr.io/v2/homebrew/core/wget/blobs/sha256:abc")
	if h["Authorization"] != "Bearer QQ==" {
		t.Errorf("ghcr headers = %v", h)
	}
	if h := headersFor("https://example.com/wget.tar.gz"); h != nil {
		t.Errorf("non-ghcr headers = %v", h)
	}
}
