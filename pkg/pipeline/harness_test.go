package pipeline

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/cellar/pkg/bottle"
	"github.com/matzehuels/cellar/pkg/config"
	"github.com/matzehuels/cellar/pkg/deps"
	"github.com/matzehuels/cellar/pkg/integrations"
)

const testTag = "x86_64_linux"

type harness struct {
	cfg      *config.Config
	provider *deps.StaticProvider
	inst     *Installer
	srv      *httptest.Server

	mu    sync.Mutex
	blobs map[string][]byte
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	h := &harness{
		cfg: &config.Config{
			Prefix: filepath.Join(root, "prefix"),
			Cellar: filepath.Join(root, "prefix", "Cellar"),
			Cache:  filepath.Join(root, "cache"),
		},
		provider: deps.NewStaticProvider(),
		blobs:    make(map[string][]byte),
	}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		data, ok := h.blobs[r.URL.Path]
		h.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(h.srv.Close)

	logger := log.New(os.Stderr)
	logger.SetLevel(log.ErrorLevel)
	client := integrations.NewClient(nil, nil).WithHTTPClient(h.srv.Client())
	h.inst = New(h.cfg, testTag, h.provider, bottle.NewFetcher(client, logger), logger)
	return h
}

// makeBottle builds a gzipped tarball holding <name>/<version>/<file> for
// each file, with the file path plus version as content.
func makeBottle(t *testing.T, name, version string, files ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, f := range files {
		body := f + "@" + version
		hdr := &tar.Header{
			Name:     name + "/" + version + "/" + f,
			Typeflag: tar.TypeReg,
			Mode:     0o755,
			Size:     int64(len(body)),
		}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func (h *harness) serve(path string, data []byte) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.blobs[path] = data
	return h.srv.URL + path
}

// add registers name at version with a bottle for the test tag containing
// bin/<name>.
func (h *harness) add(t *testing.T, name, version string, runtime ...string) *deps.Formula {
	t.Helper()
	data := makeBottle(t, name, version, "bin/"+name)
	return h.addWithBottle(name, version, data, runtime...)
}

func (h *harness) addWithBottle(name, version string, data []byte, runtime ...string) *deps.Formula {
	sum := sha256.Sum256(data)
	url := h.serve("/"+name+"-"+version+".tar.gz", data)
	f := &deps.Formula{
		Name:         name,
		FullName:     name,
		Tap:          "homebrew/core",
		Versions:     deps.Versions{Stable: version},
		Dependencies: runtime,
		Bottle: &deps.Bottle{Files: map[string]deps.BottleFile{
			testTag: {URL: url, SHA256: hex.EncodeToString(sum[:])},
		}},
	}
	h.provider.Add(f)
	return f
}

func (h *harness) prefix(parts ...string) string {
	return filepath.Join(append([]string{h.cfg.Prefix}, parts...)...)
}

func (h *harness) kegPath(name, version string) string {
	return filepath.Join(h.cfg.Cellar, name, version)
}
