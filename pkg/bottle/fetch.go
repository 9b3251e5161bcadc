package bottle

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/httputil"
	"github.com/matzehuels/cellar/pkg/integrations"
	"github.com/matzehuels/cellar/pkg/observability"
)

// ghcr.io serves public bottles to any bearer token.
const ghcrHost = "ghcr.io"

var ghcrHeaders = map[string]string{
	"Authorization": "Bearer QQ==",
	"Accept":        "application/vnd.oci.image.layer.v1.tar+gzip",
}

// Fetcher downloads bottles into the download cache.
type Fetcher struct {
	client *integrations.Client
	logger *log.Logger
}

// NewFetcher creates a Fetcher. A nil client gets one without a response
// cache and without an overall timeout.
func NewFetcher(client *integrations.Client, logger *log.Logger) *Fetcher {
	if client == nil {
		client = integrations.NewClient(nil, nil).WithHTTPClient(integrations.NewDownloadClient())
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch makes sure a verified copy of rawURL exists at dest and reports
// whether the cached copy was used.
//
// A cached file is reused when its checksum matches. Downloads go to
// dest+".incomplete" and are renamed into place before verification, so dest
// never holds a partial file. Any file that fails verification, cached or
// fresh, is deleted and CHECKSUM_MISMATCH is returned; the next call
// downloads it again.
func (f *Fetcher) Fetch(ctx context.Context, name, rawURL, dest, sha string) (bool, error) {
	if _, err := os.Stat(dest); err == nil {
		if err := Verify(dest, sha); err != nil {
			return false, err
		}
		observability.Cache().OnCacheHit(ctx, "bottle")
		observability.Install().OnFetch(ctx, name, rawURL, true)
		f.logger.Debug("using cached bottle", "name", name, "path", dest)
		return true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "bottle")

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	incomplete := dest + ".incomplete"
	err := httputil.RetryWithBackoff(ctx, func() error {
		return f.download(ctx, rawURL, incomplete)
	})
	if err != nil {
		_ = os.Remove(incomplete)
		return false, errors.Wrap(errors.ErrCodeNetwork, err, "download %s bottle from %s", name, rawURL)
	}
	if err := os.Rename(incomplete, dest); err != nil {
		return false, fmt.Errorf("move %s into place: %w", dest, err)
	}
	observability.Install().OnFetch(ctx, name, rawURL, false)
	if err := Verify(dest, sha); err != nil {
		return false, err
	}
	return false, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL, path string) error {
	body, err := f.client.Open(ctx, rawURL, headersFor(rawURL))
	if err != nil {
		return err
	}
	defer body.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return httputil.Retryable(fmt.Errorf("write %s: %w", path, err))
	}
	f.logger.Debug("downloaded", "url", rawURL, "bytes", n)
	return nil
}

func headersFor(rawURL string) map[string]string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() != ghcrHost {
		return nil
	}
	return ghcrHeaders
}
