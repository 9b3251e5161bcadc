package formulae

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/matzehuels/cellar/pkg/deps"
	"github.com/matzehuels/cellar/pkg/errors"
	"github.com/matzehuels/cellar/pkg/httputil"
	"github.com/matzehuels/cellar/pkg/integrations"
)

// DefaultBaseURL is the public Homebrew formula API.
const DefaultBaseURL = "https://formulae.brew.sh/api"

const memoSize = 512

// Client provides access to the formula and cask JSON API.
// It is safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	memo    *lru.Cache[string, *deps.Formula]
}

var (
	_ deps.Provider = (*Client)(nil)
	_ deps.Lister   = (*Client)(nil)
)

// NewClient creates a client for the API rooted at baseURL. An empty
// baseURL selects [DefaultBaseURL]. A nil cache disables the on-disk
// response cache; the in-process memo is always active.
func NewClient(cache *httputil.Cache, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	memo, err := lru.New[string, *deps.Formula](memoSize)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	if cache != nil {
		cache = cache.Namespace("formulae:")
	}
	return &Client{
		Client:  integrations.NewClient(cache, nil),
		baseURL: strings.TrimRight(baseURL, "/"),
		memo:    memo,
	}
}

// Formula returns the descriptor for name. Tap-qualified names are reduced
// to their short form first.
func (c *Client) Formula(ctx context.Context, name string, refresh bool) (*deps.Formula, error) {
	name = deps.ShortName(name)
	if err := errors.ValidateFormulaName(name); err != nil {
		return nil, err
	}
	if !refresh {
		if f, ok := c.memo.Get(name); ok {
			return f, nil
		}
	}

	var f deps.Formula
	err := c.Cached(ctx, "formula:"+name, refresh, &f, func() error {
		var doc formulaDoc
		if err := c.Get(ctx, c.url("formula", name), &doc); err != nil {
			return err
		}
		f = doc.toFormula()
		return nil
	})
	if err != nil {
		return nil, mapError(err, "formula", name)
	}
	c.memo.Add(name, &f)
	return &f, nil
}

// Cask returns the descriptor for the cask token.
func (c *Client) Cask(ctx context.Context, token string) (*deps.Cask, error) {
	token = deps.ShortName(token)
	if err := errors.ValidateFormulaName(token); err != nil {
		return nil, err
	}
	var k deps.Cask
	err := c.Cached(ctx, "cask:"+token, false, &k, func() error {
		var doc caskDoc
		if err := c.Get(ctx, c.url("cask", token), &doc); err != nil {
			return err
		}
		k = doc.toCask()
		return nil
	})
	if err != nil {
		return nil, mapError(err, "cask", token)
	}
	return &k, nil
}

// FormulaNames returns the names of every formula in the index, sorted.
func (c *Client) FormulaNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.Cached(ctx, "index", false, &names, func() error {
		var docs []struct {
			Name string `json:"name"`
		}
		if err := c.Get(ctx, c.baseURL+"/formula.json", &docs); err != nil {
			return err
		}
		names = make([]string, 0, len(docs))
		for _, d := range docs {
			if d.Name != "" {
				names = append(names, d.Name)
			}
		}
		slices.Sort(names)
		return nil
	})
	if err != nil {
		return nil, mapError(err, "formula index", c.baseURL)
	}
	return names, nil
}

func (c *Client) url(kind, name string) string {
	return fmt.Sprintf("%s/%s/%s.json", c.baseURL, kind, url.PathEscape(name))
}

func mapError(err error, kind, name string) error {
	switch {
	case stderrors.Is(err, integrations.ErrNotFound):
		return errors.New(errors.ErrCodePackageNotFound, "no available %s with the name %q", kind, name)
	case stderrors.Is(err, integrations.ErrNetwork):
		return errors.Wrap(errors.ErrCodeNetwork, err, "failed to fetch %s %s", kind, name)
	case errors.GetCode(err) != "", stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return errors.Wrap(errors.ErrCodeInvalidFormula, err, "malformed %s %s", kind, name)
	}
}
