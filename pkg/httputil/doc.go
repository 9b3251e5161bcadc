// Package httputil provides the on-disk response cache and retry helpers
// shared by the registry client and the bottle fetcher.
//
// # Caching
//
// [Cache] stores JSON-encoded values under a directory, one file per key,
// named after the SHA-256 of the key. The formula API client caches decoded
// descriptors here so that `cellar deps` and `cellar uses` do not hit the
// network for every installed formula:
//
//	cache, err := httputil.NewCache(cfg.APICacheDir(), cfg.CacheTTL)
//	formulae := cache.Namespace("formula:")
//
// `cellar cache clear` calls [Cache.Clear].
//
// # Retry
//
// [Retry] re-runs a function while it fails with a [RetryableError],
// doubling the delay between attempts. Transient failures (network errors,
// 5xx responses) are wrapped by the caller; everything else is returned
// immediately. [RetryWithBackoff] uses 3 attempts starting at one second.
package httputil
