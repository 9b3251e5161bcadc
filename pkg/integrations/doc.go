// Package integrations provides the HTTP plumbing shared by remote clients.
//
// # Overview
//
// [Client] wraps an *http.Client with default headers, retry on transient
// failures and an optional [httputil.Cache] for decoded JSON responses. The
// formula API client in the formulae subpackage embeds it, and the bottle
// fetcher streams archives through [Client.Open].
//
// # Errors
//
// Responses are mapped to two sentinel errors:
//
//   - [ErrNotFound]: 404 responses
//   - [ErrNetwork]: transport failures and any other non-200 status
//
// 5xx and 429 responses as well as transport failures are wrapped in
// [httputil.RetryableError] so [Client.Cached] retries them.
package integrations
