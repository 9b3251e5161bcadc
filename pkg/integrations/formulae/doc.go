// Package formulae provides a client for a Homebrew-compatible JSON API.
//
// # Overview
//
// The API serves one JSON document per formula at
// <base>/formula/<name>.json, one per cask at <base>/cask/<token>.json and
// the complete formula index at <base>/formula.json. [Client] maps these
// documents onto [deps.Formula] and [deps.Cask], so it can be handed to the
// resolver, the pipeline and the safety checker as a [deps.Provider].
//
// # Caching
//
// Decoded descriptors are cached twice: in an in-process LRU keyed by
// formula name, and on disk through the [httputil.Cache] passed to
// [NewClient]. The refresh flag bypasses both.
//
// # Errors
//
// An unknown name yields an error with code PACKAGE_NOT_FOUND. Transport
// failures and unexpected statuses yield NETWORK.
package formulae
