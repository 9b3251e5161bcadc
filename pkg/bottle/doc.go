// Package bottle locates, downloads, verifies and unpacks bottles, the
// prebuilt per-platform archives a formula is poured from.
//
// A bottle is chosen by platform tag with [Select], named with [Filename],
// cached at [CachePath], downloaded with [Fetcher.Fetch] and unpacked with
// [Extract]. Checksums are always verified before extraction; a mismatching
// file is deleted so it is never poured.
package bottle
