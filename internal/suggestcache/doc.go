// Package suggestcache stores classifier suggestions keyed by file
// fingerprint so unchanged files never trigger a second classifier call.
//
// The cache is a small SQLite database. Fingerprints come in two flavors:
// stat (path, size, mtime) for speed, content (sha256 of the body) for
// correctness across renames.
package suggestcache
