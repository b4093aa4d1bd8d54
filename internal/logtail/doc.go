// Package logtail reads the tail of ecoshop's JSON log file and renders it
// for `ecoshop logs`.
//
// Read extracts the last N lines with a ring buffer, so memory stays
// O(N) regardless of file size and the file is scanned once. Missing log
// files return no lines rather than an error; the logger creates the file
// lazily on first write.
//
// Parse decodes a zap production-encoded line into an Entry, and Format
// turns it back into one readable line with sorted key=value fields:
//
//	2026-10-16T09:12:01.000Z WARN  [cart] refresh failed error="timeout"
//
// Pretty combines both and drops entries below a minimum level. Lines that
// are not JSON are passed through untouched.
package logtail
