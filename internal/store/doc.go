// Package store persists canonical customer records in a single JSON file.
//
// Reads never lock: writers replace the file through a temp file and rename,
// so a reader sees either the old or the new document. Writers serialize their
// read-modify-write cycle with an advisory lock file next to the store.
// A missing file loads as an empty store; an unreadable one is reported as
// services.ErrStoreCorrupt rather than silently replaced.
package store
