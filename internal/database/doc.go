// Package database persists extracted prompt metadata in SQLite so that
// repeated filtering of a large folder does not re-read every file.
//
// Entries are keyed by path and carry the file size and modification time
// they were extracted from; metadata.CachedExtractor compares that stamp
// with the file on disk and treats a mismatch as a miss. Database
// implements metadata.Store.
//
// The connection uses WAL journaling and a busy timeout, and all calls are
// bounded by a default timeout.
package database
