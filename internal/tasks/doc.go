// Package tasks persists the per-torrent archive state machine in SQLite.
// One row exists per discovered torrent, keyed by its info hash, and records
// where the content lives locally, where it should land remotely, and how far
// through the upload/verify/cleanup lifecycle it has progressed.
package tasks
