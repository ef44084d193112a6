// Package rules implements the archiving rule resolver: an ordered list of
// declarative rules mapping a completed torrent's metadata to the remote
// destination path it should be archived under. Resolution is pure; rule
// compilation reports structural problems as warnings rather than errors so
// a bad rule never takes the daemon down.
package rules
