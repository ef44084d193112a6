// Package driver runs the archive state machine: it polls qBittorrent for
// completed torrents, creates tasks with resolved destinations, and advances
// actionable tasks through upload, verification, and cleanup with bounded
// concurrency. One failed task never affects its siblings, and ticks never
// overlap.
package driver
