// Package logging wraps log/slog with seedvault's conventions: named
// components, standard field keys, context-derived attributes, and
// text or JSON output optionally mirrored to a log file.
package logging
