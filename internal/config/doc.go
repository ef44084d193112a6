// Package config loads and validates seedvault's TOML configuration,
// including the archiving rule list that drives destination resolution.
package config
