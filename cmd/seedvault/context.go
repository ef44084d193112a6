package main

import (
	"log/slog"

	"seedvault/internal/config"
	"seedvault/internal/logging"
)

// commandContext shares lazily loaded configuration across subcommands.
type commandContext struct {
	configFlag *string

	cfg     *config.Config
	cfgPath string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, resolvedPath, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.cfgPath = resolvedPath
	return cfg, nil
}

// buildLogger returns a logger writing to the configured log directory.
func (c *commandContext) buildLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.NewAt(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
}
