package config

import (
	"strings"

	"seedvault/internal/fileutil"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = fileutil.ExpandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = fileutil.ExpandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if path := strings.TrimSpace(c.Transfer.ConfigPath); path != "" {
		if c.Transfer.ConfigPath, err = fileutil.ExpandPath(path); err != nil {
			return err
		}
	}
	if path := strings.TrimSpace(c.Archive.RulesFile); path != "" {
		if c.Archive.RulesFile, err = fileutil.ExpandPath(path); err != nil {
			return err
		}
	}
	c.Source.URL = strings.TrimRight(strings.TrimSpace(c.Source.URL), "/")
	c.Transfer.Remote = strings.TrimRight(strings.TrimSpace(c.Transfer.Remote), "/")
	return nil
}
