package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"seedvault/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Source contains the qBittorrent WebUI connection settings.
type Source struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	// RequestTimeout bounds individual WebUI API calls, in seconds.
	RequestTimeout int `toml:"request_timeout"`
}

// Transfer contains the rclone invocation settings.
type Transfer struct {
	Binary     string `toml:"binary"`
	ConfigPath string `toml:"config_path"`
	// Remote is the base destination, e.g. "gdrive:archive". Resolved rule
	// paths are appended beneath it.
	Remote string `toml:"remote"`
	// UploadTimeout and VerifyTimeout are in seconds. Uploads run for hours
	// on large payloads; verification is checksum-only and much cheaper.
	UploadTimeout int `toml:"upload_timeout"`
	VerifyTimeout int `toml:"verify_timeout"`
}

// Archive contains the destination rule list, inline or via external file.
type Archive struct {
	// RulesFile points at a YAML rule list. When set it takes precedence
	// over the inline rules.
	RulesFile string `toml:"rules_file"`
	// Rules is decoded loosely so a malformed inline rule degrades to a
	// compile warning instead of failing config load. CompiledRules converts
	// it through rules.FromAny.
	Rules any `toml:"rules,omitempty"`
}

// Workflow contains driver timing and retry settings.
type Workflow struct {
	PollIntervalMS         int `toml:"poll_interval_ms"`
	MaxConcurrent          int `toml:"max_concurrent"`
	UploadRetryLimit       int `toml:"upload_retry_limit"`
	VerificationRetryLimit int `toml:"verification_retry_limit"`
}

// Cleanup controls what happens after a verified upload.
type Cleanup struct {
	DeleteLocal      bool `toml:"delete_local"`
	RemoveFromClient bool `toml:"remove_from_client"`
}

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Config encapsulates all configuration values for seedvault.
type Config struct {
	Source        Source        `toml:"source"`
	Transfer      Transfer      `toml:"transfer"`
	Archive       Archive       `toml:"archive"`
	Workflow      Workflow      `toml:"workflow"`
	Cleanup       Cleanup       `toml:"cleanup"`
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return fileutil.ExpandPath("~/.config/seedvault/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file was found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := fileutil.ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("seedvault.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories daemon operation requires.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite task database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "seedvault.db")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "seedvault.lock")
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}
