package rclone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"seedvault/internal/fileutil"
	"seedvault/internal/logging"
	"seedvault/internal/services"
)

// outputLimit caps how much captured rclone output survives into task rows
// and log records.
const outputLimit = 8192

// UploadResult reports the outcome of a single upload invocation.
type UploadResult struct {
	Success    bool
	RemotePath string
	Message    string
}

// VerifyResult reports the outcome of a single verification invocation.
type VerifyResult struct {
	Verified bool
	Message  string
}

// Transfer is the capability surface the driver depends on.
type Transfer interface {
	Upload(ctx context.Context, localPath, remotePath string) (UploadResult, error)
	Verify(ctx context.Context, localPath, remotePath string) (VerifyResult, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger attaches a logger; a no-op logger is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "rclone")
	}
}

// Client wraps rclone CLI interactions for one configured remote.
type Client struct {
	binary        string
	configPath    string
	remote        string
	uploadTimeout time.Duration
	verifyTimeout time.Duration
	exec          Executor
	logger        *slog.Logger
}

// New constructs an rclone client. remote is the base destination every
// resolved path is appended under, e.g. "gdrive:archive".
func New(binary, configPath, remote string, uploadTimeout, verifyTimeout time.Duration, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "rclone", "new", "binary required", nil)
	}
	remote = strings.TrimRight(strings.TrimSpace(remote), "/")
	if remote == "" {
		return nil, services.Wrap(services.ErrConfiguration, "rclone", "new", "remote required", nil)
	}
	client := &Client{
		binary:        binary,
		configPath:    strings.TrimSpace(configPath),
		remote:        remote,
		uploadTimeout: uploadTimeout,
		verifyTimeout: verifyTimeout,
		exec:          commandExecutor{},
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// RemoteFor joins a resolved destination path onto the configured remote.
func (c *Client) RemoteFor(remotePath string) string {
	remotePath = strings.Trim(strings.TrimSpace(remotePath), "/")
	if remotePath == "" {
		return c.remote
	}
	return c.remote + "/" + remotePath
}

// Upload copies local content to the resolved destination. Directories use
// `copy` so their contents land beneath the destination; single files use
// `copyto` so the destination is the exact remote file path. Tool failures
// and timeouts are reported in the result, not as errors; the returned error
// covers only conditions rclone was never asked about (e.g. the local path
// is gone).
func (c *Client) Upload(ctx context.Context, localPath, remotePath string) (UploadResult, error) {
	isDir, err := fileutil.IsDir(localPath)
	if err != nil {
		return UploadResult{}, services.Wrap(services.ErrValidation, "rclone", "upload", fmt.Sprintf("stat local path %s", localPath), err)
	}

	dest := c.RemoteFor(remotePath)
	verb := "copyto"
	if isDir {
		verb = "copy"
	}
	args := c.baseArgs(verb, localPath, dest)

	output, runErr := c.run(ctx, c.uploadTimeout, args)
	if runErr != nil {
		return UploadResult{
			Success:    false,
			RemotePath: dest,
			Message:    failureMessage(runErr, output),
		}, nil
	}
	return UploadResult{Success: true, RemotePath: dest}, nil
}

// Verify confirms checksum-level equivalence between local and remote
// content in both directions. Single files are checked against their remote
// parent directory since `check` wants a directory destination.
func (c *Client) Verify(ctx context.Context, localPath, remotePath string) (VerifyResult, error) {
	isDir, err := fileutil.IsDir(localPath)
	if err != nil {
		return VerifyResult{}, services.Wrap(services.ErrValidation, "rclone", "verify", fmt.Sprintf("stat local path %s", localPath), err)
	}

	dest := c.RemoteFor(remotePath)
	if !isDir {
		dest = parentOf(dest)
	}
	args := c.baseArgs("check", localPath, dest)

	output, runErr := c.run(ctx, c.verifyTimeout, args)
	if runErr != nil {
		return VerifyResult{
			Verified: false,
			Message:  failureMessage(runErr, output),
		}, nil
	}
	return VerifyResult{Verified: true}, nil
}

func (c *Client) baseArgs(verb, source, dest string) []string {
	args := []string{verb, source, dest}
	if c.configPath != "" {
		args = append(args, "--config", c.configPath)
	}
	return args
}

func (c *Client) run(ctx context.Context, timeout time.Duration, args []string) (string, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	output, err := c.exec.Run(runCtx, c.binary, args)
	output = fileutil.Truncate(output, outputLimit)

	if err != nil {
		c.logger.Warn("rclone invocation failed",
			logging.String("subcommand", args[0]),
			logging.Duration("elapsed", time.Since(started)),
			logging.Error(err),
		)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return output, services.Wrap(services.ErrTimeout, "rclone", args[0], fmt.Sprintf("timed out after %s", timeout), nil)
		}
		return output, err
	}

	c.logger.Debug("rclone invocation succeeded",
		logging.String("subcommand", args[0]),
		logging.Duration("elapsed", time.Since(started)),
	)
	return output, nil
}

func failureMessage(err error, output string) string {
	msg := strings.TrimSpace(err.Error())
	if trimmed := strings.TrimSpace(output); trimmed != "" {
		msg = msg + ": " + trimmed
	}
	return fileutil.Truncate(msg, outputLimit)
}

func parentOf(remote string) string {
	// remote paths look like "backend:dir/sub/file"; path.Dir on the part
	// after the colon keeps the backend prefix intact.
	if idx := strings.Index(remote, ":"); idx >= 0 {
		prefix, rest := remote[:idx+1], remote[idx+1:]
		dir := path.Dir(rest)
		if dir == "." || dir == "/" {
			return prefix
		}
		return prefix + dir
	}
	dir := path.Dir(remote)
	if dir == "." {
		return ""
	}
	return dir
}
