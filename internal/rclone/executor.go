package rclone

import (
	"bytes"
	"context"
	"os/exec"
)

// Executor abstracts command execution for testability.
type Executor interface {
	// Run executes the binary and returns its combined stdout/stderr.
	Run(ctx context.Context, binary string, args []string) (string, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	err := cmd.Run()
	return output.String(), err
}
