// Package preflight verifies the runtime environment before the daemon
// starts processing tasks.
package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"seedvault/internal/config"
)

// Check reports on one environment requirement.
type Check struct {
	Name      string
	Required  bool
	Satisfied bool
	Detail    string
}

// Run evaluates every requirement against the supplied configuration.
func Run(cfg *config.Config) []Check {
	checks := []Check{
		binaryCheck("rclone binary", cfg.Transfer.Binary, true),
		rcloneConfigCheck(cfg.Transfer.ConfigPath),
		writableDirCheck("data directory", cfg.Paths.DataDir),
		writableDirCheck("log directory", cfg.Paths.LogDir),
	}
	return checks
}

// Failed returns the subset of required checks that did not pass.
func Failed(checks []Check) []Check {
	var failed []Check
	for _, check := range checks {
		if check.Required && !check.Satisfied {
			failed = append(failed, check)
		}
	}
	return failed
}

func binaryCheck(name, command string, required bool) Check {
	check := Check{Name: name, Required: required}
	command = strings.TrimSpace(command)
	if command == "" {
		check.Detail = "command not configured"
		return check
	}
	path, err := exec.LookPath(command)
	if err != nil {
		check.Detail = fmt.Sprintf("binary %q not found in PATH", command)
		return check
	}
	check.Satisfied = true
	check.Detail = path
	return check
}

// rcloneConfigCheck is advisory: rclone falls back to its own default config
// location when none is configured here.
func rcloneConfigCheck(path string) Check {
	check := Check{Name: "rclone config", Required: false}
	path = strings.TrimSpace(path)
	if path == "" {
		check.Satisfied = true
		check.Detail = "using rclone default config location"
		return check
	}
	info, err := os.Stat(path)
	if err != nil {
		check.Detail = fmt.Sprintf("configured path %s not readable: %v", path, err)
		return check
	}
	if info.IsDir() {
		check.Detail = fmt.Sprintf("configured path %s is a directory", path)
		return check
	}
	check.Satisfied = true
	check.Detail = path
	return check
}

func writableDirCheck(name, dir string) Check {
	check := Check{Name: name, Required: true}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		check.Detail = fmt.Sprintf("create %s: %v", dir, err)
		return check
	}
	probe, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		check.Detail = fmt.Sprintf("%s not writable: %v", dir, err)
		return check
	}
	probe.Close()
	os.Remove(probe.Name())
	check.Satisfied = true
	check.Detail = dir
	return check
}
