package rclone_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"seedvault/internal/rclone"
	"seedvault/internal/services"
)

type fakeExecutor struct {
	output string
	err    error
	block  bool

	calls [][]string
}

func (f *fakeExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	f.calls = append(f.calls, append([]string{binary}, args...))
	if f.block {
		<-ctx.Done()
		return f.output, ctx.Err()
	}
	return f.output, f.err
}

func newClient(t *testing.T, exec *fakeExecutor, opts ...rclone.Option) *rclone.Client {
	t.Helper()
	opts = append([]rclone.Option{rclone.WithExecutor(exec)}, opts...)
	client, err := rclone.New("rclone", "", "gdrive:archive", time.Minute, time.Minute, opts...)
	require.NoError(t, err)
	return client
}

func tempFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.mkv")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	return path
}

func TestUploadFileUsesCopyto(t *testing.T) {
	exec := &fakeExecutor{}
	client := newClient(t, exec)
	local := tempFile(t)

	result, err := client.Upload(context.Background(), local, "Movies/Alpha (2001)/payload.mkv")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "gdrive:archive/Movies/Alpha (2001)/payload.mkv", result.RemotePath)

	require.Len(t, exec.calls, 1)
	require.Equal(t, []string{"rclone", "copyto", local, "gdrive:archive/Movies/Alpha (2001)/payload.mkv"}, exec.calls[0])
}

func TestUploadDirectoryUsesCopy(t *testing.T) {
	exec := &fakeExecutor{}
	client := newClient(t, exec)
	local := t.TempDir()

	result, err := client.Upload(context.Background(), local, "TV/Show")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "copy", exec.calls[0][1])
}

func TestUploadToolFailureReportedInResult(t *testing.T) {
	exec := &fakeExecutor{output: "Failed to copy: quota exceeded", err: errors.New("exit status 7")}
	client := newClient(t, exec)

	result, err := client.Upload(context.Background(), tempFile(t), "X")
	require.NoError(t, err, "tool failure is an outcome, not an error")
	require.False(t, result.Success)
	require.Contains(t, result.Message, "exit status 7")
	require.Contains(t, result.Message, "quota exceeded")
}

func TestUploadMissingLocalPathIsError(t *testing.T) {
	exec := &fakeExecutor{}
	client := newClient(t, exec)

	_, err := client.Upload(context.Background(), filepath.Join(t.TempDir(), "gone"), "X")
	require.Error(t, err)
	require.True(t, errors.Is(err, services.ErrValidation))
	require.Empty(t, exec.calls, "rclone must not run for a missing local path")
}

func TestVerifyFileChecksAgainstRemoteParent(t *testing.T) {
	exec := &fakeExecutor{}
	client := newClient(t, exec)
	local := tempFile(t)

	result, err := client.Verify(context.Background(), local, "Movies/Alpha/payload.mkv")
	require.NoError(t, err)
	require.True(t, result.Verified)
	require.Equal(t, []string{"rclone", "check", local, "gdrive:archive/Movies/Alpha"}, exec.calls[0])
}

func TestVerifyDirectoryChecksExactDestination(t *testing.T) {
	exec := &fakeExecutor{}
	client := newClient(t, exec)
	local := t.TempDir()

	result, err := client.Verify(context.Background(), local, "TV/Show")
	require.NoError(t, err)
	require.True(t, result.Verified)
	require.Equal(t, "gdrive:archive/TV/Show", exec.calls[0][3])
}

func TestVerifyMismatchReportedInResult(t *testing.T) {
	exec := &fakeExecutor{output: "1 differences found", err: errors.New("exit status 1")}
	client := newClient(t, exec)

	result, err := client.Verify(context.Background(), tempFile(t), "X/payload.mkv")
	require.NoError(t, err)
	require.False(t, result.Verified)
	require.Contains(t, result.Message, "differences found")
}

func TestTimeoutSurfacesAsTimeoutFailure(t *testing.T) {
	exec := &fakeExecutor{block: true}
	client, err := rclone.New("rclone", "", "gdrive:archive", 50*time.Millisecond, 50*time.Millisecond, rclone.WithExecutor(exec))
	require.NoError(t, err)

	result, uploadErr := client.Upload(context.Background(), tempFile(t), "X")
	require.NoError(t, uploadErr)
	require.False(t, result.Success)
	require.Contains(t, result.Message, "timed out")
}

func TestConfigPathAppended(t *testing.T) {
	exec := &fakeExecutor{}
	client, err := rclone.New("rclone", "/etc/rclone.conf", "gdrive:archive", time.Minute, time.Minute, rclone.WithExecutor(exec))
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), tempFile(t), "X")
	require.NoError(t, err)
	call := strings.Join(exec.calls[0], " ")
	require.Contains(t, call, "--config /etc/rclone.conf")
}

func TestLongOutputTruncated(t *testing.T) {
	exec := &fakeExecutor{output: strings.Repeat("x", 20000), err: errors.New("exit status 1")}
	client := newClient(t, exec)

	result, err := client.Upload(context.Background(), tempFile(t), "X")
	require.NoError(t, err)
	require.False(t, result.Success)
	require.LessOrEqual(t, len(result.Message), 8192+len("... (truncated)"))
	require.Contains(t, result.Message, "truncated")
}

func TestRemoteFor(t *testing.T) {
	client := newClient(t, &fakeExecutor{})
	require.Equal(t, "gdrive:archive/TV/Show", client.RemoteFor("/TV/Show/"))
	require.Equal(t, "gdrive:archive", client.RemoteFor(""))
}
