package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"seedvault/internal/config"
)

const userAgent = "Seedvault/0.1.0"

// Service defines the notification surface exposed to the driver and CLI.
type Service interface {
	NotifyArchived(ctx context.Context, name, remotePath string) error
	NotifyTaskFailed(ctx context.Context, name, stage, message string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyArchived(ctx context.Context, name, remotePath string) error {
	name = strings.TrimSpace(name)
	message := fmt.Sprintf("Archived: %s", name)
	if remotePath = strings.TrimSpace(remotePath); remotePath != "" {
		message = fmt.Sprintf("%s\nDestination: %s", message, remotePath)
	}
	data := payload{
		title:   "Seedvault - Archived",
		message: message,
		tags:    []string{"seedvault", "archive", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTaskFailed(ctx context.Context, name, stage, message string) error {
	data := payload{
		title:    "Seedvault - Task Failed",
		message:  fmt.Sprintf("%s failed during %s: %s", strings.TrimSpace(name), strings.TrimSpace(stage), strings.TrimSpace(message)),
		tags:     []string{"seedvault", "task", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Seedvault - Error",
		message:  builder.String(),
		tags:     []string{"seedvault", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Seedvault - Test",
		message:  "Notification system test",
		tags:     []string{"seedvault", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}
	return nil
}

type noopService struct{}

func (noopService) NotifyArchived(context.Context, string, string) error       { return nil }
func (noopService) NotifyTaskFailed(context.Context, string, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
