package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"captioner/internal/config"
)

const userAgent = "captioner/1.0"

// Service is the notification surface used by the workflow manager.
type Service interface {
	JobCompleted(ctx context.Context, name, outputPath string, elapsed time.Duration) error
	JobFailed(ctx context.Context, name string, err error) error
	Test(ctx context.Context) error
}

// NewService builds an ntfy notifier, or a no-op when no topic is set.
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
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		onSuccess: cfg.Notifications.OnSuccess,
		onFailure: cfg.Notifications.OnFailure,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	onSuccess bool
	onFailure bool
}

func (n *ntfyService) JobCompleted(ctx context.Context, name, outputPath string, elapsed time.Duration) error {
	if !n.onSuccess {
		return nil
	}
	body := fmt.Sprintf("Captioned %s in %s", displayName(name), formatElapsed(elapsed))
	if outputPath = strings.TrimSpace(outputPath); outputPath != "" {
		body += "\nOutput: " + outputPath
	}
	return n.send(ctx, message{
		title: "Captioner - Render Complete",
		body:  body,
		tags:  []string{"captioner", "render", "completed"},
	})
}

func (n *ntfyService) JobFailed(ctx context.Context, name string, err error) error {
	if !n.onFailure {
		return nil
	}
	reason := "unknown error"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	return n.send(ctx, message{
		title:    "Captioner - Render Failed",
		body:     fmt.Sprintf("Failed to caption %s: %s", displayName(name), reason),
		tags:     []string{"captioner", "render", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) Test(ctx context.Context) error {
	return n.send(ctx, message{
		title:    "Captioner - Test",
		body:     "Notification delivery works",
		tags:     []string{"captioner", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "video"
	}
	return filepath.Base(name)
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

type noopService struct{}

func (noopService) JobCompleted(context.Context, string, string, time.Duration) error { return nil }
func (noopService) JobFailed(context.Context, string, error) error                    { return nil }
func (noopService) Test(context.Context) error                                        { return nil }
