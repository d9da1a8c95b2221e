package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"bookvoice/internal/config"
)

const userAgent = "bookvoice/0.1"

// RunSummary describes a finished run.
type RunSummary struct {
	Source    string
	Completed int
	Total     int
	Errors    int
	Duration  time.Duration
}

// Service defines the notification surface used by the runner.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary RunSummary) error
	NotifyRunCancelled(ctx context.Context, summary RunSummary) error
	NotifyExportFailed(ctx context.Context, rangeLabel string, err error) error
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
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		runCompleted: cfg.Notifications.RunCompleted,
		errors:       cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	runCompleted bool
	errors       bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary RunSummary) error {
	if !n.runCompleted {
		return nil
	}
	title := "bookvoice - Run Complete"
	message := fmt.Sprintf("✅ %s: %s sentences narrated in %s", displaySource(summary.Source),
		humanize.Comma(int64(summary.Completed)), roundDuration(summary.Duration))
	if summary.Errors > 0 {
		title = "bookvoice - Run Complete (with errors)"
		message = fmt.Sprintf("%s, %d errors", message, summary.Errors)
	}
	return n.send(ctx, payload{
		title:   title,
		message: message,
		tags:    []string{"bookvoice", "run", "completed"},
	})
}

func (n *ntfyService) NotifyRunCancelled(ctx context.Context, summary RunSummary) error {
	if !n.runCompleted {
		return nil
	}
	return n.send(ctx, payload{
		title: "bookvoice - Run Cancelled",
		message: fmt.Sprintf("⏹️ %s: stopped after %s of %s sentences", displaySource(summary.Source),
			humanize.Comma(int64(summary.Completed)), humanize.Comma(int64(summary.Total))),
		tags: []string{"bookvoice", "run", "cancelled"},
	})
}

func (n *ntfyService) NotifyExportFailed(ctx context.Context, rangeLabel string, err error) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Export failed")
	if rangeLabel = strings.TrimSpace(rangeLabel); rangeLabel != "" {
		builder.WriteString(" for sentences ")
		builder.WriteString(rangeLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "bookvoice - Export Failed",
		message:  builder.String(),
		tags:     []string{"bookvoice", "export", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "bookvoice - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"bookvoice", "test"},
		priority: "low",
	})
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
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func displaySource(source string) string {
	if source = strings.TrimSpace(source); source == "" {
		return "run"
	}
	return source
}

func roundDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunSummary) error { return nil }
func (noopService) NotifyRunCancelled(context.Context, RunSummary) error { return nil }
func (noopService) NotifyExportFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error { return nil }
