package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fenilsonani/cachescope/internal/cleaner"
	"github.com/fenilsonani/cachescope/internal/config"
	"github.com/fenilsonani/cachescope/internal/logger"
	"github.com/fenilsonani/cachescope/pkg/utils"
)

// Notification types
const (
	NotifyStartup        = "startup"
	NotifyShutdown       = "shutdown"
	NotifyCleanupSuccess = "cleanup_success"
	NotifyCleanupFailure = "cleanup_failure"
)

// Notifier posts daemon events to a webhook
type Notifier struct {
	config *config.NotificationConfig
	client *http.Client
	log    *logger.Logger
	now    func() time.Time
}

// NewNotifier creates a new notifier
func NewNotifier(cfg *config.NotificationConfig, log *logger.Logger) *Notifier {
	return &Notifier{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
		now:    time.Now,
	}
}

// NotificationMessage is the JSON body posted to the webhook
type NotificationMessage struct {
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

// SendStartupNotification sends a startup notification
func (n *Notifier) SendStartupNotification(ctx context.Context, jobs int) {
	n.send(ctx, &NotificationMessage{
		Title:   "Cleanup daemon started",
		Message: fmt.Sprintf("The cleanup daemon started with %d scheduled jobs", jobs),
		Type:    NotifyStartup,
	})
}

// SendShutdownNotification sends a shutdown notification
func (n *Notifier) SendShutdownNotification(ctx context.Context) {
	n.send(ctx, &NotificationMessage{
		Title:   "Cleanup daemon stopped",
		Message: "The cleanup daemon has stopped",
		Type:    NotifyShutdown,
	})
}

// SendCleanupNotification reports a finished job. A run with failures or
// an abort counts as a failure; OnSuccess and OnFailure filter them.
func (n *Notifier) SendCleanupNotification(ctx context.Context, job string, sum *cleaner.Summary) {
	if n == nil || sum == nil {
		return
	}
	failed := sum.ItemsFailed > 0 || sum.Aborted
	if failed && !n.config.OnFailure {
		return
	}
	if !failed && !n.config.OnSuccess {
		return
	}

	msg := &NotificationMessage{
		Type: NotifyCleanupSuccess,
		Data: map[string]any{
			"job_name":      job,
			"mode":          string(sum.Mode),
			"dry_run":       sum.DryRun,
			"items_deleted": sum.ItemsDeleted,
			"items_skipped": sum.ItemsSkipped,
			"items_failed":  sum.ItemsFailed,
			"bytes_freed":   sum.BytesFreed,
			"duration":      sum.Duration.String(),
		},
	}

	freed := utils.FormatBytes(sum.BytesFreed)
	switch {
	case failed:
		msg.Type = NotifyCleanupFailure
		msg.Title = fmt.Sprintf("Cleanup failed: %s", job)
		msg.Message = fmt.Sprintf("%d items failed, %d deleted, %s freed", sum.ItemsFailed, sum.ItemsDeleted, freed)
	case sum.DryRun:
		msg.Title = fmt.Sprintf("Cleanup preview: %s", job)
		msg.Message = fmt.Sprintf("%s could be freed across %d items", freed, sum.ItemsSkipped)
	default:
		msg.Title = fmt.Sprintf("Cleanup completed: %s", job)
		msg.Message = fmt.Sprintf("Deleted %d items, freed %s in %s", sum.ItemsDeleted, freed, sum.Duration.Round(time.Second))
	}

	n.send(ctx, msg)
}

func (n *Notifier) send(ctx context.Context, msg *NotificationMessage) {
	if n == nil || !n.config.Enabled || n.config.Webhook.URL == "" {
		return
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = n.now()
	}

	if err := n.sendWebhook(ctx, msg); err != nil {
		n.log.Error("failed to send webhook notification", err, logger.F("type", msg.Type))
		return
	}
	n.log.Debug("webhook notification sent", logger.F("type", msg.Type))
}

// sendWebhook posts msg as JSON
func (n *Notifier) sendWebhook(ctx context.Context, msg *NotificationMessage) error {
	cfg := &n.config.Webhook

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
