package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"build-hooks/internal/db/models"
	"build-hooks/pkg/hooks"
)

// Event kinds
const (
	EventTrigger  = "trigger"
	EventWorkflow = "workflow"
	EventTest     = "test"
)

// Event is a build notification payload
type Event struct {
	Kind       string         `json:"kind"`
	HookType   hooks.Type     `json:"hook_type,omitempty"`
	Status     string         `json:"status"`
	Severity   hooks.Severity `json:"severity,omitempty"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	Link       string         `json:"link,omitempty"`
	Error      string         `json:"error,omitempty"`
	Time       time.Time      `json:"time"`
}

// Failed reports whether the event describes a failure
func (e Event) Failed() bool {
	return e.Error != "" || e.Severity == hooks.SeverityError || e.Status == string(models.TriggerFailed)
}

// Notifier handles sending notifications to different channels
type Notifier struct {
	channel *models.NotificationChannel
	client  *http.Client
}

// NewNotifier creates a new notifier for a given channel
func NewNotifier(channel *models.NotificationChannel) *Notifier {
	return &Notifier{
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SendTestMessage sends a test notification
func (n *Notifier) SendTestMessage(ctx context.Context) error {
	return n.Send(ctx, Event{
		Kind:   EventTest,
		Status: "ok",
		Time:   time.Now(),
	})
}

// Send delivers an event to the channel. The request is abandoned when ctx
// is done.
func (n *Notifier) Send(ctx context.Context, event Event) error {
	switch n.channel.Type {
	case models.ChannelSlack:
		return n.sendHTTPRequest(ctx, n.channel.WebhookURL, map[string]string{"text": FormatEvent(event)})
	case models.ChannelWebhook:
		return n.sendHTTPRequest(ctx, n.channel.WebhookURL, event)
	default:
		return fmt.Errorf("unsupported channel type: %s", n.channel.Type)
	}
}

// FormatEvent renders an event as Slack mrkdwn text
func FormatEvent(event Event) string {
	var b strings.Builder

	switch event.Kind {
	case EventTest:
		b.WriteString("*Build Hooks* - test notification\n")
		b.WriteString("> If you can read this, the channel is configured correctly.\n")
	case EventTrigger:
		fmt.Fprintf(&b, "*Build Hooks* - %s build trigger %s\n", event.HookType.Label(), event.Status)
	case EventWorkflow:
		fmt.Fprintf(&b, "*Build Hooks* - workflow %s\n", event.Status)
	default:
		fmt.Fprintf(&b, "*Build Hooks* - %s\n", event.Status)
	}

	if event.WorkflowID != "" {
		if event.Link != "" {
			fmt.Fprintf(&b, "> *Workflow*: <%s|%s>\n", event.Link, event.WorkflowID)
		} else {
			fmt.Fprintf(&b, "> *Workflow*: %s\n", event.WorkflowID)
		}
	}
	if event.Error != "" {
		fmt.Fprintf(&b, "> *Error*:\n```\n%s\n```\n", event.Error)
	}

	fmt.Fprintf(&b, "_%s_", event.Time.Format("2006-01-02 15:04:05"))
	return b.String()
}

// sendHTTPRequest sends an HTTP POST request with JSON payload
func (n *Notifier) sendHTTPRequest(ctx context.Context, url string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	return nil
}
