// Package notify holds the operator notification backends. Delivery is best
// effort everywhere: a lost notification never fails a job.
package notify

import (
	"context"
	"net/http"
	"time"

	"catalogsync/internal/core/ports"
	"catalogsync/internal/platform/httpclient"
	"catalogsync/internal/platform/logx"
)

// LogNotifier writes events to the structured log.
type LogNotifier struct {
	logger logx.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

// NewLog creates a log-backed notifier.
func NewLog(logger logx.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notify")}
}

// Notify implements ports.Notifier.
func (n *LogNotifier) Notify(_ context.Context, event ports.Event) error {
	kv := []any{
		"event", string(event.Type),
		"severity", string(event.Severity),
	}
	if event.Job != "" {
		kv = append(kv, "job", event.Job)
	}
	for key, value := range event.Fields {
		kv = append(kv, key, value)
	}

	switch event.Severity {
	case ports.SeverityCritical:
		n.logger.Warn(event.Message, kv...)
	default:
		n.logger.Info(event.Message, kv...)
	}
	return nil
}

// Close implements ports.Notifier.
func (n *LogNotifier) Close() error { return nil }

// WebhookNotifier posts events as JSON to a configured URL.
type WebhookNotifier struct {
	client *httpclient.Client
	url    string
	logger logx.Logger
}

var _ ports.Notifier = (*WebhookNotifier)(nil)

// NewWebhook creates a webhook notifier.
func NewWebhook(url string, timeout time.Duration, logger logx.Logger) *WebhookNotifier {
	client := httpclient.New(httpclient.Config{
		Timeout:    timeout,
		MaxRetries: 1,
	}, logger)

	return &WebhookNotifier{
		client: client,
		url:    url,
		logger: logger.With("component", "webhook"),
	}
}

type webhookPayload struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Job       string            `json:"job,omitempty"`
	Message   string            `json:"message"`
	Severity  string            `json:"severity"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Notify implements ports.Notifier. Failures are logged, never returned.
func (n *WebhookNotifier) Notify(ctx context.Context, event ports.Event) error {
	payload := webhookPayload{
		Type:      string(event.Type),
		Timestamp: event.Timestamp,
		Job:       event.Job,
		Message:   event.Message,
		Severity:  string(event.Severity),
		Fields:    event.Fields,
	}

	if err := n.client.DoJSON(ctx, http.MethodPost, n.url, payload, nil, nil); err != nil {
		n.logger.Warn("webhook delivery failed", "event", string(event.Type), "error", err.Error())
	}
	return nil
}

// Close implements ports.Notifier.
func (n *WebhookNotifier) Close() error { return nil }

// Fanout delivers each event to every backend.
type Fanout struct {
	backends []ports.Notifier
}

var _ ports.Notifier = (*Fanout)(nil)

// NewFanout combines notifiers.
func NewFanout(backends ...ports.Notifier) *Fanout {
	return &Fanout{backends: backends}
}

// Notify implements ports.Notifier.
func (f *Fanout) Notify(ctx context.Context, event ports.Event) error {
	for _, b := range f.backends {
		_ = b.Notify(ctx, event)
	}
	return nil
}

// Close implements ports.Notifier.
func (f *Fanout) Close() error {
	for _, b := range f.backends {
		_ = b.Close()
	}
	return nil
}
