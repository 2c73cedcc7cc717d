package notify

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/evanofslack/cloudflare-ddns/internal/config"
	"github.com/evanofslack/cloudflare-ddns/internal/metrics"
)

// Target is a single notification channel.
type Target interface {
	Name() string
	Send(ctx context.Context, message string) error
}

type Httper interface {
	Do(req *http.Request) (*http.Response, error)
}

// Notifier delivers a message to every target on a best-effort basis.
type Notifier struct {
	targets []Target
	metrics *metrics.Metrics
}

func New(m *metrics.Metrics, targets ...Target) *Notifier {
	return &Notifier{targets: targets, metrics: m}
}

// FromConfig builds a Notifier with only the targets whose required settings
// are present. Partially configured targets are skipped without error.
func FromConfig(cfg *config.Config, client Httper, m *metrics.Metrics) *Notifier {
	var targets []Target
	if cfg.Notify.Slack.URL != "" {
		targets = append(targets, NewSlack(cfg.Notify.Slack.URL, cfg.Notify.Slack.Channel, client))
	}
	if cfg.Notify.Discord.URL != "" {
		targets = append(targets, NewDiscord(cfg.Notify.Discord.URL, client))
	}
	if cfg.Notify.Email.Enabled() {
		targets = append(targets, NewEmail(cfg.Notify.Email, cfg.SiteName, cfg.HTTP.Timeout))
	}
	return New(m, targets...)
}

// Targets lists the enabled target names in delivery order.
func (n *Notifier) Targets() []string {
	names := make([]string, 0, len(n.targets))
	for _, t := range n.targets {
		names = append(names, t.Name())
	}
	return names
}

// Notify sends message to each target in turn. Failures are logged and never
// stop the remaining targets.
func (n *Notifier) Notify(ctx context.Context, message string) {
	for _, t := range n.targets {
		err := t.Send(ctx, message)
		if n.metrics != nil {
			n.metrics.IncNotification(t.Name(), err == nil)
		}
		if err != nil {
			slog.Error("Failed to send notification", "target", t.Name(), "error", err)
			continue
		}
		slog.Debug("Sent notification", "target", t.Name())
	}
}
