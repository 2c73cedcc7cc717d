package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evanofslack/cloudflare-ddns/internal/config"
	"github.com/evanofslack/cloudflare-ddns/internal/metrics"
	"github.com/evanofslack/cloudflare-ddns/internal/provider"
	"github.com/evanofslack/cloudflare-ddns/internal/publicip"
)

type Discoverer interface {
	Discover(ctx context.Context) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, message string)
}

type Engine interface {
	Reconcile(ctx context.Context) Result
}

type engine struct {
	discoverer  Discoverer
	dnsProvider provider.Provider
	notifier    Notifier
	opts        Options
	metrics     *metrics.Metrics
}

func NewEngine(d Discoverer, dp provider.Provider, n Notifier, cfg *config.Config, metrics *metrics.Metrics) *engine {
	return &engine{
		discoverer:  d,
		dnsProvider: dp,
		notifier:    n,
		opts:        OptionsFromConfig(cfg),
		metrics:     metrics,
	}
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ZoneID:     cfg.DNS.ZoneID,
		RecordName: cfg.DNS.RecordName,
		TTL:        time.Duration(cfg.DNS.TTL) * time.Second,
		Proxied:    cfg.DNS.Proxied,
		SiteName:   cfg.SiteName,
		DryRun:     cfg.DryRun,
	}
}

func (e *engine) Reconcile(ctx context.Context) Result {
	res := e.reconcile(ctx)
	e.report(res)

	if msg, ok := Render(res, e.opts.SiteName, e.opts.RecordName); ok && e.notifier != nil {
		e.notifier.Notify(ctx, msg)
	}
	if e.metrics != nil {
		e.metrics.IncRun(res.Outcome.String())
	}
	return res
}

func (e *engine) reconcile(ctx context.Context) Result {
	ip, err := e.discoverer.Discover(ctx)
	if err != nil {
		return Result{Outcome: DiscoveryFailed, Err: err}
	}
	res := Result{IP: ip}

	if !publicip.IsValidIPv4(ip) {
		res.Outcome = InvalidIP
		res.Err = fmt.Errorf("%w: %q", ErrInvalidIP, ip)
		return res
	}

	current, err := e.dnsProvider.FetchRecord(ctx, e.opts.ZoneID, e.opts.RecordName)
	if errors.Is(err, provider.ErrRecordNotFound) {
		res.Outcome = RecordMissing
		res.Err = err
		return res
	}
	if err != nil {
		res.Outcome = LookupFailed
		res.Err = fmt.Errorf("fetch record: %w", err)
		return res
	}
	res.Current = current

	desired, changed := Plan(current, ip, e.opts)
	res.Desired = desired
	if !changed {
		res.Outcome = Unchanged
		return res
	}
	if e.opts.DryRun {
		res.Outcome = WouldUpdate
		return res
	}

	resp, err := e.dnsProvider.UpdateRecord(ctx, e.opts.ZoneID, desired)
	res.Response = resp
	switch {
	case err != nil:
		res.Outcome = UpdateFailed
		res.Err = fmt.Errorf("update record: %w", err)
	case !resp.Success:
		res.Outcome = UpdateFailed
		res.Err = ErrUpdateRejected
	default:
		res.Outcome = Updated
	}
	return res
}

// report writes the single log line for a terminal outcome.
func (e *engine) report(res Result) {
	name := e.opts.RecordName
	switch res.Outcome {
	case Unchanged:
		slog.Info("IP has not changed", "ip", res.IP, "name", name)
	case Updated:
		slog.Info("DNS record updated", "ip", res.IP, "name", name, "id", res.Desired.ID, "previous", res.Current.Content)
	case WouldUpdate:
		slog.Info("Dry run mode - would update record", "ip", res.IP, "name", name, "id", res.Desired.ID,
			"previous", res.Current.Content, "ttl", res.Desired.TTL, "proxied", res.Desired.Proxied)
	case RecordMissing:
		slog.Error("Record does not exist, create it first", "ip", res.IP, "name", name, "error", res.Err)
	case LookupFailed:
		slog.Error("Failed to fetch DNS record", "ip", res.IP, "name", name, "error", res.Err)
	case UpdateFailed:
		slog.Error("DNS update failed", "ip", res.IP, "name", name, "id", res.Desired.ID,
			"error", res.Err, "response", res.Response.Body)
	case InvalidIP:
		slog.Error("Failed to find a valid IP", "ip", res.IP, "error", res.Err)
	case DiscoveryFailed:
		slog.Error("Failed to discover public IP", "error", res.Err)
	}
}
