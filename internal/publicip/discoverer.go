package publicip

import (
	"context"
	"log/slog"

	"github.com/evanofslack/cloudflare-ddns/internal/metrics"
)

const (
	TraceURL        = "https://cloudflare.com/cdn-cgi/trace"
	MyExternalIPURL = "https://myexternalip.com/raw"
	IcanhazipURL    = "https://ipv4.icanhazip.com"
)

// Discoverer resolves the public IPv4 address through an ordered fallback chain.
type Discoverer struct {
	sources []Source
	metrics *metrics.Metrics
}

func NewDiscoverer(m *metrics.Metrics, sources ...Source) *Discoverer {
	return &Discoverer{sources: sources, metrics: m}
}

// DefaultSources is the fixed lookup chain: the Cloudflare trace page first,
// then two plain-text echo services.
func DefaultSources(client Httper) []Source {
	return []Source{
		TraceSource("cloudflare-trace", TraceURL, client),
		RawSource("myexternalip", MyExternalIPURL, client),
		RawSource("icanhazip", IcanhazipURL, client),
	}
}

// Discover returns the first address any source reports. The value is not
// validated here; see IsValidIPv4.
func (d *Discoverer) Discover(ctx context.Context) (string, error) {
	return FirstOf(ctx, d.sources, func(r Result) {
		if d.metrics != nil {
			d.metrics.IncIPLookup(r.Source, r.OK())
		}
		if r.OK() {
			slog.Debug("Public IP source answered", "source", r.Source, "ip", r.Addr)
			return
		}
		slog.Warn("Public IP source failed", "source", r.Source, "error", r.Err)
	})
}
