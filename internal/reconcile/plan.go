package reconcile

import (
	"fmt"

	"github.com/evanofslack/cloudflare-ddns/internal/provider"
)

// Plan returns the record that should exist for ip and whether it differs from
// current. Content is compared as an exact string. TTL and proxied come from
// opts, never from the existing record.
func Plan(current provider.Record, ip string, opts Options) (provider.Record, bool) {
	if current.Content == ip {
		return current, false
	}
	return provider.Record{
		ID:      current.ID,
		Name:    opts.RecordName,
		Type:    provider.TypeA,
		Content: ip,
		TTL:     opts.TTL,
		Proxied: opts.Proxied,
	}, true
}

// Render builds the operator message for a result. Only attempted updates
// are announced.
func Render(res Result, site, recordName string) (string, bool) {
	switch res.Outcome {
	case Updated:
		return fmt.Sprintf("%s Updated: %s's new IP Address is %s", site, recordName, res.IP), true
	case UpdateFailed:
		return fmt.Sprintf("%s DDNS Update Failed: %s: %s (%s).", site, recordName, res.Desired.ID, res.IP), true
	}
	return "", false
}
