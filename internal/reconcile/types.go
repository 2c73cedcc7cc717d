package reconcile

import (
	"errors"
	"time"

	"github.com/evanofslack/cloudflare-ddns/internal/provider"
)

var (
	ErrInvalidIP      = errors.New("discovered address is not a valid IPv4 address")
	ErrUpdateRejected = errors.New("dns provider rejected the update")
)

// Outcome is the terminal state of one reconciliation run.
type Outcome int

const (
	Unchanged Outcome = iota
	Updated
	WouldUpdate
	RecordMissing
	LookupFailed
	UpdateFailed
	InvalidIP
	DiscoveryFailed
)

// ExitConfig is the exit code for configuration errors found before a run starts.
const ExitConfig = 4

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Updated:
		return "updated"
	case WouldUpdate:
		return "would_update"
	case RecordMissing:
		return "record_missing"
	case LookupFailed:
		return "lookup_failed"
	case UpdateFailed:
		return "update_failed"
	case InvalidIP:
		return "invalid_ip"
	case DiscoveryFailed:
		return "discovery_failed"
	}
	return "unknown"
}

// ExitCode maps the outcome to the process exit status: 0 for success, 1 for
// provider-side failures, 2 for an invalid address and 3 when no source answered.
func (o Outcome) ExitCode() int {
	switch o {
	case Unchanged, Updated, WouldUpdate:
		return 0
	case RecordMissing, LookupFailed, UpdateFailed:
		return 1
	case InvalidIP:
		return 2
	case DiscoveryFailed:
		return 3
	}
	return 1
}

// Options are the record settings the engine enforces.
type Options struct {
	ZoneID     string
	RecordName string
	TTL        time.Duration
	Proxied    bool
	SiteName   string
	DryRun     bool
}

type Result struct {
	Outcome  Outcome
	IP       string
	Current  provider.Record
	Desired  provider.Record
	Response provider.UpdateResponse
	Err      error
}
