package provider

import (
	"context"
	"errors"
	"time"
)

const TypeA = "A"

// ErrRecordNotFound is returned when no record of the requested name and type exists.
var ErrRecordNotFound = errors.New("dns record not found")

type Provider interface {
	FetchRecord(ctx context.Context, zoneID, name string) (Record, error)
	UpdateRecord(ctx context.Context, zoneID string, record Record) (UpdateResponse, error)
}

type Record struct {
	ID      string
	Name    string
	Type    string
	Content string
	TTL     time.Duration
	Proxied bool
}

// UpdateResponse carries the provider's own success flag, which can be false
// on an HTTP 200, and the full response for logging.
type UpdateResponse struct {
	Success bool
	Body    string
}
