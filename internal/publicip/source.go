package publicip

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Source is one public IP lookup service.
type Source interface {
	Name() string
	Lookup(ctx context.Context) (string, error)
}

// Result is the outcome of asking a single Source.
type Result struct {
	Source string
	Addr   string
	Err    error
}

func (r Result) OK() bool {
	return r.Err == nil && r.Addr != ""
}

// Try asks s once. An empty answer without an error is reported as a failure.
func Try(ctx context.Context, s Source) Result {
	addr, err := s.Lookup(ctx)
	if err == nil && addr == "" {
		err = errors.New("empty response")
	}
	return Result{Source: s.Name(), Addr: addr, Err: err}
}

// FirstOf asks each source in order and returns the first non-empty answer.
// Later sources are not contacted once one succeeds. observe, when non-nil,
// sees every attempt.
func FirstOf(ctx context.Context, sources []Source, observe func(Result)) (string, error) {
	if len(sources) == 0 {
		return "", &DiscoveryError{}
	}
	var failures []Result
	for _, s := range sources {
		r := Try(ctx, s)
		if observe != nil {
			observe(r)
		}
		if r.OK() {
			return r.Addr, nil
		}
		failures = append(failures, r)
	}
	return "", &DiscoveryError{Failures: failures}
}

// DiscoveryError means every source failed.
type DiscoveryError struct {
	Failures []Result
}

func (e *DiscoveryError) Error() string {
	if len(e.Failures) == 0 {
		return "public ip discovery: no sources configured"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Source, f.Err))
	}
	return "public ip discovery: all sources failed: " + strings.Join(parts, "; ")
}

func (e *DiscoveryError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
