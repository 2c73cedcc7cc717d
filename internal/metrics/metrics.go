package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

type Metrics struct {
	registry      *prometheus.Registry
	runs          *prometheus.CounterVec // runs by outcome
	runDuration   prometheus.Histogram   // time to reconcile
	lastRun       prometheus.Gauge       // unix time of last run
	ipLookups     *prometheus.CounterVec // public ip source attempts
	dnsRequests   *prometheus.CounterVec // dns provider requests
	notifications *prometheus.CounterVec // notification deliveries
}

func (m *Metrics) IncRun(outcome string) {
	if outcome == "" {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetRunDuration(duration time.Duration) {
	m.runDuration.Observe(duration.Seconds())
}

func (m *Metrics) SetLastRun(t time.Time) {
	m.lastRun.Set(float64(t.Unix()))
}

func (m *Metrics) IncIPLookup(source string, success bool) {
	if source == "" {
		return
	}
	m.ipLookups.WithLabelValues(source, boolToResult(success)).Inc()
}

func (m *Metrics) IncDNSRequest(operation string, success bool) {
	if !isValidOperation(operation) {
		return
	}
	m.dnsRequests.WithLabelValues(operation, boolToResult(success)).Inc()
}

func (m *Metrics) IncNotification(target string, success bool) {
	if target == "" {
		return
	}
	m.notifications.WithLabelValues(target, boolToResult(success)).Inc()
}

// Validation helpers
func boolToResult(b bool) string {
	if b {
		return "success"
	}
	return "failure"
}

func isValidOperation(op string) bool {
	switch op {
	case "read", "update":
		return true
	}
	return false
}

func New(register bool) *Metrics {
	registry := prometheus.NewRegistry()
	namespace := "cloudflare_ddns"

	m := &Metrics{
		registry: registry,

		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of reconciliation runs by outcome",
		}, []string{"outcome"}),

		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of reconciliation runs in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last reconciliation run finished",
		}),

		ipLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ip_lookups_total",
			Help:      "Total public IP lookups by source",
		}, []string{"source", "status"}),

		dnsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dns_requests_total",
			Help:      "Total DNS provider requests",
		}, []string{"operation", "status"}),

		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total notifications sent by target",
		}, []string{"target", "status"}),
	}

	if register {
		registry.MustRegister(
			m.runs,
			m.runDuration,
			m.lastRun,
			m.ipLookups,
			m.dnsRequests,
			m.notifications,
		)
	}
	return m
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Flush exports the registry once, since the process exits right after a run.
// An empty pushURL or textfile skips that exporter.
func (m *Metrics) Flush(ctx context.Context, client *http.Client, pushURL, job, textfile string) error {
	var errs []error
	if pushURL != "" {
		p := push.New(pushURL, job).Gatherer(m.registry)
		if client != nil {
			p = p.Client(client)
		}
		if err := p.PushContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("push metrics: %w", err))
		}
	}
	if textfile != "" {
		if err := prometheus.WriteToTextfile(textfile, m.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics textfile: %w", err))
		}
	}
	return errors.Join(errs...)
}
