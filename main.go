package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evanofslack/cloudflare-ddns/internal/config"
	"github.com/evanofslack/cloudflare-ddns/internal/logger"
	"github.com/evanofslack/cloudflare-ddns/internal/metrics"
	"github.com/evanofslack/cloudflare-ddns/internal/notify"
	"github.com/evanofslack/cloudflare-ddns/internal/provider/cloudflare"
	"github.com/evanofslack/cloudflare-ddns/internal/publicip"
	"github.com/evanofslack/cloudflare-ddns/internal/reconcile"
	"github.com/evanofslack/cloudflare-ddns/internal/state"
)

// Bounds the metrics flush once the run itself has finished.
const flushTimeout = 5 * time.Second

// ipSources builds the ordered public IP sources for a run.
var ipSources = publicip.DefaultSources

func main() {
	os.Exit(run())
}

func run() int {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return reconcile.ExitConfig
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Env)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		return reconcile.ExitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := metrics.New(true)
	client := &http.Client{Timeout: cfg.HTTP.Timeout}

	var journal state.Journal
	if cfg.State.Path != "" {
		journal, err = state.New(cfg.State.Path)
		if err != nil {
			// The journal is audit only, a broken one must not block the run.
			slog.Warn("Failed to open run journal, continuing without it", "path", cfg.State.Path, "error", err)
		} else {
			defer journal.Close()
			logPreviousRun(ctx, journal)
		}
	}

	cf, err := cloudflare.New(cfg.DNS, client, metrics)
	if err != nil {
		slog.Error("Failed to initialize DNS provider", "error", err)
		return reconcile.ExitConfig
	}

	discoverer := publicip.NewDiscoverer(metrics, ipSources(client)...)
	notifier := notify.FromConfig(cfg, client, metrics)
	engine := reconcile.NewEngine(discoverer, cf, notifier, cfg, metrics)

	slog.Info("Starting cloudflare-ddns run",
		"name", cfg.DNS.RecordName,
		"dry_run", cfg.DryRun,
		"notify", notifier.Targets())

	res := performRun(ctx, engine, metrics)

	if journal != nil {
		if err := journal.Append(ctx, journalEntry(res, cfg.DNS.RecordName, time.Now())); err != nil {
			slog.Warn("Failed to record run", "error", err)
		}
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := metrics.Flush(flushCtx, client, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, cfg.Metrics.Textfile); err != nil {
		slog.Error("Failed to flush metrics", "error", err)
	}

	return res.Outcome.ExitCode()
}

func performRun(ctx context.Context, engine reconcile.Engine, metrics *metrics.Metrics) reconcile.Result {
	start := time.Now()
	defer func() {
		metrics.SetRunDuration(time.Since(start))
		metrics.SetLastRun(time.Now())
	}()

	res := engine.Reconcile(ctx)
	slog.Debug("Run completed", "outcome", res.Outcome.String(), "duration", time.Since(start))
	return res
}

func logPreviousRun(ctx context.Context, journal state.Journal) {
	entries, err := journal.Recent(ctx, 1)
	if err != nil {
		slog.Warn("Failed to read run journal", "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}
	prev := entries[0]
	slog.Debug("Previous run", "time", prev.Time, "outcome", prev.Outcome, "ip", prev.IP)
}

func journalEntry(res reconcile.Result, recordName string, now time.Time) state.Entry {
	entry := state.Entry{
		Time:            now,
		Outcome:         res.Outcome.String(),
		IP:              res.IP,
		RecordName:      recordName,
		RecordID:        res.Current.ID,
		PreviousContent: res.Current.Content,
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}
	return entry
}
