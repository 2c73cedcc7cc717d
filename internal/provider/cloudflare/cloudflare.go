package cloudflare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cloudflare/cloudflare-go"
	"github.com/evanofslack/cloudflare-ddns/internal/config"
	"github.com/evanofslack/cloudflare-ddns/internal/metrics"
	"github.com/evanofslack/cloudflare-ddns/internal/provider"
)

type CloudflareProvider struct {
	client  *cloudflare.API
	metrics *metrics.Metrics
}

// updateBody is the full record sent on PATCH. Proxied is always sent so a
// false value clears the flag.
type updateBody struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
}

func New(cfg config.DNS, httpClient *http.Client, metrics *metrics.Metrics) (*CloudflareProvider, error) {
	if cfg.AuthKey == "" {
		return nil, fmt.Errorf("cloudflare API key or token required")
	}

	opts := []cloudflare.Option{
		// A failed run is retried by the scheduler on its next interval.
		cloudflare.UsingRetryPolicy(0, 0, 0),
	}
	if httpClient != nil {
		opts = append(opts, cloudflare.HTTPClient(httpClient))
	}
	if cfg.APIURL != "" {
		opts = append(opts, cloudflare.BaseURL(cfg.APIURL))
	}

	var (
		client *cloudflare.API
		err    error
	)
	if cfg.GlobalKeyAuth() {
		client, err = cloudflare.New(cfg.AuthKey, cfg.AuthEmail, opts...)
	} else {
		if cfg.AuthEmail != "" {
			opts = append(opts, cloudflare.Headers(http.Header{"X-Auth-Email": []string{cfg.AuthEmail}}))
		}
		client, err = cloudflare.NewWithAPIToken(cfg.AuthKey, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloudflare client: %w", err)
	}

	return &CloudflareProvider{
		client:  client,
		metrics: metrics,
	}, nil
}

func (p *CloudflareProvider) FetchRecord(ctx context.Context, zoneID, name string) (provider.Record, error) {
	slog.Debug("Getting DNS record", "zone", zoneID, "name", name)
	start := time.Now()

	params := cloudflare.ListDNSRecordsParams{
		Type: provider.TypeA,
		Name: name,
		ResultInfo: cloudflare.ResultInfo{
			Page:    1,
			PerPage: 100,
		},
	}
	records, _, err := p.client.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zoneID), params)
	if err != nil {
		p.incRequest("read", false)
		return provider.Record{}, fmt.Errorf("failed to list DNS records: %w", err)
	}
	p.incRequest("read", true)

	if len(records) == 0 {
		return provider.Record{}, fmt.Errorf("%s in zone %s: %w", name, zoneID, provider.ErrRecordNotFound)
	}
	if len(records) > 1 {
		slog.Warn("Multiple A records match, using the first", "name", name, "count", len(records))
	}

	r := records[0]
	slog.Debug("Retrieved DNS record", "zone", zoneID, "id", r.ID, "content", r.Content, "duration", time.Since(start))
	return provider.Record{
		ID:      r.ID,
		Name:    r.Name,
		Type:    r.Type,
		Content: r.Content,
		TTL:     time.Duration(r.TTL) * time.Second,
		Proxied: r.Proxied != nil && *r.Proxied,
	}, nil
}

// UpdateRecord patches the record and reports Cloudflare's success flag as
// returned, since validation errors can arrive with HTTP 200.
func (p *CloudflareProvider) UpdateRecord(ctx context.Context, zoneID string, record provider.Record) (provider.UpdateResponse, error) {
	slog.Info("Updating DNS record", "zone", zoneID, "id", record.ID, "name", record.Name, "content", record.Content)
	start := time.Now()

	body := updateBody{
		Type:    record.Type,
		Name:    record.Name,
		Content: record.Content,
		TTL:     int(record.TTL.Seconds()),
		Proxied: record.Proxied,
	}
	uri := fmt.Sprintf("/zones/%s/dns_records/%s", zoneID, record.ID)

	raw, err := p.client.Raw(ctx, http.MethodPatch, uri, body, nil)
	if err != nil {
		p.incRequest("update", false)
		return provider.UpdateResponse{Body: errorBody(err)}, fmt.Errorf("failed to update DNS record: %w", err)
	}
	p.incRequest("update", raw.Success)

	dump, err := json.Marshal(raw)
	if err != nil {
		dump = []byte(fmt.Sprintf("%+v", raw))
	}
	slog.Debug("Updated DNS record", "zone", zoneID, "id", record.ID, "success", raw.Success, "duration", time.Since(start))
	return provider.UpdateResponse{
		Success: raw.Success,
		Body:    string(dump),
	}, nil
}

// apiError is satisfied by the typed errors cloudflare-go returns for 4xx and
// 5xx replies.
type apiError interface {
	Errors() []cloudflare.ResponseInfo
}

// errorBody rebuilds the error envelope of a rejected request so it can be
// logged like a successful response.
func errorBody(err error) string {
	var infos []cloudflare.ResponseInfo
	var typed apiError
	var plain *cloudflare.Error
	switch {
	case errors.As(err, &typed):
		infos = typed.Errors()
	case errors.As(err, &plain):
		infos = plain.Errors
	default:
		return err.Error()
	}

	dump, mErr := json.Marshal(struct {
		Success bool                      `json:"success"`
		Errors  []cloudflare.ResponseInfo `json:"errors"`
	}{Success: false, Errors: infos})
	if mErr != nil {
		return err.Error()
	}
	return string(dump)
}

func (p *CloudflareProvider) incRequest(operation string, success bool) {
	if p.metrics != nil {
		p.metrics.IncDNSRequest(operation, success)
	}
}
