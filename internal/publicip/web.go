package publicip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

const maxBodyBytes = 64 << 10

var traceIPLine = regexp.MustCompile(`(?m)^ip=([0-9.]+)$`)

type Httper interface {
	Do(req *http.Request) (*http.Response, error)
}

type webSource struct {
	name  string
	url   string
	http  Httper
	parse func(body string) (string, error)
}

// TraceSource reads a key=value trace page and takes the address from its ip= line.
func TraceSource(name, url string, client Httper) Source {
	return &webSource{name: name, url: url, http: client, parse: parseTrace}
}

// RawSource reads a service whose whole response body is the address.
func RawSource(name, url string, client Httper) Source {
	return &webSource{name: name, url: url, http: client, parse: parseRaw}
}

func (s *webSource) Name() string {
	return s.name
}

func (s *webSource) Lookup(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("http request returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	return s.parse(string(body))
}

func parseTrace(body string) (string, error) {
	m := traceIPLine.FindStringSubmatch(body)
	if m == nil {
		return "", errors.New("no ip= line in trace response")
	}
	return m[1], nil
}

func parseRaw(body string) (string, error) {
	ip := strings.TrimSpace(body)
	if ip == "" {
		return "", errors.New("empty response body")
	}
	return ip, nil
}
