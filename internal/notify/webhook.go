package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type slackPayload struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type discordPayload struct {
	Content string `json:"content"`
}

type Slack struct {
	url     string
	channel string
	http    Httper
}

func NewSlack(url, channel string, client Httper) *Slack {
	return &Slack{url: url, channel: channel, http: client}
}

func (s *Slack) Name() string {
	return "slack"
}

func (s *Slack) Send(ctx context.Context, message string) error {
	return postJSON(ctx, s.http, s.url, slackPayload{Channel: s.channel, Text: message})
}

type Discord struct {
	url  string
	http Httper
}

func NewDiscord(url string, client Httper) *Discord {
	return &Discord{url: url, http: client}
}

func (d *Discord) Name() string {
	return "discord"
}

func (d *Discord) Send(ctx context.Context, message string) error {
	return postJSON(ctx, d.http, d.url, discordPayload{Content: message})
}

func postJSON(ctx context.Context, client Httper, url string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status=%d", resp.StatusCode)
	}
	return nil
}
