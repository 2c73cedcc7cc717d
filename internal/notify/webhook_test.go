package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	method      string
	contentType string
	body        map[string]any
}

func webhookServer(t *testing.T, status int) (*httptest.Server, chan received) {
	t.Helper()
	ch := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(b, &body)
		ch <- received{method: r.Method, contentType: r.Header.Get("Content-Type"), body: body}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func TestSlackSend(t *testing.T) {
	srv, ch := webhookServer(t, http.StatusOK)

	err := NewSlack(srv.URL, "#ops", srv.Client()).Send(context.Background(), "hello")
	require.NoError(t, err)

	got := <-ch
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, map[string]any{"channel": "#ops", "text": "hello"}, got.body)
}

func TestDiscordSend(t *testing.T) {
	srv, ch := webhookServer(t, http.StatusNoContent)

	err := NewDiscord(srv.URL, srv.Client()).Send(context.Background(), "hello")
	require.NoError(t, err)

	got := <-ch
	assert.Equal(t, map[string]any{"content": "hello"}, got.body)
}

func TestWebhookErrorStatus(t *testing.T) {
	srv, ch := webhookServer(t, http.StatusBadRequest)

	err := NewDiscord(srv.URL, srv.Client()).Send(context.Background(), "hello")
	assert.Error(t, err)
	<-ch
}

func TestWebhookUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewSlack(url, "", http.DefaultClient).Send(context.Background(), "hello")
	assert.Error(t, err)
}
