package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/tollgate/pkg/logging"
	"github.com/JaimeStill/tollgate/pkg/reqctx"
)

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_LOG_LEVEL", "debug")

	var cfg logging.Config
	require.NoError(t, cfg.Finalize(&logging.Env{Level: "TEST_LOG_LEVEL"}))

	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "text", cfg.Format)

	bad := logging.Config{Format: "xml"}
	assert.ErrorContains(t, bad.Finalize(nil), "invalid format")
}

func TestContextHandlerAddsRequestAttrs(t *testing.T) {
	var buf bytes.Buffer
	cfg := logging.Config{Level: "info", Format: "json"}
	logger, hook := logging.New(&cfg, &buf)
	require.Nil(t, hook)

	rc := &reqctx.Context{LogID: uuid.New(), Account: &reqctx.Account{ID: "acc-1"}}
	logger.InfoContext(reqctx.With(context.Background(), rc), "handled")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, rc.LogID.String(), record["log_id"])
	assert.Equal(t, "acc-1", record["account_id"])
}

func TestWebhookForwardsErrors(t *testing.T) {
	var (
		mu       sync.Mutex
		contents []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		contents = append(contents, body.Content)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	cfg := logging.Config{Level: "info", Format: "text", WebhookURL: srv.URL, WebhookTimeout: "1s"}
	logger, hook := logging.New(&cfg, &buf)
	require.NotNil(t, hook)

	logger.With("system", "provider").Info("token refreshed")
	logger.With("system", "provider").Error("classification failed", "status", 502)
	hook.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0], "classification failed")
	assert.Contains(t, contents[0], "system: provider")
	assert.Contains(t, contents[0], "status: 502")
	assert.Contains(t, buf.String(), "token refreshed")
}

func TestWebhookTruncatesContent(t *testing.T) {
	received := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		received <- body.Content
	}))
	defer srv.Close()

	hook := logging.NewWebhook(srv.URL, srv.Client(), 1)
	require.True(t, hook.Send(strings.Repeat("x", 3000)))
	hook.Close()

	assert.Len(t, <-received, logging.MaxContent)
	assert.False(t, hook.Send("after close"))
}

func TestWebhookCloseWhileSending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	hook := logging.NewWebhook(srv.URL, srv.Client(), 4)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 50 {
				hook.Send("message")
			}
		})
	}

	hook.Close()
	wg.Wait()

	assert.False(t, hook.Send("late"))
	hook.Close()
}
