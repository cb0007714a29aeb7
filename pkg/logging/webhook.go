package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

const (
	// DefaultQueueSize bounds the records waiting for delivery.
	DefaultQueueSize = 256
	// MaxContent is the longest message body the webhook accepts.
	MaxContent = 1990
)

// Webhook delivers messages to a chat webhook as {"content": "..."} from a
// single background goroutine. Delivery is best effort: a full queue drops
// messages and failed requests are not retried.
type Webhook struct {
	url    string
	client *http.Client
	queue  chan string
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewWebhook(url string, client *http.Client, size int) *Webhook {
	w := &Webhook{
		url:    url,
		client: client,
		queue:  make(chan string, size),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

// Send enqueues content without blocking. It reports whether the message was queued.
// Messages sent after Close are dropped.
func (w *Webhook) Send(content string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false
	}

	select {
	case w.queue <- truncate(content):
		return true
	default:
		return false
	}
}

// Close stops accepting messages and waits for queued ones to be delivered.
func (w *Webhook) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
}

func (w *Webhook) run() {
	defer close(w.done)
	for content := range w.queue {
		w.post(content)
	}
}

func (w *Webhook) post(content string) {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

// Handler returns an slog handler forwarding records at or above level.
func (w *Webhook) Handler(level slog.Level) slog.Handler {
	return &webhookHandler{hook: w, level: level}
}

type webhookHandler struct {
	hook  *Webhook
	level slog.Level
	attrs []slog.Attr
	group string
}

func (h *webhookHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *webhookHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** %s", r.Level, r.Message)

	write := func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		fmt.Fprintf(&b, "\n%s: %v", key, a.Value.Resolve())
		return true
	}

	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)

	h.hook.Send(b.String())
	return nil
}

func (h *webhookHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &c
}

func (h *webhookHandler) WithGroup(name string) slog.Handler {
	c := *h
	if c.group != "" {
		name = c.group + "." + name
	}
	c.group = name
	return &c
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxContent {
		return s
	}
	return string(r[:MaxContent])
}
