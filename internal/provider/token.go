package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type token struct {
	value   string
	expires time.Time
}

// tokenHolder caches the bearer token. Concurrent refreshes collapse into one
// exchange.
type tokenHolder struct {
	mu    sync.Mutex
	cur   token
	group singleflight.Group
	now   func() time.Time
	fetch func(ctx context.Context) (token, error)
}

func (h *tokenHolder) get(ctx context.Context) (string, error) {
	h.mu.Lock()
	cur := h.cur
	h.mu.Unlock()

	if cur.value != "" && h.now().Before(cur.expires) {
		return cur.value, nil
	}

	// The exchange outlives any single caller; the client timeout bounds it.
	ch := h.group.DoChan("token", func() (any, error) {
		t, err := h.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}
		h.mu.Lock()
		h.cur = t
		h.mu.Unlock()
		return t.value, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if res.Err != nil {
		return "", res.Err
	}
	return res.Val.(string), nil
}

// invalidate drops the cached token if it is still stale. A token refreshed
// by a concurrent caller is kept.
func (h *tokenHolder) invalidate(stale string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cur.value == stale {
		h.cur = token{}
	}
}
