// Package provider is the client of the TIA product classification API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const enginesKey = "engines"

// Provider is the set of remote operations the service uses.
type Provider interface {
	Engines(ctx context.Context) ([]Engine, error)
	Balance(ctx context.Context) (Balance, error)
	Counts(ctx context.Context) (Counts, error)
	Classify(ctx context.Context, req ClassifyRequest) (Classification, error)
	BulkClassify(ctx context.Context, req BulkRequest) (BulkSubmission, error)
	BulkStatus(ctx context.Context, groupID string) (BulkStatus, error)
	BulkResults(ctx context.Context, groupID string) (BulkResults, error)
	CancelBulk(ctx context.Context, groupID string) (Message, error)
	DeleteBulk(ctx context.Context, groupID string) (Message, error)
	Downloadables(ctx context.Context) (Downloadables, error)
	QueueStatuses(ctx context.Context) (QueueStatuses, error)
}

// Recorder receives one observation per provider round trip. Status is 0 when
// no response was received.
type Recorder interface {
	ProviderCall(endpoint string, status int, d time.Duration)
}

// Client implements Provider over HTTP.
type Client struct {
	base     *url.URL
	http     *http.Client
	cfg      Config
	token    *tokenHolder
	engines  *cache.Cache
	recorder Recorder
	logger   *slog.Logger
}

// New creates a Client. A nil recorder disables call metrics.
func New(cfg *Config, recorder Recorder, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base_url: %w", err)
	}

	ttl := cfg.EnginesTTLDuration()
	c := &Client{
		base:     base,
		http:     &http.Client{Timeout: cfg.TimeoutDuration()},
		cfg:      *cfg,
		engines:  cache.New(ttl, 2*ttl),
		recorder: recorder,
		logger:   logger.With("system", "provider"),
	}
	c.token = &tokenHolder{now: time.Now, fetch: c.login}
	return c, nil
}

func (c *Client) login(ctx context.Context) (token, error) {
	body, err := json.Marshal(map[string]string{
		"clientId":     c.cfg.ClientID,
		"clientSecret": c.cfg.ClientSecret,
	})
	if err != nil {
		return token{}, err
	}

	var out struct {
		Token struct {
			AccessToken string `json:"access_token"`
			ExpiresIn   int64  `json:"expires_in"`
		} `json:"token"`
	}

	started := time.Now()
	status, err := c.send(ctx, "auth", http.MethodPost, "auth/m2m-token", "", body, "application/json", &out)
	c.logger.DebugContext(ctx, "provider token exchange", "status", status, "duration", time.Since(started))
	if err != nil {
		return token{}, err
	}
	if out.Token.AccessToken == "" {
		return token{}, ErrProvider.WithDetails(map[string]any{"endpoint": "auth", "status": status})
	}

	return token{
		value:   out.Token.AccessToken,
		expires: started.Add(time.Duration(out.Token.ExpiresIn) * time.Second),
	}, nil
}

// Engines lists the available engines. Results are cached for the configured TTL.
func (c *Client) Engines(ctx context.Context) ([]Engine, error) {
	if v, ok := c.engines.Get(enginesKey); ok {
		return v.([]Engine), nil
	}

	var out []Engine
	if err := c.call(ctx, "engines", http.MethodGet, "engines", nil, "", &out); err != nil {
		return nil, err
	}
	c.engines.SetDefault(enginesKey, out)
	return out, nil
}

func (c *Client) Balance(ctx context.Context) (Balance, error) {
	var out Balance
	err := c.call(ctx, "balance", http.MethodGet, "transaction/balance", nil, "", &out)
	return out, err
}

func (c *Client) Counts(ctx context.Context) (Counts, error) {
	var out Counts
	err := c.call(ctx, "counts", http.MethodGet, "classifications/counts", nil, "", &out)
	return out, err
}

func (c *Client) Classify(ctx context.Context, req ClassifyRequest) (Classification, error) {
	var out Classification
	body, err := json.Marshal(req)
	if err != nil {
		return out, err
	}
	err = c.call(ctx, "classify", http.MethodPost, "classify/v1", body, "application/json", &out)
	return out, err
}

func (c *Client) BulkClassify(ctx context.Context, req BulkRequest) (BulkSubmission, error) {
	var out BulkSubmission
	body, contentType, err := bulkForm(req)
	if err != nil {
		return out, err
	}
	err = c.call(ctx, "bulk_classify", http.MethodPost, "bulk-classifications/v1", body, contentType, &out)
	return out, err
}

func (c *Client) BulkStatus(ctx context.Context, groupID string) (BulkStatus, error) {
	var out BulkStatus
	err := c.call(ctx, "bulk_status", http.MethodGet, groupPath(groupID, "status"), nil, "", &out)
	return out, err
}

func (c *Client) BulkResults(ctx context.Context, groupID string) (BulkResults, error) {
	var out BulkResults
	err := c.call(ctx, "bulk_results", http.MethodGet, groupPath(groupID, "results"), nil, "", &out)
	return out, err
}

func (c *Client) CancelBulk(ctx context.Context, groupID string) (Message, error) {
	var out Message
	err := c.call(ctx, "bulk_cancel", http.MethodPost, groupPath(groupID, "cancel"), nil, "", &out)
	return out, err
}

func (c *Client) DeleteBulk(ctx context.Context, groupID string) (Message, error) {
	var out Message
	err := c.call(ctx, "bulk_delete", http.MethodDelete, groupPath(groupID, ""), nil, "", &out)
	return out, err
}

func (c *Client) Downloadables(ctx context.Context) (Downloadables, error) {
	var out Downloadables
	err := c.call(ctx, "bulk_downloadables", http.MethodGet, "bulk-classifications/v1/downloadables", nil, "", &out)
	return out, err
}

func (c *Client) QueueStatuses(ctx context.Context) (QueueStatuses, error) {
	var out QueueStatuses
	err := c.call(ctx, "bulk_queue_statuses", http.MethodGet, "bulk-classifications/v1/queue-statuses", nil, "", &out)
	return out, err
}

// call sends an authenticated request. A 401 drops the cached token and
// retries exactly once with a fresh one.
func (c *Client) call(ctx context.Context, endpoint, method, path string, body []byte, contentType string, out any) error {
	for attempt := 0; ; attempt++ {
		bearer, err := c.token.get(ctx)
		if err != nil {
			return err
		}

		status, err := c.send(ctx, endpoint, method, path, bearer, body, contentType, out)
		if status == http.StatusUnauthorized && attempt == 0 {
			c.logger.InfoContext(ctx, "provider rejected token, refreshing", "endpoint", endpoint)
			c.token.invalidate(bearer)
			continue
		}
		return err
	}
}

func (c *Client) send(ctx context.Context, endpoint, method, path, bearer string, body []byte, contentType string, out any) (int, error) {
	u := c.base.JoinPath(path)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return 0, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, 0, started)
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		c.logger.WarnContext(ctx, "provider unreachable", "endpoint", endpoint, "error", err)
		return 0, ErrProvider.Wrap(err)
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, started)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, ErrProvider.Wrap(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		perr := providerError(endpoint, resp.StatusCode, data)
		c.logger.WarnContext(ctx, "provider request failed",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"message", perr.Message,
		)
		return resp.StatusCode, perr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, ErrProvider.Wrap(fmt.Errorf("decode %s response: %w", endpoint, err))
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) observe(endpoint string, status int, started time.Time) {
	if c.recorder != nil {
		c.recorder.ProviderCall(endpoint, status, time.Since(started))
	}
}

func groupPath(groupID, action string) string {
	p := "bulk-classifications/v1/" + url.PathEscape(groupID)
	if action != "" {
		p += "/" + action
	}
	return p
}

func bulkForm(req BulkRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"engine", req.Engine},
		{"priority", req.Priority},
		{"forceReprocess", strconv.FormatBool(req.ForceReprocess)},
	}
	if req.RequestID != "" {
		fields = append(fields, [2]string{"requestId", req.RequestID})
	}
	if req.Description != "" {
		fields = append(fields, [2]string{"description", req.Description})
	}
	if req.TestMode != nil {
		fields = append(fields, [2]string{"testMode", strconv.FormatBool(*req.TestMode)})
	}
	if req.MockDelay != nil {
		fields = append(fields, [2]string{"mockDelay", req.MockDelay.String()})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, req.FileName))
	h.Set("Content-Type", req.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.File); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

var _ Provider = (*Client)(nil)

// IsProviderError reports whether err was produced by the provider.
func IsProviderError(err error) bool {
	return errors.Is(err, ErrProvider)
}
