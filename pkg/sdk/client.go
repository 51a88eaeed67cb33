// Package sdk is the client side of the eflash store. Every feature talks to
// the Collection Gateway first and falls back to an embedded local store when
// the gateway cannot serve the call.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/pkg/schema"
)

var (
	_ Remote        = (*GatewayClient)(nil)
	_ engine.Writer = (*GatewayClient)(nil)
	_ AuthBackend   = (*GatewayClient)(nil)
)

// GatewayClient calls the Collection Gateway and its auth routes over HTTP.
type GatewayClient struct {
	dataURL string
	authURL string
	http    *http.Client
	retries int
	backoff time.Duration
}

// ClientOption configures a GatewayClient.
type ClientOption func(*GatewayClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *GatewayClient) { c.http = hc }
}

// WithTimeout bounds every request. A timeout is a transport failure.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *GatewayClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRetries retries transport failures n times with a growing pause.
func WithRetries(n int, backoff time.Duration) ClientOption {
	return func(c *GatewayClient) {
		c.retries = max(n, 0)
		c.backoff = backoff
	}
}

// NewGatewayClient creates a client for the collection routes under dataURL
// and the auth routes under authURL.
func NewGatewayClient(dataURL, authURL string, opts ...ClientOption) *GatewayClient {
	c := &GatewayClient{
		dataURL: strings.TrimRight(dataURL, "/"),
		authURL: strings.TrimRight(authURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
		backoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends one JSON request and decodes a 2xx answer into out.
func (c *GatewayClient) do(ctx context.Context, method, target string, body, out any, header http.Header) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("%w: %v", schema.ErrBadRequest, err)
		}
	}

	var (
		resp *http.Response
		err  error
	)
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			slog.Debug("retrying gateway request", "method", method, "url", target, "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", schema.ErrTransport, ctx.Err())
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("%w: %v", schema.ErrTransport, err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, vs := range header {
			req.Header[k] = vs
		}

		resp, err = c.http.Do(req)
		if err == nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %v", schema.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", schema.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gwErr := &GatewayError{Status: resp.StatusCode}
		var errBody struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &errBody) == nil {
			gwErr.Label, gwErr.Message = errBody.Error, errBody.Message
		}
		return gwErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		// A 2xx we cannot read is as good as no answer.
		return fmt.Errorf("%w: decode response: %v", schema.ErrTransport, err)
	}
	return nil
}

func (c *GatewayClient) recordURL(collection string, id ...string) string {
	parts := []string{c.dataURL, url.PathEscape(collection)}
	for _, p := range id {
		parts = append(parts, url.PathEscape(p))
	}
	return strings.Join(parts, "/")
}

// --- Collections ---

func (c *GatewayClient) List(ctx context.Context, collection string, opts engine.ListOptions) ([]schema.Record, error) {
	target := c.recordURL(collection)
	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Skip > 0 {
		q.Set("skip", strconv.Itoa(opts.Skip))
	}
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var records []schema.Record
	if err := c.do(ctx, http.MethodGet, target, nil, &records, nil); err != nil {
		return nil, err
	}
	if records == nil {
		records = []schema.Record{}
	}
	return records, nil
}

func (c *GatewayClient) Get(ctx context.Context, collection, id string) (schema.Record, error) {
	var rec schema.Record
	if err := c.do(ctx, http.MethodGet, c.recordURL(collection, id), nil, &rec, nil); err != nil {
		return nil, err
	}
	return rec, nil
}

func (c *GatewayClient) Insert(ctx context.Context, collection string, rec schema.Record) (schema.Record, error) {
	var created schema.Record
	if err := c.do(ctx, http.MethodPost, c.recordURL(collection), rec, &created, nil); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *GatewayClient) Update(ctx context.Context, collection, id string, patch schema.Record) (schema.Record, error) {
	var updated schema.Record
	if err := c.do(ctx, http.MethodPut, c.recordURL(collection, id), patch, &updated, nil); err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *GatewayClient) Delete(ctx context.Context, collection, id string) error {
	return c.do(ctx, http.MethodDelete, c.recordURL(collection, id), nil, nil, nil)
}

// --- Auth ---

func (c *GatewayClient) Register(ctx context.Context, email, password, name string, profile map[string]any) (schema.PublicUser, error) {
	body := map[string]any{"email": email, "password": password}
	if name != "" {
		body["name"] = name
	}
	if profile != nil {
		body["profile"] = profile
	}
	var user schema.PublicUser
	err := c.do(ctx, http.MethodPost, c.authURL+"/register", body, &user, nil)
	if statusOf(err) == http.StatusConflict {
		return schema.PublicUser{}, fmt.Errorf("%w: %v", schema.ErrDuplicateEmail, err)
	}
	return user, err
}

func (c *GatewayClient) Login(ctx context.Context, email, password string) (string, schema.PublicUser, error) {
	var out struct {
		Token string            `json:"token"`
		User  schema.PublicUser `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, c.authURL+"/login", body, &out, nil); err != nil {
		return "", schema.PublicUser{}, err
	}
	return out.Token, out.User, nil
}

// Session asks the gateway who a token belongs to.
func (c *GatewayClient) Session(ctx context.Context, token string) (schema.PublicUser, error) {
	var user schema.PublicUser
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	err := c.do(ctx, http.MethodGet, c.authURL+"/session", nil, &user, header)
	return user, err
}

func (c *GatewayClient) DeleteUser(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodDelete, c.authURL+"/users/"+url.PathEscape(email), nil, nil, nil)
}
