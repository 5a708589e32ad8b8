// Package rpc is a minimal JSON-RPC client for the node behind a resolved network.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBackoff is the first retry delay; it doubles on every attempt.
const DefaultBackoff = 100 * time.Millisecond

type Client struct {
	name       string
	url        string
	endpoint   string // url without path, query or userinfo, for error messages
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

func NewClient(name, rawURL string, timeout time.Duration, maxRetries int) *Client {
	return &Client{
		name:       name,
		url:        rawURL,
		endpoint:   endpointOf(rawURL),
		maxRetries: maxRetries,
		backoff:    DefaultBackoff,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string { return c.name }

// Call executes JSON-RPC with simple exponential backoff retry. Errors reported by the
// node itself (*RPCError) are not retried.
func (c *Client) Call(ctx context.Context, method string, params ...interface{}) (*Response, time.Duration, error) {
	if params == nil {
		params = []interface{}{}
	}

	body, err := json.Marshal(Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("encode %s: %w", method, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		start := time.Now()
		resp, err := c.doRequest(ctx, body)
		latency := time.Since(start)

		if err == nil {
			return resp, latency, nil
		}
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return nil, latency, fmt.Errorf("%s: %w", method, err)
		}

		lastErr = err

		// Exponential backoff: 100ms, 200ms, 400ms...
		if attempt < c.maxRetries {
			backoff := time.Duration(1<<attempt) * c.backoff
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, 0, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return nil, 0, fmt.Errorf("%s: failed after %d attempts: %w", method, c.maxRetries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, body []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, c.scrub(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.scrub(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: httpResp.StatusCode}
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return &resp, nil
}

// scrub rewrites the url carried by net/http errors, whose path and query often hold
// an API key.
func (c *Client) scrub(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	return &url.Error{Op: uerr.Op, URL: c.endpoint, Err: uerr.Err}
}

func endpointOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "endpoint"
	}
	return u.Scheme + "://" + u.Host
}
