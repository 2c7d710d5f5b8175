// Package syncapi is the HTTP transport to the external synchronization service.
package syncapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/JonMunkholm/catalogsync/internal/core"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 10 << 20

// Config configures the HTTP transport.
type Config struct {
	URL      string
	Token    string
	Timeout  time.Duration
	RetryMax int
	Logger   *slog.Logger
}

// Client posts export batches to the synchronization service.
type Client struct {
	url        string
	token      string
	httpClient *retryablehttp.Client
}

// request is the wire envelope of one batch.
type request struct {
	Action core.Domain    `json:"action"`
	Items  []*core.Record `json:"items"`
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, core.ErrNoTransport
	}

	c := retryablehttp.NewClient()
	c.RetryMax = cfg.RetryMax
	c.HTTPClient.Timeout = cfg.Timeout
	c.Logger = nil
	if cfg.Logger != nil {
		c.Logger = cfg.Logger
	}
	c.CheckRetry = checkRetry
	// Hand back the last response instead of a "giving up" error.
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		url:        cfg.URL,
		token:      cfg.Token,
		httpClient: c,
	}, nil
}

// checkRetry retries only attempts that never reached the service. Any
// response, whatever its status, may mean the batch was applied.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err == nil || resp != nil {
		return false, nil
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true, nil
	}
	return false, nil
}

// Sync implements core.Transport.
func (c *Client) Sync(ctx context.Context, action core.Domain, records []*core.Record) (*core.SyncResponse, error) {
	body, err := json.Marshal(request{Action: action, Items: records})
	if err != nil {
		return nil, errors.Wrap(err, "encode batch")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build sync request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, errors.Wrap(err, "sync request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read sync response")
	}

	var out core.SyncResponse
	decodeErr := json.Unmarshal(data, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The service reports batch failures in the envelope even on error statuses.
		if decodeErr == nil && !out.Success && out.Error != "" {
			return &out, nil
		}
		return nil, fmt.Errorf("sync service returned %s", resp.Status)
	}
	if decodeErr != nil {
		return nil, errors.Wrap(decodeErr, "decode sync response")
	}

	return &out, nil
}
