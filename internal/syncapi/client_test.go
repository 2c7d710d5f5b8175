package syncapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/catalogsync/internal/core"
)

func testRecords() []*core.Record {
	return []*core.Record{
		{
			Domain:    core.DomainMedia,
			Identity:  core.Identity{ExternalID: "B0ABCDE123", SKU: "SKU-1"},
			Localized: map[core.Locale]map[string]string{},
			Payload: map[string]core.Value{
				"video1Url": {Raw: "https://videos.example.com/demo.mp4", Kind: core.KindText, Valid: true},
			},
			RowIndex: 2,
		},
	}
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{URL: url, Token: "secret", Timeout: time.Second, RetryMax: 0})
	require.NoError(t, err)
	return c
}

func TestSync_PostsEnvelope(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"results":[{"success":false,"error":"SKU not found"}]}`)
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL).Sync(context.Background(), core.DomainMedia, testRecords())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "SKU not found", resp.Results[0].Error)

	assert.Equal(t, "media", got["action"])
	items := got["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "B0ABCDE123", item["externalId"])
	assert.Equal(t, "SKU-1", item["sku"])
}

func TestSync_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  string
		wantResp *core.SyncResponse
	}{
		{
			name:     "batch failure envelope",
			status:   http.StatusOK,
			body:     `{"success":false,"error":"quota exceeded"}`,
			wantResp: &core.SyncResponse{Success: false, Error: "quota exceeded"},
		},
		{
			name:     "error status with envelope",
			status:   http.StatusBadRequest,
			body:     `{"success":false,"error":"unknown action"}`,
			wantResp: &core.SyncResponse{Success: false, Error: "unknown action"},
		},
		{
			name:    "error status without envelope",
			status:  http.StatusUnauthorized,
			body:    `unauthorized`,
			wantErr: "sync service returned 401 Unauthorized",
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `<html>`,
			wantErr: "decode sync response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			resp, err := newTestClient(t, srv.URL).Sync(context.Background(), core.DomainMedia, testRecords())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantResp, resp)
		})
	}
}

func TestSync_ServerErrorIsSentOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, Timeout: time.Second, RetryMax: 2})
	require.NoError(t, err)
	c.httpClient.RetryWaitMin = time.Millisecond
	c.httpClient.RetryWaitMax = time.Millisecond

	_, err = c.Sync(context.Background(), core.DomainMedia, testRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, int32(1), calls.Load())
}

func TestCheckRetry(t *testing.T) {
	dialErr := &url.Error{Op: "Post", URL: "http://sync.invalid", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}
	readErr := &url.Error{Op: "Post", URL: "http://sync.invalid", Err: &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name  string
		ctx   context.Context
		resp  *http.Response
		err   error
		retry bool
	}{
		{"success", context.Background(), &http.Response{StatusCode: http.StatusOK}, nil, false},
		{"server error", context.Background(), &http.Response{StatusCode: http.StatusServiceUnavailable}, nil, false},
		{"dial failure", context.Background(), nil, dialErr, true},
		{"connection reset after send", context.Background(), nil, readErr, false},
		{"cancelled", cancelled, nil, dialErr, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retry, _ := checkRetry(tt.ctx, tt.resp, tt.err)
			assert.Equal(t, tt.retry, retry)
		})
	}
}

func TestSync_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Sync(context.Background(), core.DomainMedia, testRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync request")
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, core.ErrNoTransport)
}
