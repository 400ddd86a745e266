package brevq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

func NewClient(host string) *Client {
	host = strings.TrimRight(host, "/")
	return &Client{
		host: host,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Client talks to a brevqd api.
type Client struct {
	host string
	http *http.Client
}

func (c *Client) Schedule(ctx context.Context, req ScheduleRequest) (Receipt, error) {
	var r Receipt
	err := c.do(ctx, http.MethodPost, "/emails", req, &r)
	return r, err
}

func (c *Client) QueueBatch(ctx context.Context, req BatchRequest) (BatchReceipt, error) {
	var r BatchReceipt
	err := c.do(ctx, http.MethodPost, "/batches", req, &r)
	return r, err
}

func (c *Client) Batch(ctx context.Context, batchID string) (BatchStatus, error) {
	var r BatchStatus
	err := c.do(ctx, http.MethodGet, "/batches/"+url.PathEscape(batchID), nil, &r)
	return r, err
}

func (c *Client) Get(ctx context.Context, id string) (QueuedEmail, error) {
	var r QueuedEmail
	err := c.do(ctx, http.MethodGet, "/emails/"+url.PathEscape(id), nil, &r)
	return r, err
}

func (c *Client) List(ctx context.Context, page, pageSize int) (Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	var r Page
	err := c.do(ctx, http.MethodGet, "/emails?"+q.Encode(), nil, &r)
	return r, err
}

func (c *Client) Update(ctx context.Context, req UpdateRequest) (QueuedEmail, error) {
	var r QueuedEmail
	err := c.do(ctx, http.MethodPatch, "/emails/"+url.PathEscape(req.ID), req, &r)
	return r, err
}

func (c *Client) Cancel(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/emails/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Status(ctx context.Context) (QueueStatus, error) {
	var r QueueStatus
	err := c.do(ctx, http.MethodGet, "/status", nil, &r)
	return r, err
}

func (c *Client) Settings(ctx context.Context) (Settings, error) {
	var r Settings
	err := c.do(ctx, http.MethodGet, "/config", nil, &r)
	return r, err
}

func (c *Client) UpdateSettings(ctx context.Context, update SettingsUpdate) (Settings, error) {
	var r Settings
	err := c.do(ctx, http.MethodPut, "/config", update, &r)
	return r, err
}

func (c *Client) do(ctx context.Context, method string, path string, body interface{}, out interface{}) error {
	var in io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		in = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+path, in)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		var e ErrorResponse
		if json.Unmarshal(respBytes, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(respBytes))
		}
		return e.Err(resp.StatusCode)
	}
	if out == nil || len(respBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("could not decode response from %s %s: %w", method, path, err)
	}
	return nil
}
