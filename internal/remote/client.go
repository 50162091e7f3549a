// Package remote is the HTTP client for the day-log sync API.
package remote

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

	"golang.org/x/oauth2"

	"github.com/Tiliavir/ghosttrack/internal/model"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:4000/api/v1"

// Options configures a Client.
type Options struct {
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
	// HTTPClient is the base client; http.DefaultClient when nil.
	HTTPClient *http.Client
}

// Client talks to the day-log sync API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the API rooted at baseURL.
func NewClient(ctx context.Context, baseURL string, opts Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := &http.Client{}
	if opts.HTTPClient != nil {
		base := *opts.HTTPClient
		hc = &base
	}
	if opts.Token != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	}
	if opts.Timeout > 0 {
		hc.Timeout = opts.Timeout
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}
}

// PostLog upserts log on the server.
func (c *Client) PostLog(ctx context.Context, log model.DayLog) error {
	body, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encoding log: %w", err)
	}
	return c.PostPayload(ctx, body)
}

// PostPayload upserts an already encoded log, as stored in the outbox.
func (c *Client) PostPayload(ctx context.Context, payload json.RawMessage) error {
	return c.do(ctx, http.MethodPost, "/logs", nil, payload, nil)
}

// GetLog fetches the log saved for date.
func (c *Client) GetLog(ctx context.Context, date string) (model.DayLog, error) {
	var log model.DayLog
	if err := c.do(ctx, http.MethodGet, "/logs/"+url.PathEscape(date), nil, nil, &log); err != nil {
		return model.DayLog{}, err
	}
	return model.NormalizeLog(log), nil
}

// ListLogs returns up to limit logs older than before, newest first. An
// empty before starts from the newest log.
func (c *Client) ListLogs(ctx context.Context, limit int, before string) ([]model.DayLog, string, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if before != "" {
		q.Set("before", before)
	}

	var page Page
	if err := c.do(ctx, http.MethodGet, "/logs", q, nil, &page); err != nil {
		return nil, "", err
	}
	logs := make([]model.DayLog, 0, len(page.Logs))
	for _, raw := range page.Logs {
		var log model.DayLog
		if err := json.Unmarshal(raw, &log); err != nil {
			return nil, "", fmt.Errorf("decoding log: %w", err)
		}
		logs = append(logs, model.NormalizeLog(log))
	}
	return logs, page.NextBefore, nil
}

// ListAll follows the listing cursor until the oldest log.
func (c *Client) ListAll(ctx context.Context, pageSize int) ([]model.DayLog, error) {
	var all []model.DayLog
	before := ""
	for {
		logs, next, err := c.ListLogs(ctx, pageSize, before)
		if err != nil {
			return nil, err
		}
		all = append(all, logs...)
		if next == "" || next == before {
			return all, nil
		}
		before = next
	}
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote request failed: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	var env Envelope
	decodeErr := json.Unmarshal(data, &env)
	msg := ""
	if env.Error != nil {
		msg = env.Error.Message
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if msg == "" && decodeErr != nil {
			msg = strings.TrimSpace(string(data))
		}
		return &StatusError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("decoding response: %w", decodeErr)
	}
	if !env.OK {
		return &StatusError{Status: resp.StatusCode, Message: msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
	}
	return nil
}
