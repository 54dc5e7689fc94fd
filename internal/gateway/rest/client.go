// Package rest talks to the hosted backend: GoTrue-style auth endpoints and
// a PostgREST-style table API. It is the production implementation of the
// gateway contract.
package rest

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
	"sync"
	"time"

	"github.com/relovehq/storefront/internal/gateway"
)

// Config holds the hosted backend connection settings.
type Config struct {
	BaseURL string
	AnonKey string
	// HTTPTimeout bounds each request; zero means no client-side timeout.
	HTTPTimeout time.Duration
	// AutoRefresh renews the session shortly before its token expires.
	AutoRefresh bool
}

func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.AnonKey == "" {
		return fmt.Errorf("anon key is required")
	}
	return nil
}

// Client implements gateway.Gateway against the hosted backend.
type Client struct {
	config     Config
	httpClient *http.Client

	mu           sync.Mutex
	session      *gateway.Session
	subs         map[int]func(gateway.Event, *gateway.Session)
	nextSub      int
	refreshTimer *time.Timer
}

// NewClient creates a client for the hosted backend.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config:     Config{BaseURL: strings.TrimRight(config.BaseURL, "/"), AnonKey: config.AnonKey, HTTPTimeout: config.HTTPTimeout, AutoRefresh: config.AutoRefresh},
		httpClient: &http.Client{Timeout: config.HTTPTimeout},
		subs:       make(map[int]func(gateway.Event, *gateway.Session)),
	}, nil
}

// Close stops the background token refresh.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}

func (c *Client) Select(ctx context.Context, table string, q gateway.Query, dest interface{}) error {
	u := c.tableURL(table, q, "")
	body, err := c.doJSON(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode %s rows: %w", table, err)
	}
	return nil
}

func (c *Client) SelectSingle(ctx context.Context, table string, q gateway.Query, dest interface{}) error {
	u := c.tableURL(table, q, "")
	headers := map[string]string{"Accept": "application/vnd.pgrst.object+json"}
	body, err := c.doJSON(ctx, http.MethodGet, u, nil, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode %s row: %w", table, err)
	}
	return nil
}

func (c *Client) Count(ctx context.Context, table string, f gateway.Filter) (int64, error) {
	u := c.tableURL(table, gateway.Query{Filter: f}, "")
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, map[string]string{"Prefer": "count=exact"})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, parseErrorResponse(resp.StatusCode, nil)
	}

	// Content-Range is "<from>-<to>/<total>" or "*/<total>".
	cr := resp.Header.Get("Content-Range")
	idx := strings.LastIndex(cr, "/")
	if idx < 0 {
		return 0, &gateway.Error{Status: resp.StatusCode, Message: "missing count in response"}
	}
	n, err := strconv.ParseInt(cr[idx+1:], 10, 64)
	if err != nil {
		return 0, &gateway.Error{Status: resp.StatusCode, Message: fmt.Sprintf("bad count %q", cr)}
	}
	return n, nil
}

func (c *Client) Insert(ctx context.Context, table string, row interface{}) error {
	u := c.tableURL(table, gateway.Query{}, "")
	headers := map[string]string{"Prefer": "return=minimal"}
	_, err := c.doJSON(ctx, http.MethodPost, u, row, headers)
	return err
}

func (c *Client) Upsert(ctx context.Context, table string, row interface{}, conflictKeys ...string) error {
	u := c.tableURL(table, gateway.Query{}, strings.Join(conflictKeys, ","))
	headers := map[string]string{"Prefer": "resolution=merge-duplicates,return=minimal"}
	_, err := c.doJSON(ctx, http.MethodPost, u, row, headers)
	return err
}

func (c *Client) Update(ctx context.Context, table string, patch interface{}, f gateway.Filter) error {
	u := c.tableURL(table, gateway.Query{Filter: f}, "")
	headers := map[string]string{"Prefer": "return=minimal"}
	_, err := c.doJSON(ctx, http.MethodPatch, u, patch, headers)
	return err
}

func (c *Client) Delete(ctx context.Context, table string, f gateway.Filter) error {
	u := c.tableURL(table, gateway.Query{Filter: f}, "")
	headers := map[string]string{"Prefer": "return=minimal"}
	_, err := c.doJSON(ctx, http.MethodDelete, u, nil, headers)
	return err
}

// tableURL renders a table query as a PostgREST request URL.
func (c *Client) tableURL(table string, q gateway.Query, onConflict string) string {
	params := url.Values{}

	sel := "*"
	if len(q.Embeds) > 0 {
		parts := []string{"*"}
		for _, e := range q.Embeds {
			cols := "*"
			if len(e.Columns) > 0 {
				cols = strings.Join(e.Columns, ",")
			}
			parts = append(parts, fmt.Sprintf("%s:%s(%s)", e.Field, e.Table, cols))
		}
		sel = strings.Join(parts, ",")
	}
	params.Set("select", sel)

	for _, cond := range q.Filter {
		params.Add(cond.Column, renderCond(cond))
	}

	if len(q.Orders) > 0 {
		parts := make([]string, 0, len(q.Orders))
		for _, o := range q.Orders {
			dir := "asc"
			if o.Descending {
				dir = "desc"
			}
			parts = append(parts, fmt.Sprintf("%s.%s", o.Column, dir))
		}
		params.Set("order", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if onConflict != "" {
		params.Set("on_conflict", onConflict)
	}

	return fmt.Sprintf("%s/rest/v1/%s?%s", c.config.BaseURL, table, params.Encode())
}

func renderCond(cond gateway.Cond) string {
	switch cond.Op {
	case gateway.OpIn:
		values, _ := cond.Value.([]interface{})
		parts := make([]string, 0, len(values))
		for _, v := range values {
			parts = append(parts, fmt.Sprintf("%v", v))
		}
		return fmt.Sprintf("in.(%s)", strings.Join(parts, ","))
	case gateway.OpILike:
		// PostgREST uses * as the pattern wildcard
		pattern := strings.ReplaceAll(fmt.Sprintf("%v", cond.Value), "%", "*")
		return fmt.Sprintf("ilike.%s", pattern)
	default:
		return fmt.Sprintf("%s.%v", cond.Op, cond.Value)
	}
}

// doJSON performs a request carrying the anon key and the session token and
// returns the raw response body.
func (c *Client) doJSON(ctx context.Context, method, url string, payload interface{}, headers map[string]string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, headers)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, parseErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) setHeaders(req *http.Request, headers map[string]string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.config.AnonKey)

	token := c.config.AnonKey
	c.mu.Lock()
	if c.session != nil {
		token = c.session.AccessToken
	}
	c.mu.Unlock()
	req.Header.Set("Authorization", "Bearer "+token)

	for k, v := range headers {
		req.Header.Set(k, v)
	}
}
