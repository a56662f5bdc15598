package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userKeyHeader = "X-User-Key"

// HTTP talks to a remote configuration server over its REST API.
// Authentication is a per-request user key header; values arrive already
// decrypted by the server.
type HTTP struct {
	Base    string
	UserKey string
	Client  *http.Client
}

// NewHTTP creates a client for the server at base.
func NewHTTP(base, userKey string, timeout time.Duration) *HTTP {
	return &HTTP{
		Base:    strings.TrimRight(base, "/"),
		UserKey: userKey,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTP) List(ctx context.Context, f Filters) ([]Entry, error) {
	q := url.Values{}
	if f.Environment != "" {
		q.Set("environment", f.Environment)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	path := "/configs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var entries []Entry
	if err := c.getJSON(ctx, path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *HTTP) Read(ctx context.Context, key, environment string) (*Entry, error) {
	path := "/configs/" + url.PathEscape(key) + "?environment=" + url.QueryEscape(environment)
	var e Entry
	if err := c.getJSON(ctx, path, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Exists is read-based: the server has no dedicated existence endpoint.
func (c *HTTP) Exists(ctx context.Context, key, environment string) (bool, error) {
	_, err := c.Read(ctx, key, environment)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *HTTP) Create(ctx context.Context, e Entry) (*Entry, error) {
	var out Entry
	if err := c.do(ctx, http.MethodPost, "/configs", e, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTP) Update(ctx context.Context, e Entry) (*Entry, error) {
	path := "/configs/" + url.PathEscape(e.Key) + "?environment=" + url.QueryEscape(e.Environment)
	body := struct {
		Value    any    `json:"value"`
		Category string `json:"category,omitempty"`
	}{Value: e.Value, Category: e.Category}

	var out Entry
	if err := c.do(ctx, http.MethodPut, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTP) Delete(ctx context.Context, key, environment string) error {
	path := "/configs/" + url.PathEscape(key) + "?environment=" + url.QueryEscape(environment)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTP) Ping(ctx context.Context) error {
	return c.getJSON(ctx, "/ping", nil)
}

func (c *HTTP) ClusterDistribution(ctx context.Context) (*Distribution, error) {
	var d Distribution
	if err := c.getJSON(ctx, "/cluster/distribution", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *HTTP) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *HTTP) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set(userKeyHeader, c.UserKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return c.statusError(resp, method, path)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// statusError maps server responses to the package's sentinel errors where
// the cause is recognizable, otherwise surfaces status and detail text.
func (c *HTTP) statusError(resp *http.Response, method, path string) error {
	detail := readDetail(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case strings.Contains(strings.ToLower(detail), "already exists"):
		return ErrAlreadyExists
	}

	if detail != "" {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, detail)
	}
	return fmt.Errorf("%s %s: %s", method, path, resp.Status)
}

// readDetail extracts the "detail" field of an error response body.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Detail == "" {
		return strings.TrimSpace(string(data))
	}
	return payload.Detail
}

var _ Client = (*HTTP)(nil)
