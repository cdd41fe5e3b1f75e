package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goodtune/nighttime/internal/storage"
)

// ErrUnavailable is returned when no daemon answers at the client's address.
var ErrUnavailable = errors.New("nighttime is not running")

// Client talks to a running daemon's control API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the daemon listening on addr (host:port).
func NewClient(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Status fetches the daemon status.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Toggle flips night mode and returns the new mode.
func (c *Client) Toggle(ctx context.Context) (bool, error) {
	var resp ToggleResponse
	if err := c.do(ctx, http.MethodPost, "/api/toggle", &resp); err != nil {
		return false, err
	}
	return resp.Mode, nil
}

// History lists journalled transitions through the daemon.
func (c *Client) History(ctx context.Context, filter storage.TransitionFilter) ([]storage.Transition, error) {
	query := url.Values{}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Source != "" {
		query.Set("source", string(filter.Source))
	}
	if filter.Since != nil {
		query.Set("since", filter.Since.UTC().Format(time.RFC3339Nano))
	}

	path := "/api/history"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp HistoryResponse
	if err := c.do(ctx, http.MethodGet, path, &resp); err != nil {
		return nil, err
	}
	return resp.Transitions, nil
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, apiErr.Message, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
