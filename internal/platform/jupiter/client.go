// Package jupiter is the REST client for the Jupiter perps trade API.
package jupiter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/alanyoungcy/perpfeed/internal/platform/httpx"
)

// Client fetches raw Jupiter trade pages.
type Client struct {
	baseURL string
	http    *httpx.Client
}

// NewClient creates a Jupiter client. baseURL is the API root, e.g.
// "https://perps-api.jup.ag/v1".
func NewClient(baseURL string, h *httpx.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: h}
}

// TradesURL builds the request URL for the half-open record window
// [start, end).
func (c *Client) TradesURL(address string, start, end int) string {
	q := url.Values{}
	q.Set("walletAddress", address)
	q.Set("start", strconv.Itoa(start))
	q.Set("end", strconv.Itoa(end))
	return c.baseURL + "/trades?" + q.Encode()
}

// Trades returns the raw JSON envelope for one record window.
func (c *Client) Trades(ctx context.Context, address string, start, end int) ([]byte, error) {
	body, err := c.http.Get(ctx, c.TradesURL(address, start, end))
	if err != nil {
		return nil, fmt.Errorf("jupiter: get trades: %w", err)
	}
	return body, nil
}
