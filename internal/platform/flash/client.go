// Package flash is the REST client for the Flash trade history API.
package flash

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/alanyoungcy/perpfeed/internal/platform/httpx"
)

// Client fetches raw Flash trade history.
//
// The legacy endpoint returns a wallet's full history at {baseURL}{address};
// the V3 endpoint pages it at {v3URL}{address}?page=&take=.
type Client struct {
	baseURL string
	v3URL   string
	http    *httpx.Client
}

// NewClient creates a Flash client. Both URLs are prefixes to which the
// wallet address is appended.
func NewClient(baseURL, v3URL string, h *httpx.Client) *Client {
	return &Client{baseURL: baseURL, v3URL: v3URL, http: h}
}

// TradesURL builds the request URL. page and take are only sent together;
// when either is zero the unpaged endpoint is used.
func (c *Client) TradesURL(address string, page, take int) string {
	addr := url.PathEscape(address)
	if page > 0 && take > 0 {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("take", strconv.Itoa(take))
		return c.v3URL + addr + "?" + q.Encode()
	}
	return c.baseURL + addr
}

// Trades returns the raw JSON body of a trade history request.
func (c *Client) Trades(ctx context.Context, address string, page, take int) ([]byte, error) {
	body, err := c.http.Get(ctx, c.TradesURL(address, page, take))
	if err != nil {
		return nil, fmt.Errorf("flash: get trades: %w", err)
	}
	return body, nil
}
