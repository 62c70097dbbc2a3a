// Package products wraps the internal products service used by the
// prototype links dashboard page.
package products

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/thoas/go-funk"
)

const correlationHeader = "X-Request-Id"

// TypePrototype marks test-with-your-users prototype links.
const TypePrototype = "PROTOTYPE"

// Product is a payment link created for a gateway account.
type Product struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	PayLink    string `json:"pay_link"`
}

// APIError carries the upstream HTTP status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("products responded with %d: %s", e.StatusCode, e.Body)
}

// Client calls the products service over HTTP.
type Client struct {
	http *resty.Client
	base string
}

// NewClient builds a products client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().SetTimeout(timeout)
	return &Client{
		http: c,
		base: strings.TrimRight(baseURL, "/"),
	}
}

// GetByGatewayAccountID lists every product belonging to an account.
func (c *Client) GetByGatewayAccountID(ctx context.Context, accountID, correlationID string) ([]Product, error) {
	var out []Product
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(correlationHeader, correlationID).
		SetResult(&out).
		Get(fmt.Sprintf("%s/v1/api/gateway-account/%s/products", c.base, accountID))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return out, nil
}

// FilterPrototypes keeps only prototype link products.
func FilterPrototypes(all []Product) []Product {
	filtered := funk.Filter(all, func(p Product) bool {
		return p.Type == TypePrototype
	}).([]Product)
	return filtered
}
