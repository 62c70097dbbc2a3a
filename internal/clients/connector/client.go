// Package connector wraps the internal connector service, the system
// of record for gateway accounts and their Stripe setup progress.
package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"selfservice/internal/wizard"
)

const correlationHeader = "X-Request-Id"

// APIError carries the upstream HTTP status so controllers can
// distinguish rejection from transport failure.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("connector responded with %d: %s", e.StatusCode, e.Body)
}

// GatewayAccount is the subset of the connector account resource the
// portal reads.
type GatewayAccount struct {
	GatewayAccountID string          `json:"gateway_account_id"`
	ExternalID       string          `json:"external_id"`
	PaymentProvider  string          `json:"payment_provider"`
	Type             string          `json:"type"`
	ServiceName      string          `json:"service_name"`
	StripeAccountID  string          `json:"stripe_account_id"`
	MerchantDetails  MerchantDetails `json:"merchant_details"`
}

// MerchantDetails is the organisation record shown on the check your
// organisation details page.
type MerchantDetails struct {
	Name         string `json:"name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	AddressCity  string `json:"address_city"`
	Postcode     string `json:"address_postcode"`
}

// FlexCredentials is the Worldpay 3DS Flex credential triple.
type FlexCredentials struct {
	OrganisationalUnitID string `json:"organisational_unit_id"`
	Issuer               string `json:"issuer"`
	JwtMacKey            string `json:"jwt_mac_key"`
}

// FlexCheckResult is the connector's verdict on a credential check.
type FlexCheckResult string

const (
	FlexCheckValid   FlexCheckResult = "valid"
	FlexCheckInvalid FlexCheckResult = "invalid"
)

// Client calls the connector over HTTP. Construct one at startup and
// inject it; base URL and timeout come from config, not the
// environment.
type Client struct {
	http *resty.Client
	base string
}

// NewClient builds a connector client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().SetTimeout(timeout)
	return &Client{
		http: c,
		base: strings.TrimRight(baseURL, "/"),
	}
}

// GetAccount fetches a gateway account by id.
func (c *Client) GetAccount(ctx context.Context, accountID, correlationID string) (*GatewayAccount, error) {
	var account GatewayAccount
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(correlationHeader, correlationID).
		SetResult(&account).
		Get(fmt.Sprintf("%s/v1/api/accounts/%s", c.base, accountID))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return &account, nil
}

// GetStripeSetupProgress fetches which Stripe setup steps the
// account has completed.
func (c *Client) GetStripeSetupProgress(ctx context.Context, accountID, correlationID string) (*wizard.Progress, error) {
	var progress wizard.Progress
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(correlationHeader, correlationID).
		SetResult(&progress).
		Get(fmt.Sprintf("%s/v1/api/accounts/%s/stripe-setup", c.base, accountID))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return &progress, nil
}

// SetStripeAccountSetupFlag records a completed setup step. Called
// exactly once per commit, immediately after the Stripe submission
// succeeded.
func (c *Client) SetStripeAccountSetupFlag(ctx context.Context, accountID, flag, correlationID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(correlationHeader, correlationID).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"op":    "replace",
			"path":  flag,
			"value": true,
		}).
		Patch(fmt.Sprintf("%s/v1/api/accounts/%s/stripe-setup", c.base, accountID))
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}

// CheckWorldpay3dsFlexCredentials asks the connector to verify the
// credentials with Worldpay without storing them.
func (c *Client) CheckWorldpay3dsFlexCredentials(ctx context.Context, accountID string, creds FlexCredentials, correlationID string) (FlexCheckResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(correlationHeader, correlationID).
		SetHeader("Content-Type", "application/json").
		SetBody(creds).
		Post(fmt.Sprintf("%s/v1/api/accounts/%s/worldpay/check-3ds-flex-config", c.base, accountID))
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	var body struct {
		Result FlexCheckResult `json:"result"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("unexpected check-3ds-flex response: %w", err)
	}
	return body.Result, nil
}

// Set3dsFlexAccountCredentials stores verified credentials on the
// account.
func (c *Client) Set3dsFlexAccountCredentials(ctx context.Context, accountID string, creds FlexCredentials, correlationID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(correlationHeader, correlationID).
		SetHeader("Content-Type", "application/json").
		SetBody(creds).
		Post(fmt.Sprintf("%s/v1/api/accounts/%s/3ds-flex", c.base, accountID))
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}
