// Package adminusers wraps the internal user administration service:
// service registration and second factor management.
package adminusers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const correlationHeader = "X-Request-Id"

// APIError carries the upstream HTTP status. Registration
// controllers branch on it: 403 means the email is not a public
// sector address, 409 means the invite already exists and the flow
// proceeds to confirmation anyway.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("adminusers responded with %d: %s", e.StatusCode, e.Body)
}

// Registration is a self service registration submission.
type Registration struct {
	Email           string `json:"email"`
	TelephoneNumber string `json:"telephone_number"`
	Password        string `json:"password"`
}

// SecondFactorMethod is how a user signs in: SMS or APP.
type SecondFactorMethod string

const (
	SecondFactorSMS SecondFactorMethod = "SMS"
	SecondFactorApp SecondFactorMethod = "APP"
)

// User is the subset of the adminusers user resource the profile
// pages read.
type User struct {
	ExternalID        string             `json:"external_id"`
	Email             string             `json:"email"`
	TelephoneNumber   string             `json:"telephone_number"`
	SecondFactor      SecondFactorMethod `json:"second_factor"`
	ProvisionalOtpKey string             `json:"provisional_otp_key"`
}

// Client calls adminusers over HTTP.
type Client struct {
	http *resty.Client
	base string
}

// NewClient builds an adminusers client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().SetTimeout(timeout)
	return &Client{
		http: c,
		base: strings.TrimRight(baseURL, "/"),
	}
}

// SubmitRegistration creates a self registration invite.
func (c *Client) SubmitRegistration(ctx context.Context, reg Registration, correlationID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(correlationHeader, correlationID).
		SetHeader("Content-Type", "application/json").
		SetBody(reg).
		Post(fmt.Sprintf("%s/v1/api/invites/service", c.base))
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}

// GetUser fetches a user by external id.
func (c *Client) GetUser(ctx context.Context, userExternalID, correlationID string) (*User, error) {
	var user User
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(correlationHeader, correlationID).
		SetResult(&user).
		Get(fmt.Sprintf("%s/v1/api/users/%s", c.base, userExternalID))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return &user, nil
}

// ProvisionSecondFactor starts a sign in method change, generating a
// provisional OTP key. For SMS the new phone number is sent along.
func (c *Client) ProvisionSecondFactor(ctx context.Context, userExternalID string, method SecondFactorMethod, telephoneNumber, correlationID string) error {
	body := map[string]string{"second_factor": string(method)}
	if telephoneNumber != "" {
		body["telephone_number"] = telephoneNumber
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(correlationHeader, correlationID).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(fmt.Sprintf("%s/v1/api/users/%s/second-factor/provision", c.base, userExternalID))
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}

// ActivateSecondFactor completes a sign in method change with the
// verification code the user entered.
func (c *Client) ActivateSecondFactor(ctx context.Context, userExternalID, code, correlationID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(correlationHeader, correlationID).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"code": code}).
		Post(fmt.Sprintf("%s/v1/api/users/%s/second-factor/activate", c.base, userExternalID))
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}
