// Package stripeclient wraps the two Stripe Accounts API calls the
// setup wizards make. The Stripe API is form encoded; the base URL
// is overridable so tests can point it at a stub server.
package stripeclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const apiVersion = "2019-02-19"

// APIError carries Stripe's HTTP status and error message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe responded with %d: %s", e.StatusCode, e.Message)
}

// BankAccount is the external account submitted for payouts.
type BankAccount struct {
	SortCode      string
	AccountNumber string
}

// Person is the responsible person submitted for KYC. Field names
// map to Stripe's persons API.
type Person struct {
	FirstName       string
	LastName        string
	AddressLine1    string
	AddressLine2    string
	AddressCity     string
	AddressPostcode string
	DobDay          int
	DobMonth        int
	DobYear         int
}

// Client calls the Stripe API.
type Client struct {
	http   *resty.Client
	base   string
	apiKey string
}

// NewClient builds a Stripe client. baseURL is normally
// https://api.stripe.com; tests substitute a local stub.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	c := resty.New().SetTimeout(timeout)
	return &Client{
		http:   c,
		base:   strings.TrimRight(baseURL, "/"),
		apiKey: apiKey,
	}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeader("Stripe-Version", apiVersion).
		SetHeader("Content-Type", "application/x-www-form-urlencoded")
}

// UpdateBankAccount sets the payout bank account on a connected
// account.
func (c *Client) UpdateBankAccount(ctx context.Context, stripeAccountID string, bank BankAccount) error {
	resp, err := c.request(ctx).
		SetFormData(map[string]string{
			"external_account[object]":         "bank_account",
			"external_account[country]":        "GB",
			"external_account[currency]":       "GBP",
			"external_account[routing_number]": bank.SortCode,
			"external_account[account_number]": bank.AccountNumber,
		}).
		Post(fmt.Sprintf("%s/v1/accounts/%s", c.base, stripeAccountID))
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode(), Message: string(resp.Body())}
	}
	return nil
}

// CreatePerson registers the responsible person on a connected
// account. address_line2 is only sent when present.
func (c *Client) CreatePerson(ctx context.Context, stripeAccountID string, person Person) error {
	form := map[string]string{
		"first_name":                   person.FirstName,
		"last_name":                    person.LastName,
		"address[line1]":               person.AddressLine1,
		"address[city]":                person.AddressCity,
		"address[postal_code]":         person.AddressPostcode,
		"dob[day]":                     strconv.Itoa(person.DobDay),
		"dob[month]":                   strconv.Itoa(person.DobMonth),
		"dob[year]":                    strconv.Itoa(person.DobYear),
		"relationship[responsibility]": "responsible_person",
	}
	if person.AddressLine2 != "" {
		form["address[line2]"] = person.AddressLine2
	}
	resp, err := c.request(ctx).
		SetFormData(form).
		Post(fmt.Sprintf("%s/v1/accounts/%s/persons", c.base, stripeAccountID))
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode(), Message: string(resp.Body())}
	}
	return nil
}
