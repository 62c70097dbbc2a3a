package connector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestGetAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api/accounts/42", r.URL.Path)
		assert.Equal(t, "corr-1", r.Header.Get("X-Request-Id"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"gateway_account_id": "42",
			"payment_provider":   "stripe",
			"stripe_account_id":  "acct_123",
			"merchant_details": map[string]string{
				"name":             "GDS",
				"address_line1":    "The White Chapel Building",
				"address_city":     "London",
				"address_postcode": "E1 8QS",
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	account, err := client.GetAccount(context.Background(), "42", "corr-1")

	assert.NilError(t, err)
	assert.Equal(t, "42", account.GatewayAccountID)
	assert.Equal(t, "stripe", account.PaymentProvider)
	assert.Equal(t, "acct_123", account.StripeAccountID)
	assert.Equal(t, "GDS", account.MerchantDetails.Name)
	assert.Equal(t, "E1 8QS", account.MerchantDetails.Postcode)
}

func TestGetAccountNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.GetAccount(context.Background(), "42", "corr-1")

	apiErr, ok := err.(*APIError)
	assert.Assert(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestGetStripeSetupProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api/accounts/42/stripe-setup", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bank_account":true,"responsible_person":false,"organisation_details":false}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	progress, err := client.GetStripeSetupProgress(context.Background(), "42", "corr-1")

	assert.NilError(t, err)
	assert.Assert(t, progress.BankAccount)
	assert.Assert(t, !progress.ResponsiblePerson)
	assert.Assert(t, !progress.OrganisationDetails)
}

func TestSetStripeAccountSetupFlag(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/api/accounts/42/stripe-setup", r.URL.Path)
		assert.Equal(t, "corr-1", r.Header.Get("X-Request-Id"))
		assert.NilError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	err := client.SetStripeAccountSetupFlag(context.Background(), "42", "organisation_details", "corr-1")

	assert.NilError(t, err)
	assert.Equal(t, "replace", got["op"])
	assert.Equal(t, "organisation_details", got["path"])
	assert.Equal(t, true, got["value"])
}

func TestCheckWorldpay3dsFlexCredentials(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected FlexCheckResult
	}{
		{name: "valid credentials", response: `{"result":"valid"}`, expected: FlexCheckValid},
		{name: "invalid credentials", response: `{"result":"invalid"}`, expected: FlexCheckInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got FlexCredentials
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/api/accounts/42/worldpay/check-3ds-flex-config", r.URL.Path)
				assert.NilError(t, json.NewDecoder(r.Body).Decode(&got))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, time.Second)
			creds := FlexCredentials{
				OrganisationalUnitID: "5bd9b55e4444761ac0af1c80",
				Issuer:               "5bd9e0e4444dce153428c940",
				JwtMacKey:            "fa2daee2-1fbb-45ff-4444-52805d5cd9e0",
			}
			result, err := client.CheckWorldpay3dsFlexCredentials(context.Background(), "42", creds, "corr-1")

			assert.NilError(t, err)
			assert.Equal(t, tt.expected, result)
			assert.Equal(t, "5bd9b55e4444761ac0af1c80", got.OrganisationalUnitID)
		})
	}
}

func TestSet3dsFlexAccountCredentialsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	err := client.Set3dsFlexAccountCredentials(context.Background(), "42", FlexCredentials{}, "corr-1")

	apiErr, ok := err.(*APIError)
	assert.Assert(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}
