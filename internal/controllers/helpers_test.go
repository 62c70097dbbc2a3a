package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"gotest.tools/v3/assert"

	"selfservice/internal/audit"
	"selfservice/internal/clients/adminusers"
	"selfservice/internal/clients/connector"
	"selfservice/internal/clients/products"
	"selfservice/internal/clients/stripeclient"
	"selfservice/internal/history"
	"selfservice/internal/render"
	"selfservice/internal/session"
	"selfservice/internal/wizard"
)

type fakeConnector struct {
	account     *connector.GatewayAccount
	accountErr  error
	progress    *wizard.Progress
	progressErr error

	setFlagCalls []string
	setFlagErr   error

	flexResult   connector.FlexCheckResult
	flexCheckErr error

	setFlexCalls int
	setFlexErr   error
}

func (f *fakeConnector) GetAccount(ctx context.Context, accountID, correlationID string) (*connector.GatewayAccount, error) {
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	return f.account, nil
}

func (f *fakeConnector) GetStripeSetupProgress(ctx context.Context, accountID, correlationID string) (*wizard.Progress, error) {
	if f.progressErr != nil {
		return nil, f.progressErr
	}
	return f.progress, nil
}

func (f *fakeConnector) SetStripeAccountSetupFlag(ctx context.Context, accountID, flag, correlationID string) error {
	f.setFlagCalls = append(f.setFlagCalls, flag)
	return f.setFlagErr
}

func (f *fakeConnector) CheckWorldpay3dsFlexCredentials(ctx context.Context, accountID string, creds connector.FlexCredentials, correlationID string) (connector.FlexCheckResult, error) {
	if f.flexCheckErr != nil {
		return "", f.flexCheckErr
	}
	return f.flexResult, nil
}

func (f *fakeConnector) Set3dsFlexAccountCredentials(ctx context.Context, accountID string, creds connector.FlexCredentials, correlationID string) error {
	f.setFlexCalls++
	return f.setFlexErr
}

type fakeStripe struct {
	updateBankCalls   int
	updateBankErr     error
	createPersonCalls int
	createPersonErr   error
	lastPerson        stripeclient.Person
}

func (f *fakeStripe) UpdateBankAccount(ctx context.Context, stripeAccountID string, bank stripeclient.BankAccount) error {
	f.updateBankCalls++
	return f.updateBankErr
}

func (f *fakeStripe) CreatePerson(ctx context.Context, stripeAccountID string, person stripeclient.Person) error {
	f.createPersonCalls++
	f.lastPerson = person
	return f.createPersonErr
}

type fakeAdminusers struct {
	submitErr      error
	submitCalls    int
	user           *adminusers.User
	userErr        error
	provisionCalls int
	provisionErr   error
	activateCalls  int
	activateErr    error
	lastMethod     adminusers.SecondFactorMethod
	lastPhone      string
	lastCode       string
}

func (f *fakeAdminusers) SubmitRegistration(ctx context.Context, reg adminusers.Registration, correlationID string) error {
	f.submitCalls++
	return f.submitErr
}

func (f *fakeAdminusers) GetUser(ctx context.Context, userExternalID, correlationID string) (*adminusers.User, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.user, nil
}

func (f *fakeAdminusers) ProvisionSecondFactor(ctx context.Context, userExternalID string, method adminusers.SecondFactorMethod, telephoneNumber, correlationID string) error {
	f.provisionCalls++
	f.lastMethod = method
	f.lastPhone = telephoneNumber
	return f.provisionErr
}

func (f *fakeAdminusers) ActivateSecondFactor(ctx context.Context, userExternalID, code, correlationID string) error {
	f.activateCalls++
	f.lastCode = code
	return f.activateErr
}

type fakeProducts struct {
	products []products.Product
	err      error
}

func (f *fakeProducts) GetByGatewayAccountID(ctx context.Context, accountID, correlationID string) ([]products.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

type fakeHistory struct {
	records []history.Record
}

func (f *fakeHistory) RecordCommit(accountID, step string, outcome history.Outcome, message, correlationID string) error {
	f.records = append(f.records, history.Record{
		AccountID:     accountID,
		Step:          step,
		Outcome:       outcome,
		Message:       message,
		CorrelationID: correlationID,
	})
	return nil
}

func (f *fakeHistory) QueryByAccount(accountID string, limit int) ([]history.Record, error) {
	return f.records, nil
}

type fakeAudit struct {
	events []audit.Event
}

func (f *fakeAudit) SendOnboardingEvent(event audit.Event) error {
	f.events = append(f.events, event)
	return nil
}

type testKV struct {
	data map[string]string
}

func (f *testKV) Get(key string) (string, error) { return f.data[key], nil }

func (f *testKV) Set(key string, value interface{}, expiration time.Duration) error {
	f.data[key] = fmt.Sprintf("%v", value)
	return nil
}

func (f *testKV) Del(key string) error {
	delete(f.data, key)
	return nil
}

type testEnv struct {
	handler    *Handler
	connector  *fakeConnector
	stripe     *fakeStripe
	adminusers *fakeAdminusers
	products   *fakeProducts
	history    *fakeHistory
	audit      *fakeAudit
	sessions   *session.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	renderer, err := render.New()
	assert.NilError(t, err)

	env := &testEnv{
		connector: &fakeConnector{
			account: &connector.GatewayAccount{
				GatewayAccountID: "42",
				PaymentProvider:  "stripe",
				ServiceName:      "Pay for a thing",
				StripeAccountID:  "acct_123",
				MerchantDetails: connector.MerchantDetails{
					Name:         "GDS",
					AddressLine1: "The White Chapel Building",
					AddressCity:  "London",
					Postcode:     "E1 8QS",
				},
			},
			progress: &wizard.Progress{},
		},
		stripe:     &fakeStripe{},
		adminusers: &fakeAdminusers{},
		products:   &fakeProducts{},
		history:    &fakeHistory{},
		audit:      &fakeAudit{},
		sessions:   session.NewStore(&testKV{data: make(map[string]string)}, time.Hour),
	}
	env.handler = NewHandler(renderer, env.sessions,
		env.connector, env.stripe, env.adminusers, env.products,
		env.history, env.audit, nil)
	return env
}

func newGet(path string) *http.Request {
	return withTestContext(httptest.NewRequest(http.MethodGet, path, nil))
}

func newPost(path string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return withTestContext(r)
}

func withTestContext(r *http.Request) *http.Request {
	ctx := WithCorrelationID(r.Context(), "corr-test")
	ctx = WithSessionID(ctx, "sid-test")
	ctx = WithUserID(ctx, "user-ext-1")
	r = r.WithContext(ctx)
	return mux.SetURLVars(r, map[string]string{"accountId": "42"})
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, location, rec.Header().Get("Location"))
}
