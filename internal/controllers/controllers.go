// Package controllers holds the HTTP handlers for every portal page.
// Each wizard step is a GET/POST pair: the GET renders the form
// (restoring any session recovered state), the POST validates the
// submission and decides between re-render, confirmation and commit.
package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"selfservice/internal/audit"
	"selfservice/internal/clients/adminusers"
	"selfservice/internal/clients/connector"
	"selfservice/internal/clients/products"
	"selfservice/internal/clients/stripeclient"
	"selfservice/internal/history"
	"selfservice/internal/render"
	"selfservice/internal/session"
	"selfservice/internal/validation"
	"selfservice/internal/wizard"
)

// ConnectorAPI is the slice of the connector client the controllers
// use.
type ConnectorAPI interface {
	GetAccount(ctx context.Context, accountID, correlationID string) (*connector.GatewayAccount, error)
	GetStripeSetupProgress(ctx context.Context, accountID, correlationID string) (*wizard.Progress, error)
	SetStripeAccountSetupFlag(ctx context.Context, accountID, flag, correlationID string) error
	CheckWorldpay3dsFlexCredentials(ctx context.Context, accountID string, creds connector.FlexCredentials, correlationID string) (connector.FlexCheckResult, error)
	Set3dsFlexAccountCredentials(ctx context.Context, accountID string, creds connector.FlexCredentials, correlationID string) error
}

// StripeAPI is the slice of the Stripe client the controllers use.
type StripeAPI interface {
	UpdateBankAccount(ctx context.Context, stripeAccountID string, bank stripeclient.BankAccount) error
	CreatePerson(ctx context.Context, stripeAccountID string, person stripeclient.Person) error
}

// AdminusersAPI is the slice of the adminusers client the
// controllers use.
type AdminusersAPI interface {
	SubmitRegistration(ctx context.Context, reg adminusers.Registration, correlationID string) error
	GetUser(ctx context.Context, userExternalID, correlationID string) (*adminusers.User, error)
	ProvisionSecondFactor(ctx context.Context, userExternalID string, method adminusers.SecondFactorMethod, telephoneNumber, correlationID string) error
	ActivateSecondFactor(ctx context.Context, userExternalID, code, correlationID string) error
}

// ProductsAPI is the slice of the products client the controllers
// use.
type ProductsAPI interface {
	GetByGatewayAccountID(ctx context.Context, accountID, correlationID string) ([]products.Product, error)
}

// HistoryRecorder records commit attempts; nil disables recording.
type HistoryRecorder interface {
	RecordCommit(accountID, step string, outcome history.Outcome, message, correlationID string) error
	QueryByAccount(accountID string, limit int) ([]history.Record, error)
}

// AuditPublisher publishes onboarding events; nil disables
// publishing.
type AuditPublisher interface {
	SendOnboardingEvent(event audit.Event) error
}

// Notifier pushes user facing notifications; nil disables them.
type Notifier interface {
	NotifySetupComplete(ctx context.Context, accountID, message string) error
}

// Handler carries every controller dependency, constructed once at
// startup and shared by all requests.
type Handler struct {
	render     *render.Renderer
	sessions   *session.Store
	connector  ConnectorAPI
	stripe     StripeAPI
	adminusers AdminusersAPI
	products   ProductsAPI
	history    HistoryRecorder
	audit      AuditPublisher
	notifier   Notifier
}

// NewHandler wires a controller handler.
func NewHandler(r *render.Renderer, sessions *session.Store, conn ConnectorAPI, stripe StripeAPI, admin AdminusersAPI, prods ProductsAPI, hist HistoryRecorder, aud AuditPublisher, notifier Notifier) *Handler {
	return &Handler{
		render:     r,
		sessions:   sessions,
		connector:  conn,
		stripe:     stripe,
		adminusers: admin,
		products:   prods,
		history:    hist,
		audit:      aud,
		notifier:   notifier,
	}
}

type contextKey string

const (
	correlationIDKey contextKey = "correlationID"
	sessionIDKey     contextKey = "sessionID"
	userIDKey        contextKey = "userID"
)

// WithCorrelationID stores the request correlation id on the
// context. Set by the server middleware.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID returns the request correlation id.
func CorrelationID(r *http.Request) string {
	id, _ := r.Context().Value(correlationIDKey).(string)
	return id
}

// WithSessionID stores the browser session id on the context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionID returns the browser session id.
func SessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDKey).(string)
	return id
}

// WithUserID stores the signed in user's external id on the context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID returns the signed in user's external id.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// accountID extracts the gateway account id path variable.
func accountID(r *http.Request) string {
	return mux.Vars(r)["accountId"]
}

// trimField returns the named form field trimmed, or the empty
// string when absent.
func trimField(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

// intentFrom reads the confirmation buttons posted with a wizard
// form.
func intentFrom(r *http.Request) wizard.Intent {
	return wizard.Intent{
		AnswersChecked:      r.PostFormValue("answers-checked") == "true",
		AnswersNeedChanging: r.PostFormValue("answers-need-changing") == "true",
	}
}

// FieldError pairs a field with its message for the error summary.
type FieldError struct {
	Field   string
	Message string
}

// errorList converts collected errors to declaration ordered pairs
// for the error summary.
func errorList(errs *validation.Errors) []FieldError {
	out := make([]FieldError, 0, errs.Len())
	for _, field := range errs.Fields() {
		out = append(out, FieldError{Field: field, Message: errs.Get(field)})
	}
	return out
}

// Route path helpers. Paths are account scoped except registration
// and profile.
func pathDashboard(accountID string) string {
	return fmt.Sprintf("/account/%s/dashboard", accountID)
}

func pathBankDetails(accountID string) string {
	return fmt.Sprintf("/account/%s/stripe/bank-details", accountID)
}

func pathResponsiblePerson(accountID string) string {
	return fmt.Sprintf("/account/%s/stripe/responsible-person", accountID)
}

func pathCheckOrgDetails(accountID string) string {
	return fmt.Sprintf("/account/%s/stripe/check-org-details", accountID)
}

func pathUpdateOrgDetails(accountID string) string {
	return fmt.Sprintf("/account/%s/your-psp/update-organisation-details", accountID)
}

func pathAddPspAccountDetails(accountID string) string {
	return fmt.Sprintf("/account/%s/stripe/add-psp-account-details", accountID)
}

func pathYourPsp(accountID string) string {
	return fmt.Sprintf("/account/%s/your-psp", accountID)
}

func pathFlex(accountID string) string {
	return fmt.Sprintf("/account/%s/your-psp/flex", accountID)
}

const (
	pathRegister        = "/register"
	pathRegisterConfirm = "/register/confirm"
	pathTwoFactor       = "/my-profile/two-factor-auth"
	pathTwoFactorPhone  = "/my-profile/two-factor-auth/phone"
	pathTwoFactorVerify = "/my-profile/two-factor-auth/configure"
)

// retryMessage is the generic commit failure copy.
const retryMessage = "Please try again or contact support team"
