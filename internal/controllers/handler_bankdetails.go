package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang/glog"

	"selfservice/internal/audit"
	"selfservice/internal/clients/stripeclient"
	"selfservice/internal/history"
	"selfservice/internal/validation"
	"selfservice/internal/wizard"
)

const (
	sortCodeField      = "sort-code"
	accountNumberField = "account-number"
)

var bankDetailsSpecs = []validation.FieldSpec{
	{Name: sortCodeField, Validator: validation.ValidateSortCode},
	{Name: accountNumberField, Validator: validation.ValidateAccountNumber},
}

type bankDetailsPageData struct {
	SortCode      string
	AccountNumber string
	Errors        map[string]string
	ErrorList     []FieldError
}

// GetBankDetails renders the bank details form.
func (h *Handler) GetBankDetails(w http.ResponseWriter, r *http.Request) {
	id := accountID(r)
	progress, err := h.connector.GetStripeSetupProgress(r.Context(), id, CorrelationID(r))
	if err != nil {
		glog.Errorf("[requestId=%s] failed to get stripe setup progress - %v", CorrelationID(r), err)
		h.render.RenderErrorView(w, "")
		return
	}
	if progress.BankAccount {
		h.render.Render(w, "error-with-link", map[string]string{
			"Message":  "You've already provided your bank details.",
			"Link":     pathDashboard(id),
			"LinkText": "Back to dashboard",
		})
		return
	}
	h.render.Render(w, "stripe-setup/bank-details/index", bankDetailsPageData{})
}

// PostBankDetails validates the submitted bank details and either
// re-renders, shows the confirmation page, or submits them to Stripe
// and records the setup flag.
func (h *Handler) PostBankDetails(w http.ResponseWriter, r *http.Request) {
	id := accountID(r)
	correlationID := CorrelationID(r)

	form := validation.FormState{
		sortCodeField:      trimField(r, sortCodeField),
		accountNumberField: trimField(r, accountNumberField),
	}

	errs := validation.ValidateForm(form, bankDetailsSpecs)
	pageData := bankDetailsPageData{
		SortCode:      form[sortCodeField],
		AccountNumber: form[accountNumberField],
	}

	switch wizard.Decide(errs, intentFrom(r)) {
	case wizard.RenderErrors:
		pageData.Errors = errs.Messages()
		pageData.ErrorList = errorList(errs)
		h.render.Render(w, "stripe-setup/bank-details/index", pageData)

	case wizard.RenderInput:
		h.render.Render(w, "stripe-setup/bank-details/index", pageData)

	case wizard.RenderCheckAnswers:
		h.render.Render(w, "stripe-setup/bank-details/check-your-answers", pageData)

	case wizard.Commit:
		h.commitBankDetails(w, r, id, form, pageData, correlationID)
	}
}

func (h *Handler) commitBankDetails(w http.ResponseWriter, r *http.Request, id string, form validation.FormState, pageData bankDetailsPageData, correlationID string) {
	account, err := h.connector.GetAccount(r.Context(), id, correlationID)
	if err != nil {
		glog.Errorf("[requestId=%s] failed to get gateway account - %v", correlationID, err)
		h.render.RenderErrorView(w, retryMessage)
		return
	}

	commit := func(ctx context.Context) error {
		if err := h.stripe.UpdateBankAccount(ctx, account.StripeAccountID, stripeclient.BankAccount{
			SortCode:      form[sortCodeField],
			AccountNumber: form[accountNumberField],
		}); err != nil {
			return err
		}
		return h.connector.SetStripeAccountSetupFlag(ctx, id, wizard.FlagBankAccount, correlationID)
	}

	if err := wizard.RunCommit(r.Context(), commit); err != nil {
		// Stripe rejects an unknown sort code as an invalid routing
		// number; surface that on the field instead of failing the
		// whole page.
		if stripeRejectedRoutingNumber(err) {
			errs := validation.NewErrors()
			errs.Add(sortCodeField, "Enter a valid sort code")
			pageData.Errors = errs.Messages()
			pageData.ErrorList = errorList(errs)
			h.recordCommit(id, "bank_details", history.OutcomeRejected, err.Error(), correlationID)
			h.render.Render(w, "stripe-setup/bank-details/index", pageData)
			return
		}
		glog.Errorf("[requestId=%s] Error updating bank account with Stripe - %v", correlationID, err)
		h.recordCommit(id, "bank_details", history.OutcomeFailed, err.Error(), correlationID)
		h.render.RenderErrorView(w, retryMessage)
		return
	}

	h.recordCommit(id, "bank_details", history.OutcomeSucceeded, "", correlationID)
	h.publishAudit(audit.Event{AccountID: id, Step: "bank_details", Outcome: "succeeded", CorrelationID: correlationID})
	http.Redirect(w, r, pathDashboard(id), http.StatusSeeOther)
}

func stripeRejectedRoutingNumber(err error) bool {
	apiErr, ok := err.(*stripeclient.APIError)
	return ok && apiErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(apiErr.Message, "routing_number")
}

// recordCommit writes the attempt to the history store when one is
// configured.
func (h *Handler) recordCommit(accountID, step string, outcome history.Outcome, message, correlationID string) {
	if h.history == nil {
		return
	}
	_ = h.history.RecordCommit(accountID, step, outcome, message, correlationID)
}

// publishAudit publishes an onboarding event when a sender is
// configured.
func (h *Handler) publishAudit(event audit.Event) {
	if h.audit == nil {
		return
	}
	if err := h.audit.SendOnboardingEvent(event); err != nil {
		glog.Warningf("failed to publish onboarding event: %v", err)
	}
}
