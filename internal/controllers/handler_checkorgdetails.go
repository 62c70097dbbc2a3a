package controllers

import (
	"net/http"

	"github.com/golang/glog"

	"selfservice/internal/audit"
	"selfservice/internal/clients/connector"
	"selfservice/internal/history"
	"selfservice/internal/wizard"
)

const confirmOrgDetailsField = "confirm-org-details"

const confirmOrgDetailsError = "Select yes if your organisation’s details match the details on your government entity document"

type checkOrgDetailsPageData struct {
	OrgName         string
	OrgAddressLine1 string
	OrgAddressLine2 string
	OrgCity         string
	OrgPostcode     string
	Errors          map[string]string
}

func orgDetailsPageData(account *connector.GatewayAccount) checkOrgDetailsPageData {
	return checkOrgDetailsPageData{
		OrgName:         account.MerchantDetails.Name,
		OrgAddressLine1: account.MerchantDetails.AddressLine1,
		OrgAddressLine2: account.MerchantDetails.AddressLine2,
		OrgCity:         account.MerchantDetails.AddressCity,
		OrgPostcode:     account.MerchantDetails.Postcode,
	}
}

// GetCheckOrgDetails shows the recorded organisation details with a
// yes/no confirmation.
func (h *Handler) GetCheckOrgDetails(w http.ResponseWriter, r *http.Request) {
	id := accountID(r)
	correlationID := CorrelationID(r)

	account, progress, ok := h.orgDetailsContext(w, r, id, correlationID)
	if !ok {
		return
	}
	if progress.OrganisationDetails {
		h.renderOrgDetailsAlreadyDone(w, id)
		return
	}
	h.render.Render(w, "stripe-setup/check-org-details/index", orgDetailsPageData(account))
}

// PostCheckOrgDetails handles the yes/no confirmation. "No" sends
// the user to the corrective details page without any external call;
// "yes" records the organisation_details setup flag exactly once.
func (h *Handler) PostCheckOrgDetails(w http.ResponseWriter, r *http.Request) {
	id := accountID(r)
	correlationID := CorrelationID(r)

	account, progress, ok := h.orgDetailsContext(w, r, id, correlationID)
	if !ok {
		return
	}
	if progress.OrganisationDetails {
		h.renderOrgDetailsAlreadyDone(w, id)
		return
	}

	switch trimField(r, confirmOrgDetailsField) {
	case "no":
		http.Redirect(w, r, pathUpdateOrgDetails(id), http.StatusSeeOther)

	case "yes":
		err := h.connector.SetStripeAccountSetupFlag(r.Context(), id, wizard.FlagOrganisationDetails, correlationID)
		if err != nil {
			glog.Errorf("[requestId=%s] Error setting organisation details flag - %v", correlationID, err)
			h.recordCommit(id, "organisation_details", history.OutcomeFailed, err.Error(), correlationID)
			h.render.RenderErrorView(w, retryMessage)
			return
		}
		glog.Infof("Organisation details confirmed for Stripe account %s", account.StripeAccountID)
		h.recordCommit(id, "organisation_details", history.OutcomeSucceeded, "", correlationID)
		h.publishAudit(audit.Event{AccountID: id, Step: "organisation_details", Outcome: "succeeded", CorrelationID: correlationID})
		http.Redirect(w, r, pathAddPspAccountDetails(id), http.StatusSeeOther)

	default:
		pageData := orgDetailsPageData(account)
		pageData.Errors = map[string]string{"confirmOrgDetails": confirmOrgDetailsError}
		h.render.Render(w, "stripe-setup/check-org-details/index", pageData)
	}
}

func (h *Handler) orgDetailsContext(w http.ResponseWriter, r *http.Request, id, correlationID string) (*connector.GatewayAccount, *wizard.Progress, bool) {
	account, err := h.connector.GetAccount(r.Context(), id, correlationID)
	if err != nil {
		glog.Errorf("[requestId=%s] failed to get gateway account - %v", correlationID, err)
		h.render.RenderErrorView(w, "")
		return nil, nil, false
	}
	progress, err := h.connector.GetStripeSetupProgress(r.Context(), id, correlationID)
	if err != nil {
		glog.Errorf("[requestId=%s] Stripe setup progress is not available - %v", correlationID, err)
		h.render.RenderErrorView(w, "")
		return nil, nil, false
	}
	return account, progress, true
}

func (h *Handler) renderOrgDetailsAlreadyDone(w http.ResponseWriter, id string) {
	h.render.Render(w, "error-with-link", map[string]string{
		"Message":  "You've already confirmed your organisation's details.",
		"Link":     pathDashboard(id),
		"LinkText": "Back to dashboard",
	})
}

// GetAddPspAccountDetails forwards to the first incomplete Stripe
// setup step, or the dashboard once everything is done.
func (h *Handler) GetAddPspAccountDetails(w http.ResponseWriter, r *http.Request) {
	id := accountID(r)
	progress, err := h.connector.GetStripeSetupProgress(r.Context(), id, CorrelationID(r))
	if err != nil {
		glog.Errorf("[requestId=%s] failed to get stripe setup progress - %v", CorrelationID(r), err)
		h.render.RenderErrorView(w, "")
		return
	}

	var target string
	switch {
	case !progress.BankAccount:
		target = pathBankDetails(id)
	case !progress.ResponsiblePerson:
		target = pathResponsiblePerson(id)
	case !progress.OrganisationDetails:
		target = pathCheckOrgDetails(id)
	default:
		target = pathDashboard(id)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
