package controllers

import (
	"net/http"

	"github.com/golang/glog"

	"selfservice/internal/audit"
	"selfservice/internal/clients/connector"
	"selfservice/internal/history"
	"selfservice/internal/validation"
)

const (
	orgUnitIDField = "organisational-unit-id"
	issuerField    = "issuer"
	jwtMacKeyField = "jwt-mac-key"
)

// recoveredFlexKey names the session blob holding a failed flex
// submission for the next GET.
const recoveredFlexKey = "worldpay3dsFlex"

var flexSpecs = []validation.FieldSpec{
	{Name: orgUnitIDField, Validator: validation.ValidateOrgUnitID},
	{Name: issuerField, Validator: validation.ValidateIssuer},
	{Name: jwtMacKeyField, Validator: validation.ValidateJwtMacKey},
}

// flexRecovered is the session persisted state for re-displaying the
// form after a redirect. The JWT MAC key is a secret and is never
// echoed back.
type flexRecovered struct {
	OrgUnitID string            `json:"orgUnitId"`
	Issuer    string            `json:"issuer"`
	Errors    map[string]string `json:"errors"`
	Order     []string          `json:"order"`
}

type flexPageData struct {
	OrgUnitID string
	Issuer    string
	Errors    map[string]string
	ErrorList []FieldError
}

// GetFlex renders the 3DS Flex credentials form, restoring any
// recovered state from a previous failed submission.
func (h *Handler) GetFlex(w http.ResponseWriter, r *http.Request) {
	var recovered flexRecovered
	found, err := h.sessions.GetPageData(SessionID(r), recoveredFlexKey, &recovered)
	if err != nil {
		glog.Warningf("[requestId=%s] failed to read recovered flex state - %v", CorrelationID(r), err)
	}

	pageData := flexPageData{}
	if found {
		pageData.OrgUnitID = recovered.OrgUnitID
		pageData.Issuer = recovered.Issuer
		pageData.Errors = recovered.Errors
		for _, field := range recovered.Order {
			pageData.ErrorList = append(pageData.ErrorList, FieldError{Field: field, Message: recovered.Errors[field]})
		}
	}
	h.render.Render(w, "your-psp/flex", pageData)
}

// PostFlex validates the 3DS Flex credentials locally, then with the
// connector (which checks them with Worldpay), and finally stores
// them on the account. Validation failures redirect back to the form
// with the state recovered from the session.
func (h *Handler) PostFlex(w http.ResponseWriter, r *http.Request) {
	id := accountID(r)
	correlationID := CorrelationID(r)

	form := validation.FormState{
		orgUnitIDField: trimField(r, orgUnitIDField),
		issuerField:    trimField(r, issuerField),
		jwtMacKeyField: trimField(r, jwtMacKeyField),
	}

	errs := validation.ValidateForm(form, flexSpecs)
	if !errs.Empty() {
		h.redirectFlexWithErrors(w, r, id, form, errs)
		return
	}

	creds := connector.FlexCredentials{
		OrganisationalUnitID: form[orgUnitIDField],
		Issuer:               form[issuerField],
		JwtMacKey:            form[jwtMacKeyField],
	}

	result, err := h.connector.CheckWorldpay3dsFlexCredentials(r.Context(), id, creds, correlationID)
	if err != nil {
		glog.Errorf("[requestId=%s] Error checking Worldpay 3DS Flex credentials - %v", correlationID, err)
		h.recordCommit(id, "worldpay_3ds_flex", history.OutcomeFailed, err.Error(), correlationID)
		h.render.RenderErrorView(w, "")
		return
	}

	if result == connector.FlexCheckInvalid {
		// The connector does not say which credential Worldpay
		// rejected, so all three fields are flagged.
		rejected := validation.NewErrors()
		rejected.Add(orgUnitIDField, "Enter your organisational unit ID in the format you received it")
		rejected.Add(issuerField, "Enter your issuer in the format you received it")
		rejected.Add(jwtMacKeyField, "Enter your JWT MAC key in the format you received it")
		h.recordCommit(id, "worldpay_3ds_flex", history.OutcomeRejected, "credentials rejected by Worldpay", correlationID)
		h.redirectFlexWithErrors(w, r, id, form, rejected)
		return
	}

	if err := h.connector.Set3dsFlexAccountCredentials(r.Context(), id, creds, correlationID); err != nil {
		glog.Errorf("[requestId=%s] Error storing Worldpay 3DS Flex credentials - %v", correlationID, err)
		h.recordCommit(id, "worldpay_3ds_flex", history.OutcomeFailed, err.Error(), correlationID)
		h.render.RenderErrorView(w, "")
		return
	}

	h.recordCommit(id, "worldpay_3ds_flex", history.OutcomeSucceeded, "", correlationID)
	h.publishAudit(audit.Event{AccountID: id, Step: "worldpay_3ds_flex", Outcome: "succeeded", CorrelationID: correlationID})
	if h.notifier != nil {
		if err := h.notifier.NotifySetupComplete(r.Context(), id, "Your Worldpay 3DS Flex settings have been updated"); err != nil {
			glog.Warningf("[requestId=%s] failed to send notification - %v", correlationID, err)
		}
	}
	if err := h.sessions.SetFlash(SessionID(r), "Your Worldpay 3DS Flex settings have been updated"); err != nil {
		glog.Warningf("[requestId=%s] failed to set flash - %v", correlationID, err)
	}
	http.Redirect(w, r, pathYourPsp(id), http.StatusSeeOther)
}

func (h *Handler) redirectFlexWithErrors(w http.ResponseWriter, r *http.Request, id string, form validation.FormState, errs *validation.Errors) {
	recovered := flexRecovered{
		OrgUnitID: form[orgUnitIDField],
		Issuer:    form[issuerField],
		Errors:    errs.Messages(),
		Order:     errs.Fields(),
	}
	if err := h.sessions.SetPageData(SessionID(r), recoveredFlexKey, recovered); err != nil {
		glog.Warningf("[requestId=%s] failed to persist recovered flex state - %v", CorrelationID(r), err)
	}
	http.Redirect(w, r, pathFlex(id), http.StatusSeeOther)
}

// GetYourPsp renders the PSP overview page with any pending flash
// message.
func (h *Handler) GetYourPsp(w http.ResponseWriter, r *http.Request) {
	id := accountID(r)
	account, err := h.connector.GetAccount(r.Context(), id, CorrelationID(r))
	if err != nil {
		glog.Errorf("[requestId=%s] failed to get gateway account - %v", CorrelationID(r), err)
		h.render.RenderErrorView(w, "")
		return
	}
	flash, _ := h.sessions.ConsumeFlash(SessionID(r))
	h.render.Render(w, "your-psp/index", map[string]string{
		"Flash":           flash,
		"PaymentProvider": account.PaymentProvider,
		"FlexPath":        pathFlex(id),
	})
}
