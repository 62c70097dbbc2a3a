package controllers

import (
	"net/http"

	"github.com/golang/glog"

	"selfservice/internal/clients/adminusers"
	"selfservice/internal/validation"
)

const (
	emailField     = "email"
	telephoneField = "telephone-number"
	passwordField  = "password"
)

const recoveredRegistrationKey = "submitRegistration"

var registrationSpecs = []validation.FieldSpec{
	{Name: emailField, Validator: validation.ValidateEmail, MaxLength: 254},
	{Name: telephoneField, Validator: validation.ValidateTelephoneNumber},
	{Name: passwordField, Validator: validation.ValidatePassword},
}

// registrationRecovered is the session persisted state after a
// failed registration submit. The password is never persisted.
type registrationRecovered struct {
	Email           string            `json:"email"`
	TelephoneNumber string            `json:"telephoneNumber"`
	Errors          map[string]string `json:"errors"`
	Order           []string          `json:"order"`
}

type registrationPageData struct {
	Email           string
	TelephoneNumber string
	Errors          map[string]string
	ErrorList       []FieldError
}

// GetRegister renders the registration form, restoring recovered
// state from a previous failed submission.
func (h *Handler) GetRegister(w http.ResponseWriter, r *http.Request) {
	var recovered registrationRecovered
	found, err := h.sessions.GetPageData(SessionID(r), recoveredRegistrationKey, &recovered)
	if err != nil {
		glog.Warningf("[requestId=%s] failed to read recovered registration state - %v", CorrelationID(r), err)
	}

	pageData := registrationPageData{}
	if found {
		pageData.Email = recovered.Email
		pageData.TelephoneNumber = recovered.TelephoneNumber
		pageData.Errors = recovered.Errors
		for _, field := range recovered.Order {
			pageData.ErrorList = append(pageData.ErrorList, FieldError{Field: field, Message: recovered.Errors[field]})
		}
	}
	h.render.Render(w, "registration/register", pageData)
}

// PostRegister validates the registration form and submits it to
// adminusers. A 403 means the email is not a public sector address;
// a 409 means the invite already exists and the flow proceeds to the
// confirmation page as if it were new.
func (h *Handler) PostRegister(w http.ResponseWriter, r *http.Request) {
	correlationID := CorrelationID(r)

	form := validation.FormState{
		emailField:     trimField(r, emailField),
		telephoneField: trimField(r, telephoneField),
		passwordField:  r.PostFormValue(passwordField),
	}

	errs := validation.ValidateForm(form, registrationSpecs)
	if !errs.Empty() {
		h.redirectRegisterWithErrors(w, r, form, errs)
		return
	}

	err := h.adminusers.SubmitRegistration(r.Context(), adminusers.Registration{
		Email:           form[emailField],
		TelephoneNumber: form[telephoneField],
		Password:        form[passwordField],
	}, correlationID)

	if err != nil {
		apiErr, ok := err.(*adminusers.APIError)
		switch {
		case ok && apiErr.StatusCode == http.StatusForbidden:
			rejected := validation.NewErrors()
			rejected.Add(emailField, "Enter a public sector email address")
			h.redirectRegisterWithErrors(w, r, form, rejected)
			return
		case ok && apiErr.StatusCode == http.StatusConflict:
			// An invite already exists for this email; carry on so
			// the response does not reveal which addresses are
			// registered.
		default:
			glog.Errorf("[requestId=%s] Error submitting registration to adminusers - %v", correlationID, err)
			h.render.RenderErrorView(w, "")
			return
		}
	}

	http.Redirect(w, r, pathRegisterConfirm, http.StatusSeeOther)
}

// GetRegisterConfirm renders the check your email page.
func (h *Handler) GetRegisterConfirm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, "registration/confirm", nil)
}

func (h *Handler) redirectRegisterWithErrors(w http.ResponseWriter, r *http.Request, form validation.FormState, errs *validation.Errors) {
	recovered := registrationRecovered{
		Email:           form[emailField],
		TelephoneNumber: form[telephoneField],
		Errors:          errs.Messages(),
		Order:           errs.Fields(),
	}
	if err := h.sessions.SetPageData(SessionID(r), recoveredRegistrationKey, recovered); err != nil {
		glog.Warningf("[requestId=%s] failed to persist recovered registration state - %v", CorrelationID(r), err)
	}
	http.Redirect(w, r, pathRegister, http.StatusSeeOther)
}
