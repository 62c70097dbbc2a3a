package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/golang/glog"

	"selfservice/internal/audit"
	"selfservice/internal/clients/stripeclient"
	"selfservice/internal/history"
	"selfservice/internal/validation"
	"selfservice/internal/wizard"
)

const (
	firstNameField           = "first-name"
	lastNameField            = "last-name"
	homeAddressLine1Field    = "home-address-line-1"
	homeAddressLine2Field    = "home-address-line-2"
	homeAddressCityField     = "home-address-city"
	homeAddressPostcodeField = "home-address-postcode"
	dobDayField              = "dob-day"
	dobMonthField            = "dob-month"
	dobYearField             = "dob-year"
)

var responsiblePersonSpecs = []validation.FieldSpec{
	{Name: firstNameField, Validator: validation.ValidateMandatoryField, MaxLength: 100},
	{Name: lastNameField, Validator: validation.ValidateMandatoryField, MaxLength: 100},
	{Name: homeAddressLine1Field, Validator: validation.ValidateMandatoryField, MaxLength: 200},
	{Name: homeAddressLine2Field, Validator: validation.ValidateOptionalField, MaxLength: 200},
	{Name: homeAddressCityField, Validator: validation.ValidateMandatoryField, MaxLength: 100},
	{Name: homeAddressPostcodeField, Validator: validation.ValidatePostcode},
}

type responsiblePersonPageData struct {
	FirstName           string
	LastName            string
	HomeAddressLine1    string
	HomeAddressLine2    string
	HomeAddressCity     string
	HomeAddressPostcode string
	DobDay              string
	DobMonth            string
	DobYear             string
	FriendlyDateOfBirth string
	Errors              map[string]string
	ErrorList           []FieldError
}

// GetResponsiblePerson renders the responsible person form.
func (h *Handler) GetResponsiblePerson(w http.ResponseWriter, r *http.Request) {
	id := accountID(r)
	progress, err := h.connector.GetStripeSetupProgress(r.Context(), id, CorrelationID(r))
	if err != nil {
		glog.Errorf("[requestId=%s] failed to get stripe setup progress - %v", CorrelationID(r), err)
		h.render.RenderErrorView(w, "")
		return
	}
	if progress.ResponsiblePerson {
		h.render.Render(w, "error-with-link", map[string]string{
			"Message":  "You've already nominated your responsible person.",
			"Link":     pathDashboard(id),
			"LinkText": "Back to dashboard",
		})
		return
	}
	h.render.Render(w, "stripe-setup/responsible-person/index", responsiblePersonPageData{})
}

// PostResponsiblePerson validates the submitted person, shows the
// check your answers page for a provisional submission, and on final
// confirmation creates the person with Stripe and records the setup
// flag.
func (h *Handler) PostResponsiblePerson(w http.ResponseWriter, r *http.Request) {
	id := accountID(r)
	correlationID := CorrelationID(r)

	form := validation.FormState{}
	for _, name := range []string{
		firstNameField, lastNameField,
		homeAddressLine1Field, homeAddressLine2Field,
		homeAddressCityField, homeAddressPostcodeField,
		dobDayField, dobMonthField, dobYearField,
	} {
		form[name] = trimField(r, name)
	}

	errs := validation.ValidateForm(form, responsiblePersonSpecs,
		validation.DateOfBirthValidator(dobDayField, dobMonthField, dobYearField))

	pageData := responsiblePersonPageData{
		FirstName:           form[firstNameField],
		LastName:            form[lastNameField],
		HomeAddressLine1:    form[homeAddressLine1Field],
		HomeAddressLine2:    form[homeAddressLine2Field],
		HomeAddressCity:     form[homeAddressCityField],
		HomeAddressPostcode: form[homeAddressPostcodeField],
		DobDay:              form[dobDayField],
		DobMonth:            form[dobMonthField],
		DobYear:             form[dobYearField],
	}

	switch wizard.Decide(errs, intentFrom(r)) {
	case wizard.RenderErrors:
		pageData.Errors = errs.Messages()
		pageData.ErrorList = errorList(errs)
		h.render.Render(w, "stripe-setup/responsible-person/index", pageData)

	case wizard.RenderInput:
		pageData.HomeAddressPostcode = validation.NormalisePostcode(form[homeAddressPostcodeField])
		h.render.Render(w, "stripe-setup/responsible-person/index", pageData)

	case wizard.RenderCheckAnswers:
		pageData.HomeAddressPostcode = validation.NormalisePostcode(form[homeAddressPostcodeField])
		pageData.FriendlyDateOfBirth = validation.FormatDateOfBirth(form[dobDayField], form[dobMonthField], form[dobYearField])
		h.render.Render(w, "stripe-setup/responsible-person/check-your-answers", pageData)

	case wizard.Commit:
		h.commitResponsiblePerson(w, r, id, form, correlationID)
	}
}

func (h *Handler) commitResponsiblePerson(w http.ResponseWriter, r *http.Request, id string, form validation.FormState, correlationID string) {
	account, err := h.connector.GetAccount(r.Context(), id, correlationID)
	if err != nil {
		glog.Errorf("[requestId=%s] failed to get gateway account - %v", correlationID, err)
		h.render.RenderErrorView(w, retryMessage)
		return
	}

	commit := func(ctx context.Context) error {
		if err := h.stripe.CreatePerson(ctx, account.StripeAccountID, buildStripePerson(form)); err != nil {
			return err
		}
		return h.connector.SetStripeAccountSetupFlag(ctx, id, wizard.FlagResponsiblePerson, correlationID)
	}

	if err := wizard.RunCommit(r.Context(), commit); err != nil {
		glog.Errorf("[requestId=%s] Error creating responsible person with Stripe - %v", correlationID, err)
		h.recordCommit(id, "responsible_person", history.OutcomeFailed, err.Error(), correlationID)
		h.render.RenderErrorView(w, retryMessage)
		return
	}

	h.recordCommit(id, "responsible_person", history.OutcomeSucceeded, "", correlationID)
	h.publishAudit(audit.Event{AccountID: id, Step: "responsible_person", Outcome: "succeeded", CorrelationID: correlationID})
	if h.notifier != nil {
		if err := h.notifier.NotifySetupComplete(r.Context(), id, "Your responsible person details have been submitted"); err != nil {
			glog.Warningf("[requestId=%s] failed to send notification - %v", correlationID, err)
		}
	}
	http.Redirect(w, r, pathDashboard(id), http.StatusSeeOther)
}

func buildStripePerson(form validation.FormState) stripeclient.Person {
	day, _ := strconv.Atoi(form[dobDayField])
	month, _ := strconv.Atoi(form[dobMonthField])
	year, _ := strconv.Atoi(form[dobYearField])
	return stripeclient.Person{
		FirstName:       form[firstNameField],
		LastName:        form[lastNameField],
		AddressLine1:    form[homeAddressLine1Field],
		AddressLine2:    form[homeAddressLine2Field],
		AddressCity:     form[homeAddressCityField],
		AddressPostcode: validation.NormalisePostcode(form[homeAddressPostcodeField]),
		DobDay:          day,
		DobMonth:        month,
		DobYear:         year,
	}
}
