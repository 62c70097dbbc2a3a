package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"selfservice/internal/clients/stripeclient"
	"selfservice/internal/history"
)

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) NotifySetupComplete(ctx context.Context, accountID, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

func validPersonForm() url.Values {
	return url.Values{
		"first-name":            {"Jane"},
		"last-name":             {"Doe"},
		"home-address-line-1":   {"1 Street"},
		"home-address-city":     {"London"},
		"home-address-postcode": {"ec1n2td"},
		"dob-day":               {"2"},
		"dob-month":             {"1"},
		"dob-year":              {"1980"},
	}
}

func TestPostResponsiblePersonValidationFailure(t *testing.T) {
	env := newTestEnv(t)

	form := validPersonForm()
	form.Set("first-name", "")
	form.Set("dob-month", "13")
	rec := httptest.NewRecorder()
	env.handler.PostResponsiblePerson(rec, newPost("/account/42/stripe/responsible-person", form))

	body := rec.Body.String()
	assert.Assert(t, strings.Contains(body, "This field cannot be blank"))
	assert.Assert(t, strings.Contains(body, "Enter a real date of birth"))
	assert.Equal(t, 0, env.stripe.createPersonCalls)
}

func TestPostResponsiblePersonCheckYourAnswers(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.PostResponsiblePerson(rec, newPost("/account/42/stripe/responsible-person", validPersonForm()))

	body := rec.Body.String()
	// postcode is normalised and the date shown in friendly form
	assert.Assert(t, strings.Contains(body, "EC1N 2TD"))
	assert.Assert(t, strings.Contains(body, "2 January 1980"))
	assert.Equal(t, 0, env.stripe.createPersonCalls)
}

func TestPostResponsiblePersonCommit(t *testing.T) {
	env := newTestEnv(t)
	notifier := &fakeNotifier{}
	env.handler.notifier = notifier

	form := validPersonForm()
	form.Set("answers-checked", "true")
	rec := httptest.NewRecorder()
	env.handler.PostResponsiblePerson(rec, newPost("/account/42/stripe/responsible-person", form))

	assertRedirect(t, rec, "/account/42/dashboard")
	assert.Equal(t, 1, env.stripe.createPersonCalls)
	assert.DeepEqual(t, []string{"responsible_person"}, env.connector.setFlagCalls)

	person := env.stripe.lastPerson
	assert.Equal(t, "Jane", person.FirstName)
	assert.Equal(t, "EC1N 2TD", person.AddressPostcode)
	assert.Equal(t, 2, person.DobDay)
	assert.Equal(t, 1, person.DobMonth)
	assert.Equal(t, 1980, person.DobYear)

	assert.DeepEqual(t, []string{"Your responsible person details have been submitted"}, notifier.messages)
}

func TestPostResponsiblePersonStripeFailure(t *testing.T) {
	env := newTestEnv(t)
	env.stripe.createPersonErr = &stripeclient.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}

	form := validPersonForm()
	form.Set("answers-checked", "true")
	rec := httptest.NewRecorder()
	env.handler.PostResponsiblePerson(rec, newPost("/account/42/stripe/responsible-person", form))

	assert.Assert(t, strings.Contains(rec.Body.String(), "Please try again or contact support team"))
	assert.Equal(t, 0, len(env.connector.setFlagCalls))
	assert.Equal(t, history.OutcomeFailed, env.history.records[0].Outcome)
}
