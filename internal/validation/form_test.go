package validation

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

var bankSpecs = []FieldSpec{
	{Name: "sort-code", Validator: ValidateSortCode},
	{Name: "account-number", Validator: ValidateAccountNumber},
}

func TestValidateFormCollectsErrorsInDeclarationOrder(t *testing.T) {
	form := FormState{
		"sort-code":      "not-a-sort-code",
		"account-number": "not-an-account-number",
	}

	errs := ValidateForm(form, bankSpecs)

	assert.Equal(t, 2, errs.Len())
	assert.DeepEqual(t, []string{"sort-code", "account-number"}, errs.Fields())
	assert.Equal(t, "Enter a valid sort code", errs.Get("sort-code"))
	assert.Equal(t, "Enter a valid account number", errs.Get("account-number"))
}

func TestValidateFormValidSubmission(t *testing.T) {
	form := FormState{
		"sort-code":      "108800",
		"account-number": "00012345",
	}

	errs := ValidateForm(form, bankSpecs)

	assert.Assert(t, errs.Empty())
	assert.Equal(t, 0, errs.Len())
}

func TestValidateFormIsIdempotent(t *testing.T) {
	form := FormState{
		"sort-code":      "abcdef",
		"account-number": "00012345",
	}

	first := ValidateForm(form, bankSpecs)
	second := ValidateForm(form, bankSpecs)

	assert.DeepEqual(t, first.Fields(), second.Fields())
	assert.DeepEqual(t, first.Messages(), second.Messages())
}

func TestValidateFormMissingFieldTreatedAsBlank(t *testing.T) {
	errs := ValidateForm(FormState{}, bankSpecs)

	assert.Equal(t, 2, errs.Len())
	assert.Equal(t, "This field cannot be blank", errs.Get("sort-code"))
}

func TestValidateFormCrossFieldValidator(t *testing.T) {
	specs := []FieldSpec{
		{Name: "first-name", Validator: ValidateMandatoryField, MaxLength: 100},
	}
	form := FormState{
		"first-name": "Jane",
		"dob-day":    "29",
		"dob-month":  "2",
		"dob-year":   "1999",
	}

	errs := ValidateForm(form, specs, DateOfBirthValidator("dob-day", "dob-month", "dob-year"))

	assert.Equal(t, 1, errs.Len())
	assert.Equal(t, "Enter a real date of birth", errs.Get("dob"))
}

func TestErrorsFirstMessagePerFieldWins(t *testing.T) {
	errs := NewErrors()
	errs.Add("email", "first message")
	errs.Add("email", "second message")

	assert.Equal(t, 1, errs.Len())
	assert.Equal(t, "first message", errs.Get("email"))
}

func TestErrorsMessagesIsACopy(t *testing.T) {
	errs := NewErrors()
	errs.Add("email", "message")

	m := errs.Messages()
	m["email"] = "mutated"

	assert.Equal(t, "message", errs.Get("email"))
	assert.Assert(t, is.Len(errs.Fields(), 1))
}
