// Package wizard holds the per step decision logic shared by the
// multi page setup flows. A step receives a validated form and the
// intent expressed by the submitted buttons and decides whether to
// re-render, move to the check your answers page, or commit to the
// external system of record.
package wizard

import (
	"context"

	"selfservice/internal/validation"
)

// Decision is the outcome of one wizard step submission.
type Decision int

const (
	// RenderErrors re-displays the form with per field messages.
	RenderErrors Decision = iota
	// RenderInput re-displays the form prefilled, after the user
	// said the answers need changing.
	RenderInput
	// RenderCheckAnswers shows the confirmation page for a valid
	// provisional submission.
	RenderCheckAnswers
	// Commit sends the validated answers to the external service.
	Commit
)

// Intent captures the buttons posted alongside the form fields.
type Intent struct {
	AnswersChecked      bool
	AnswersNeedChanging bool
}

// Decide maps the validation outcome and posted intent onto a
// Decision. Validation failures always win; a commit only happens on
// an explicit final confirmation.
func Decide(errs *validation.Errors, intent Intent) Decision {
	if !errs.Empty() {
		return RenderErrors
	}
	if intent.AnswersChecked {
		return Commit
	}
	if intent.AnswersNeedChanging {
		return RenderInput
	}
	return RenderCheckAnswers
}

// Progress mirrors the connector's record of which Stripe setup
// steps an account has completed. Flags only ever move from false to
// true, and only after the external call succeeded.
type Progress struct {
	BankAccount         bool `json:"bank_account"`
	ResponsiblePerson   bool `json:"responsible_person"`
	OrganisationDetails bool `json:"organisation_details"`
}

// Setup flag names understood by the connector.
const (
	FlagBankAccount         = "bank_account"
	FlagResponsiblePerson   = "responsible_person"
	FlagOrganisationDetails = "organisation_details"
)

// CommitFunc performs the single external call for a step.
type CommitFunc func(ctx context.Context) error

// RunCommit invokes fn exactly once. There is no retry and no
// idempotency key; a client side double submit therefore produces
// two external calls, which the suite documents rather than fixes.
func RunCommit(ctx context.Context, fn CommitFunc) error {
	return fn(ctx)
}
