package validation

// FieldSpec declares how one form field is validated. Specs are
// defined once per wizard step and never mutated.
type FieldSpec struct {
	Name      string
	Validator Validator
	MaxLength int
}

// FormState maps field names to trimmed submitted values for one
// request.
type FormState map[string]string

// Errors collects per field validation messages. Insertion order is
// preserved so the page can display errors in field declaration
// order rather than map order.
type Errors struct {
	messages map[string]string
	order    []string
}

// NewErrors returns an empty error collection.
func NewErrors() *Errors {
	return &Errors{messages: make(map[string]string)}
}

// Add records a message for a field. The first message per field
// wins.
func (e *Errors) Add(field, message string) {
	if _, exists := e.messages[field]; exists {
		return
	}
	e.messages[field] = message
	e.order = append(e.order, field)
}

// Get returns the message for a field, or the empty string.
func (e *Errors) Get(field string) string {
	return e.messages[field]
}

// Fields returns the failed field names in declaration order.
func (e *Errors) Fields() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Empty reports whether the submission passed validation.
func (e *Errors) Empty() bool {
	return len(e.order) == 0
}

// Len returns the number of failed fields.
func (e *Errors) Len() int {
	return len(e.order)
}

// Messages returns a plain field to message map for rendering.
func (e *Errors) Messages() map[string]string {
	out := make(map[string]string, len(e.messages))
	for k, v := range e.messages {
		out[k] = v
	}
	return out
}

// CrossFieldValidator validates a combination of fields as a unit,
// for example the three date of birth parts. It returns the field
// name the error is keyed under and the result.
type CrossFieldValidator func(form FormState) (string, Result)

// ValidateForm runs every field spec against the form followed by
// any cross field validators, collecting failures in declaration
// order. It performs no I/O and is idempotent for a given form.
func ValidateForm(form FormState, specs []FieldSpec, crossField ...CrossFieldValidator) *Errors {
	errs := NewErrors()
	for _, spec := range specs {
		var result Result
		if spec.MaxLength > 0 {
			result = spec.Validator(form[spec.Name], spec.MaxLength)
		} else {
			result = spec.Validator(form[spec.Name])
		}
		if !result.Valid {
			errs.Add(spec.Name, result.Message)
		}
	}
	for _, validate := range crossField {
		if field, result := validate(form); !result.Valid {
			errs.Add(field, result.Message)
		}
	}
	return errs
}

// DateOfBirthValidator adapts ValidateDateOfBirth to a cross field
// validator keyed under "dob".
func DateOfBirthValidator(dayField, monthField, yearField string) CrossFieldValidator {
	return func(form FormState) (string, Result) {
		return "dob", ValidateDateOfBirth(form[dayField], form[monthField], form[yearField])
	}
}
