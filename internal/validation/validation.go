package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

// Result is the verdict of a single field validator. Message is set
// only when the value is not valid.
type Result struct {
	Valid   bool
	Message string
}

var okResult = Result{Valid: true}

func invalid(message string) Result {
	return Result{Valid: false, Message: message}
}

const (
	blankMessage         = "This field cannot be blank"
	accountNumberMessage = "Enter a valid account number"
	sortCodeMessage      = "Enter a valid sort code"
	postcodeMessage      = "Enter a real postcode"
	orgUnitIDMessage     = "Enter your organisational unit ID in the format you received it"
	issuerMessage        = "Enter your issuer in the format you received it"
	jwtMacKeyMessage     = "Enter your JWT MAC key in the format you received it"
	emailMessage         = "Enter a valid email address"
	telephoneMessage     = "Enter a telephone number, like 01632 960 001, 07700 900 982 or +44 0808 157 0192"
)

var (
	accountNumberPattern = regexp.MustCompile(`^[0-9]{8}$`)
	sortCodePattern      = regexp.MustCompile(`^[0-9]{6}$`)
	hex24Pattern         = regexp.MustCompile(`^[0-9a-f]{24}$`)
	uuidPattern          = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	postcodePattern      = regexp.MustCompile(`^[A-Z]{1,2}[0-9][0-9A-Z]?\s*[0-9][A-Z]{2}$`)
	emailPattern         = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Validator is the shape every field validator shares. maxLength is
// optional; validators that have no length limit ignore it.
type Validator func(value string, maxLength ...int) Result

// ValidateMandatoryField rejects blank values and values over the
// optional maximum length.
func ValidateMandatoryField(value string, maxLength ...int) Result {
	if strings.TrimSpace(value) == "" {
		return invalid(blankMessage)
	}
	return checkLength(value, maxLength)
}

// ValidateOptionalField accepts blank values without running any
// further checks.
func ValidateOptionalField(value string, maxLength ...int) Result {
	if strings.TrimSpace(value) == "" {
		return okResult
	}
	return checkLength(value, maxLength)
}

func checkLength(value string, maxLength []int) Result {
	if len(maxLength) > 0 && len(value) > maxLength[0] {
		return invalid(fmt.Sprintf("The text must be %d characters or fewer", maxLength[0]))
	}
	return okResult
}

// ValidateAccountNumber accepts an 8 digit UK bank account number.
func ValidateAccountNumber(value string, maxLength ...int) Result {
	if strings.TrimSpace(value) == "" {
		return invalid(blankMessage)
	}
	if !accountNumberPattern.MatchString(value) {
		return invalid(accountNumberMessage)
	}
	return okResult
}

// ValidateSortCode accepts a 6 digit UK sort code.
func ValidateSortCode(value string, maxLength ...int) Result {
	if strings.TrimSpace(value) == "" {
		return invalid(blankMessage)
	}
	if !sortCodePattern.MatchString(value) {
		return invalid(sortCodeMessage)
	}
	return okResult
}

// ValidatePostcode accepts a UK postcode.
func ValidatePostcode(value string, maxLength ...int) Result {
	if strings.TrimSpace(value) == "" {
		return invalid(blankMessage)
	}
	if !postcodePattern.MatchString(normalisePostcodeInput(value)) {
		return invalid(postcodeMessage)
	}
	return okResult
}

// NormalisePostcode formats a valid postcode for display, upper case
// with a single space before the inward code. Invalid input is
// returned trimmed and upper cased.
func NormalisePostcode(value string) string {
	compact := normalisePostcodeInput(value)
	compact = strings.ReplaceAll(compact, " ", "")
	if len(compact) < 5 {
		return compact
	}
	return compact[:len(compact)-3] + " " + compact[len(compact)-3:]
}

func normalisePostcodeInput(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// ValidateOrgUnitID accepts a Worldpay organisational unit ID, a 24
// character lower case hex string.
func ValidateOrgUnitID(value string, maxLength ...int) Result {
	if strings.TrimSpace(value) == "" {
		return invalid(blankMessage)
	}
	if !hex24Pattern.MatchString(value) {
		return invalid(orgUnitIDMessage)
	}
	return okResult
}

// ValidateIssuer accepts a Worldpay issuer, same shape as the
// organisational unit ID.
func ValidateIssuer(value string, maxLength ...int) Result {
	if strings.TrimSpace(value) == "" {
		return invalid(blankMessage)
	}
	if !hex24Pattern.MatchString(value) {
		return invalid(issuerMessage)
	}
	return okResult
}

// ValidateJwtMacKey accepts a Worldpay JWT MAC key, a UUID shaped
// string.
func ValidateJwtMacKey(value string, maxLength ...int) Result {
	if strings.TrimSpace(value) == "" {
		return invalid(blankMessage)
	}
	if !uuidPattern.MatchString(strings.ToLower(value)) {
		return invalid(jwtMacKeyMessage)
	}
	return okResult
}

// ValidateEmail accepts a syntactically plausible email address.
// Whether the address is a public sector one is decided upstream by
// adminusers, not here.
func ValidateEmail(value string, maxLength ...int) Result {
	if strings.TrimSpace(value) == "" {
		return invalid(blankMessage)
	}
	if r := checkLength(value, maxLength); !r.Valid {
		return r
	}
	if !emailPattern.MatchString(value) {
		return invalid(emailMessage)
	}
	return okResult
}

// ValidateTelephoneNumber accepts a plausible GB telephone number.
func ValidateTelephoneNumber(value string, maxLength ...int) Result {
	if strings.TrimSpace(value) == "" {
		return invalid(blankMessage)
	}
	num, err := phonenumbers.Parse(value, "GB")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return invalid(telephoneMessage)
	}
	return okResult
}

// ValidatePassword accepts passwords of at least 10 characters.
func ValidatePassword(value string, maxLength ...int) Result {
	if value == "" {
		return invalid(blankMessage)
	}
	if len(value) < 10 {
		return invalid("Password must be 10 characters or more")
	}
	return okResult
}

const (
	minResponsiblePersonAge = 18
	maxResponsiblePersonAge = 100
)

// ValidateDateOfBirth validates the three date of birth parts as a
// unit. The parts must form a real calendar date in the past and the
// resulting age must fall in the accepted adult range.
func ValidateDateOfBirth(day, month, year string) Result {
	if strings.TrimSpace(day) == "" || strings.TrimSpace(month) == "" || strings.TrimSpace(year) == "" {
		return invalid("Enter the date of birth")
	}

	d, errD := strconv.Atoi(strings.TrimSpace(day))
	m, errM := strconv.Atoi(strings.TrimSpace(month))
	y, errY := strconv.Atoi(strings.TrimSpace(year))
	if errD != nil || errM != nil || errY != nil || y < 1000 || y > 9999 {
		return invalid("Enter a real date of birth")
	}

	dob := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if dob.Year() != y || dob.Month() != time.Month(m) || dob.Day() != d {
		return invalid("Enter a real date of birth")
	}

	now := time.Now().UTC()
	if dob.After(now) {
		return invalid("Enter a date of birth in the past")
	}

	age := yearsBetween(dob, now)
	if age < minResponsiblePersonAge || age > maxResponsiblePersonAge {
		return invalid("Enter a valid date of birth")
	}
	return okResult
}

func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	anniversary := from.AddDate(years, 0, 0)
	if anniversary.After(to) {
		years--
	}
	return years
}

// FormatDateOfBirth renders already validated date parts for the
// check your answers page, e.g. "2 January 1980".
func FormatDateOfBirth(day, month, year string) string {
	d, _ := strconv.Atoi(strings.TrimSpace(day))
	m, _ := strconv.Atoi(strings.TrimSpace(month))
	y, _ := strconv.Atoi(strings.TrimSpace(year))
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return t.Format("2 January 2006")
}
