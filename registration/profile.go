package registration

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	gmailPattern     = regexp.MustCompile(`(?i)^[a-z0-9._%+-]+@gmail\.com$`)
	phonePattern     = regexp.MustCompile(`^\d{10}$`)
	referencePattern = regexp.MustCompile(`^\d{12}$`)
)

// Profile is the registrant's personal information.
type Profile struct {
	FullName string `validate:"required"`
	Email    string `validate:"required,gmail"`
	Phone    string `validate:"required,phone10"`
	College  string `validate:"required"`
	RollNo   string `validate:"required"`
	Section  string `validate:"required"`
}

// Trimmed returns the profile with surrounding whitespace removed from every field.
func (p Profile) Trimmed() Profile {
	return Profile{
		FullName: strings.TrimSpace(p.FullName),
		Email:    strings.TrimSpace(p.Email),
		Phone:    strings.TrimSpace(p.Phone),
		College:  strings.TrimSpace(p.College),
		RollNo:   strings.TrimSpace(p.RollNo),
		Section:  strings.TrimSpace(p.Section),
	}
}

var profileValidator = newProfileValidator()

func newProfileValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v, "gmail", func(fl validator.FieldLevel) bool {
		return gmailPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "phone10", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("failed to register validation " + tag + ": " + err.Error())
	}
}

var fieldMessages = map[string]map[string]string{
	"FullName": {"required": "Please enter your full name"},
	"Email":    {"required": "Please enter your email address", "gmail": "Email must end with gmail.com"},
	"Phone":    {"required": "Please enter your phone number", "phone10": "Phone number must be exactly 10 digits"},
	"College":  {"required": "Please enter your college name"},
	"RollNo":   {"required": "Please enter your roll number"},
	"Section":  {"required": "Please enter your section"},
}

// ValidateProfile reports the first invalid field, in form order.
func ValidateProfile(p Profile) error {
	err := profileValidator.Struct(p.Trimmed())
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return NewValidationError("", "Profile is invalid")
	}

	first := validationErrs[0]
	message, ok := fieldMessages[first.Field()][first.Tag()]
	if !ok {
		message = first.Field() + " is invalid"
	}
	return NewValidationError(first.Field(), message)
}

// ValidateReference accepts exactly twelve ASCII digits.
func ValidateReference(reference string) error {
	if strings.TrimSpace(reference) == "" {
		return NewValidationError("UpiTxnID", "Please enter your 12-digit UTR ID")
	}
	if !referencePattern.MatchString(reference) {
		return NewValidationError("UpiTxnID", "UTR ID must be exactly 12 digits")
	}
	return nil
}
