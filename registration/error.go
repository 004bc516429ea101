package registration

import "fmt"

type ErrorReason string

const (
	REASON_VALIDATION                  ErrorReason = "VALIDATION"
	REASON_CONFIGURATION               ErrorReason = "CONFIGURATION"
	REASON_NETWORK                     ErrorReason = "NETWORK"
	REASON_DUPLICATE_REFERENCE         ErrorReason = "DUPLICATE_REFERENCE"
	REASON_VERIFICATION                ErrorReason = "VERIFICATION"
	REASON_RENDER                      ErrorReason = "RENDER"
	REASON_INVALID_TRANSITION          ErrorReason = "INVALID_TRANSITION"
	REASON_FORM_BUSY                   ErrorReason = "FORM_BUSY"
	REASON_FAILED_TO_TRANSLATE_TO_DB   ErrorReason = "FAILED_TO_TRANSLATE_TO_DB_MODEL"
	REASON_FAILED_TO_WRITE             ErrorReason = "FAILED_TO_WRITE"
	REASON_FAILED_TO_FETCH             ErrorReason = "FAILED_TO_FETCH"
	REASON_REGISTRATION_DOES_NOT_EXIST ErrorReason = "REGISTRATION_DOES_NOT_EXIST"
	REASON_INVALID_CURSOR              ErrorReason = "INVALID_CURSOR"
	REASON_TIMEOUT                     ErrorReason = "TIMEOUT"
)

type Error struct {
	Reason  ErrorReason
	Message string
	// Field names the offending form field for validation errors.
	Field string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the user can fix the problem without a redeploy.
func (e *Error) Retryable() bool {
	switch e.Reason {
	case REASON_CONFIGURATION, REASON_INVALID_TRANSITION:
		return false
	default:
		return true
	}
}

func newRegistrationError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewValidationError(field string, message string) *Error {
	err := newRegistrationError(REASON_VALIDATION, message, nil)
	err.Field = field
	return err
}

func NewConfigurationError(message string) *Error {
	return newRegistrationError(REASON_CONFIGURATION, message, nil)
}

func NewNetworkError(message string, cause error) *Error {
	return newRegistrationError(REASON_NETWORK, message, cause)
}

func NewDuplicateReferenceError(reference string, cause error) *Error {
	return newRegistrationError(REASON_DUPLICATE_REFERENCE, fmt.Sprintf("UTR %q has already been used", reference), cause)
}

func NewVerificationError(message string, cause error) *Error {
	return newRegistrationError(REASON_VERIFICATION, message, cause)
}

func NewRenderError(message string, cause error) *Error {
	return newRegistrationError(REASON_RENDER, message, cause)
}

func NewInvalidTransitionError(from State, action Action) *Error {
	return newRegistrationError(REASON_INVALID_TRANSITION, fmt.Sprintf("Cannot %s while the form is %s", action.name(), from), nil)
}

func NewFormBusyError() *Error {
	return newRegistrationError(REASON_FORM_BUSY, "Registration is being submitted, wait for it to finish", nil)
}

func NewFailedToTranslateToDBModelError(message string, cause error) *Error {
	return newRegistrationError(REASON_FAILED_TO_TRANSLATE_TO_DB, message, cause)
}

func NewFailedToWriteError(message string, cause error) *Error {
	return newRegistrationError(REASON_FAILED_TO_WRITE, message, cause)
}

func NewFailedToFetchError(message string, cause error) *Error {
	return newRegistrationError(REASON_FAILED_TO_FETCH, message, cause)
}

func NewRegistrationDoesNotExistsError(message string, cause error) *Error {
	return newRegistrationError(REASON_REGISTRATION_DOES_NOT_EXIST, message, cause)
}

func NewInvalidCursorError(message string, cause error) *Error {
	return newRegistrationError(REASON_INVALID_CURSOR, message, cause)
}

func NewTimeoutError(message string) *Error {
	return newRegistrationError(REASON_TIMEOUT, message, nil)
}
