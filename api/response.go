package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/cache-fest/festival-registration/ptr"
	"github.com/cache-fest/festival-registration/registration"
)

const maxBodyBytes = 8 << 20

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, Error{Code: code, Message: message})
}

func writeFile(w http.ResponseWriter, contentType string, fileName string, content []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// decodeBody reads a JSON body into v, writing the error response itself when it fails.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, EmptyBody, "Must specify a JSON body in the request")
		return false
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, InvalidBody, fmt.Sprintf("Invalid request body: %s", err))
		return false
	}
	return true
}

// errorToApiError maps a domain error to its HTTP status and response body.
func errorToApiError(err error) (int, Error) {
	var regErr *registration.Error
	if !errors.As(err, &regErr) {
		return http.StatusInternalServerError, Error{Code: InternalError, Message: "Internal server error"}
	}

	e := Error{Message: regErr.Message, Retryable: ptr.To(regErr.Retryable())}
	if regErr.Field != "" {
		e.Field = ptr.To(regErr.Field)
	}

	switch regErr.Reason {
	case registration.REASON_VALIDATION:
		e.Code = InputValidationError
		return http.StatusBadRequest, e
	case registration.REASON_CONFIGURATION:
		e.Code = ConfigurationError
		return http.StatusInternalServerError, e
	case registration.REASON_NETWORK:
		e.Code = NetworkError
		return http.StatusBadGateway, e
	case registration.REASON_DUPLICATE_REFERENCE:
		e.Code = DuplicateReference
		return http.StatusConflict, e
	case registration.REASON_VERIFICATION:
		e.Code = VerificationFailed
		return http.StatusUnprocessableEntity, e
	case registration.REASON_RENDER:
		e.Code = RenderFailed
		return http.StatusInternalServerError, e
	case registration.REASON_INVALID_TRANSITION:
		e.Code = InvalidState
		return http.StatusConflict, e
	case registration.REASON_FORM_BUSY:
		e.Code = FormBusy
		return http.StatusConflict, e
	case registration.REASON_REGISTRATION_DOES_NOT_EXIST:
		e.Code = NotFound
		return http.StatusNotFound, e
	case registration.REASON_INVALID_CURSOR:
		e.Code = InvalidCursor
		e.Message = "Passed in cursor is invalid"
		return http.StatusBadRequest, e
	case registration.REASON_TIMEOUT:
		e.Code = Timeout
		return http.StatusGatewayTimeout, e
	default:
		return http.StatusInternalServerError, Error{Code: InternalError, Message: "Internal server error"}
	}
}

func (a *API) writeDomainError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status, e := errorToApiError(err)

	logger := a.getLoggerOrBaseLogger(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error(msg, slog.String("error", err.Error()))
	} else {
		logger.Info(msg, slog.String("error", err.Error()))
	}

	writeJSON(w, status, e)
}
