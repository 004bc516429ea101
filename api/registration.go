package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/cache-fest/festival-registration/ptr"
	"github.com/cache-fest/festival-registration/registration"
	"github.com/cache-fest/festival-registration/slices"
)

const (
	defaultListLimit = 10
	maxListLimit     = 50
)

func (a *API) getRegistrations(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit

	query := r.URL.Query()
	if raw := query.Get("limit"); raw != "" {
		userLimit, err := strconv.Atoi(raw)
		if err != nil || userLimit < 1 || userLimit > maxListLimit {
			writeError(w, http.StatusBadRequest, LimitOutOfBounds, "Limit must be between 1 and 50")
			return
		}
		limit = userLimit
	}

	var cursor *string
	if raw := query.Get("cursor"); raw != "" {
		cursor = ptr.String(raw)
	}

	result, err := a.deps.Registrations.ListRegistrations(r.Context(), int32(limit), cursor)
	if err != nil {
		a.writeDomainError(w, r, "Failed to get registrations", err)
		return
	}

	writeJSON(w, http.StatusOK, RegistrationPage{
		Data:        slices.Map(result.Data, registrationToApiSummary),
		Cursor:      result.Cursor,
		HasNextPage: result.HasNextPage,
	})
}

// getRegistrationReceipt renders the ticket again, stamped with the time of this download. The
// caller proves ownership with the UTR of the payment; unknown references and wrong UTRs get the
// same 404.
func (a *API) getRegistrationReceipt(w http.ResponseWriter, r *http.Request) {
	reg, err := a.deps.Registrations.GetRegistration(r.Context(), r.PathValue("transactionRef"))
	if err != nil {
		var regErr *registration.Error
		if !errors.As(err, &regErr) || regErr.Reason != registration.REASON_REGISTRATION_DOES_NOT_EXIST {
			a.writeDomainError(w, r, "Failed to get registration", err)
			return
		}
	}

	upiTxnID := r.URL.Query().Get("upiTxnId")
	if err != nil || subtle.ConstantTimeCompare([]byte(reg.UpiTxnID), []byte(upiTxnID)) != 1 {
		writeError(w, http.StatusNotFound, NotFound, "No registration matches this transaction reference and UTR")
		return
	}

	reg.TicketDownloadTime = a.now()

	receipt, err := a.deps.Receipts.RenderReceipt(reg)
	if err != nil {
		a.writeDomainError(w, r, "Failed to render receipt", err)
		return
	}

	writeFile(w, "application/pdf", receipt.FileName, receipt.Content)
}
