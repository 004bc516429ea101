package api

import (
	"net/http"

	"github.com/cache-fest/festival-registration/registration"
	"github.com/cache-fest/festival-registration/slices"
	"github.com/cache-fest/festival-registration/upi"
	"github.com/google/uuid"
)

func (a *API) postForms(w http.ResponseWriter, r *http.Request) {
	c := registration.NewController(a.cfg.Form, a.deps)

	form := c.Snapshot()
	if event := r.URL.Query().Get("event"); event != "" {
		preselected := slices.Filter([]string{event}, a.deps.Catalog.Contains)
		if len(preselected) > 0 {
			form, _ = c.SetEvents(preselected)
		}
	}

	id := a.sessions.create(c)
	a.getLoggerOrBaseLogger(r.Context()).Info("Created registration form", "form-id", id.String())

	writeJSON(w, http.StatusCreated, a.formResponse(id, form))
}

func (a *API) getForm(w http.ResponseWriter, r *http.Request) {
	id, c, ok := a.formFromRequest(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, a.formResponse(id, c.Snapshot()))
}

func (a *API) putFormProfile(w http.ResponseWriter, r *http.Request) {
	id, c, ok := a.formFromRequest(w, r)
	if !ok {
		return
	}

	var body Profile
	if !decodeBody(w, r, &body) {
		return
	}

	form, err := c.UpdateProfile(apiProfileToProfile(body))
	if err != nil {
		a.writeDomainError(w, r, "Failed to update profile", err)
		return
	}

	writeJSON(w, http.StatusOK, a.formResponse(id, form))
}

func (a *API) putFormEvents(w http.ResponseWriter, r *http.Request) {
	id, c, ok := a.formFromRequest(w, r)
	if !ok {
		return
	}

	var body EventSelection
	if !decodeBody(w, r, &body) {
		return
	}

	form, err := c.SetEvents(body.EventIds)
	if err != nil {
		a.writeDomainError(w, r, "Failed to update selected events", err)
		return
	}

	writeJSON(w, http.StatusOK, a.formResponse(id, form))
}

func (a *API) postFormEventToggle(w http.ResponseWriter, r *http.Request) {
	id, c, ok := a.formFromRequest(w, r)
	if !ok {
		return
	}

	form, err := c.ToggleEvent(r.PathValue("eventId"))
	if err != nil {
		a.writeDomainError(w, r, "Failed to toggle event", err)
		return
	}

	writeJSON(w, http.StatusOK, a.formResponse(id, form))
}

func (a *API) postFormReset(w http.ResponseWriter, r *http.Request) {
	id, c, ok := a.formFromRequest(w, r)
	if !ok {
		return
	}

	form, err := c.Reset()
	if err != nil {
		a.writeDomainError(w, r, "Failed to reset form", err)
		return
	}

	writeJSON(w, http.StatusOK, a.formResponse(id, form))
}

func (a *API) postFormPayment(w http.ResponseWriter, r *http.Request) {
	_, c, ok := a.formFromRequest(w, r)
	if !ok {
		return
	}

	intent, err := c.RequestPayment(r.Context())
	if err != nil {
		a.writeDomainError(w, r, "Failed to request payment", err)
		return
	}

	img := a.qr.Render(intent.URLs[string(upi.GENERIC)], intent.Total)
	platform := upi.DetectPlatform(r.UserAgent())

	writeJSON(w, http.StatusOK, intentToApiPayment(intent, platform, &img))
}

func (a *API) getFormPaymentQR(w http.ResponseWriter, r *http.Request) {
	_, c, ok := a.formFromRequest(w, r)
	if !ok {
		return
	}

	form := c.Snapshot()
	if form.Payment == nil {
		writeError(w, http.StatusConflict, InvalidState, "No payment has been requested for this form")
		return
	}

	img := a.qr.Render(form.Payment.URLs[string(upi.GENERIC)], form.Payment.Total)
	writeFile(w, "image/png", img.FileName, img.PNG)
}

func (a *API) postFormProof(w http.ResponseWriter, r *http.Request) {
	id, c, ok := a.formFromRequest(w, r)
	if !ok {
		return
	}

	var body ProofInput
	if !decodeBody(w, r, &body) {
		return
	}

	form, err := c.EnterProof(r.Context(), body.UpiTxnId, body.ProofImage)
	if err != nil {
		a.writeDomainError(w, r, "Failed to enter payment proof", err)
		return
	}

	writeJSON(w, http.StatusOK, a.formResponse(id, form))
}

func (a *API) postFormSubmit(w http.ResponseWriter, r *http.Request) {
	_, c, ok := a.formFromRequest(w, r)
	if !ok {
		return
	}

	outcome, err := c.Submit(r.Context())
	if err != nil {
		a.writeDomainError(w, r, "Failed to submit registration", err)
		return
	}

	writeJSON(w, http.StatusOK, outcomeToApiSubmission(outcome))
}

func (a *API) formFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, *registration.Controller, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, InputValidationError, "Form id must be a UUID")
		return uuid.Nil, nil, false
	}

	c, ok := a.sessions.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, NotFound, "Form does not exist or has expired")
		return uuid.Nil, nil, false
	}

	return id, c, true
}

func (a *API) formResponse(id uuid.UUID, form registration.Form) Form {
	return formToApiForm(id, form, a.deps.Catalog.Total(form.SelectedEvents))
}
