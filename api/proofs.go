package api

import (
	"log/slog"
	"net/http"
	"strings"
)

// getProof answers with the same contract as the spreadsheet duplicate check, so it also fails open.
func (a *API) getProof(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(r.PathValue("upiTxnId"))

	exists, err := a.deps.UsedRefs.Contains(r.Context(), ref)
	if err != nil {
		a.getLoggerOrBaseLogger(r.Context()).Warn("Failed to look up UTR", slog.String("error", err.Error()))
		exists = false
	}

	writeJSON(w, http.StatusOK, ProofExists{Exists: exists})
}
