package api

import (
	"net/http"

	"github.com/cache-fest/festival-registration/events"
	"github.com/cache-fest/festival-registration/slices"
)

func (a *API) getEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Catalog{
		Technical:    slices.Map(a.deps.Catalog.ByCategory(events.TECHNICAL), eventToApiEvent),
		NonTechnical: slices.Map(a.deps.Catalog.ByCategory(events.NON_TECHNICAL), eventToApiEvent),
	})
}
