// internal/app/features/organizations/update.go
package organizations

import (
	"context"
	"net/http"

	"github.com/dalemusser/orghub/internal/app/services/orgservice"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// HandleUpdate patches name and external identity fields.
//
// Route: PATCH /organizations/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	oid, ok := orgID(w, r)
	if !ok {
		return
	}

	var req orgservice.UpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Write())
	defer cancel()

	updated, err := h.Svc.Update(ctx, oid, req)
	if err != nil {
		h.writeError(w, r, "update organization", err)
		return
	}
	if !updated {
		notFound(w)
		return
	}

	org, err := h.Svc.GetByID(ctx, oid)
	if err != nil {
		h.writeError(w, r, "update organization", err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

// HandleDelete soft-deletes an organization.
//
// Route: DELETE /organizations/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	oid, ok := orgID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Write())
	defer cancel()

	deleted, err := h.Svc.Delete(ctx, oid)
	if err != nil {
		h.writeError(w, r, "delete organization", err)
		return
	}
	if !deleted {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePutSetting writes one common setting. The body is {"value": ...};
// null is a legal value, a missing "value" is not.
//
// Route: PUT /organizations/{id}/settings/{key}
func (h *Handler) HandlePutSetting(w http.ResponseWriter, r *http.Request) {
	oid, ok := orgID(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")

	var raw map[string]any
	if !decodeJSON(w, r, &raw) {
		return
	}
	value, present := raw["value"]
	if !present || len(raw) != 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: `body must be {"value": ...}`})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Write())
	defer cancel()

	updated, err := h.Svc.UpdateCommonSettings(ctx, oid, key, value)
	if err != nil {
		h.writeError(w, r, "update setting", err)
		return
	}
	if !updated {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
