// internal/app/features/organizations/query.go
package organizations

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/dalemusser/orghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeOrg returns one ACTIVE organization.
//
// Route: GET /organizations/{id}
func (h *Handler) ServeOrg(w http.ResponseWriter, r *http.Request) {
	oid, ok := orgID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Read())
	defer cancel()

	org, err := h.Svc.GetByID(ctx, oid)
	if err != nil {
		h.writeError(w, r, "get organization", err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

// ServeList returns the ACTIVE organizations among a comma-separated id
// list. Unknown and deleted ids are left out.
//
// Route: GET /organizations?ids=a,b,c
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	var ids []primitive.ObjectID
	for _, raw := range strings.Split(r.URL.Query().Get("ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad organization id " + raw})
			return
		}
		ids = append(ids, oid)
	}
	if len(ids) > maxIDsPerList {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "too many ids"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Read())
	defer cancel()

	out := make([]models.Organization, 0, len(ids))
	for org, err := range h.Svc.GetByIDs(ctx, ids) {
		if err != nil {
			h.writeError(w, r, "list organizations", err)
			return
		}
		out = append(out, org)
	}
	writeJSON(w, http.StatusOK, out)
}

// ServeLookup finds an ACTIVE organization by claimed domain or by
// external identity.
//
// Route: GET /organizations/lookup?domain=acme.io
// Route: GET /organizations/lookup?source=okta&company_id=123
func (h *Handler) ServeLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	domain := strings.ToLower(strings.TrimSpace(q.Get("domain")))
	source := strings.TrimSpace(q.Get("source"))
	company := strings.TrimSpace(q.Get("company_id"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Read())
	defer cancel()

	var (
		org   models.Organization
		found bool
		err   error
	)
	switch {
	case domain != "":
		org, found, err = h.Svc.GetByDomain(ctx, domain)
	case source != "" && company != "":
		org, found, err = h.Svc.GetBySourceAndTpCompanyID(ctx, source, company)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "domain or source and company_id required"})
		return
	}
	if err != nil {
		h.writeError(w, r, "lookup organization", err)
		return
	}
	if !found {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

// ServeEnterprise returns the shared organization of an ENTERPRISE
// deployment; 404 in SAAS mode or before one exists.
//
// Route: GET /organizations/enterprise
func (h *Handler) ServeEnterprise(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Read())
	defer cancel()

	org, found, err := h.Svc.GetOrganizationInEnterpriseMode(ctx)
	if err != nil {
		h.writeError(w, r, "get enterprise organization", err)
		return
	}
	if !found {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

// ServeSettings returns the common settings of an ACTIVE organization.
//
// Route: GET /organizations/{id}/settings
func (h *Handler) ServeSettings(w http.ResponseWriter, r *http.Request) {
	oid, ok := orgID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Read())
	defer cancel()

	settings, err := h.Svc.GetOrgCommonSettings(ctx, oid)
	if err != nil {
		h.writeError(w, r, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
