// internal/app/features/organizations/create.go
package organizations

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/orghub/internal/app/system/identity"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/dalemusser/orghub/internal/domain/models"
)

type createRequest struct {
	Name                string `json:"name"`
	Source              string `json:"source,omitempty"`
	ThirdPartyCompanyID string `json:"third_party_company_id,omitempty"`
	Domain              string `json:"domain,omitempty"`
}

// HandleCreate creates an organization with the caller as its ADMIN.
//
// Route: POST /organizations
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.CurrentUser(r)

	var req createRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	org := models.Organization{
		Name:                req.Name,
		Source:              strings.TrimSpace(req.Source),
		ThirdPartyCompanyID: strings.TrimSpace(req.ThirdPartyCompanyID),
	}
	if d := strings.ToLower(strings.TrimSpace(req.Domain)); d != "" {
		org.OrganizationDomain = &models.OrganizationDomain{Domain: d}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Write())
	defer cancel()

	created, err := h.Svc.Create(ctx, org, user.ID)
	if err != nil {
		h.writeError(w, r, "create organization", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type createDefaultResponse struct {
	Created      bool                 `json:"created"`
	Organization *models.Organization `json:"organization,omitempty"`
}

// HandleCreateDefault bootstraps the caller after registration. In
// ENTERPRISE mode the caller joins the shared organization and nothing is
// created.
//
// Route: POST /organizations/default
func (h *Handler) HandleCreateDefault(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Write())
	defer cancel()

	org, created, err := h.Svc.CreateDefault(ctx, user)
	if err != nil {
		h.writeError(w, r, "create default organization", err)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, createDefaultResponse{Created: false})
		return
	}
	writeJSON(w, http.StatusCreated, createDefaultResponse{Created: true, Organization: &org})
}

type provisionResponse struct {
	Performed []string `json:"performed"`
}

// HandleProvision completes the setup of an organization whose creation
// stopped part way. The caller becomes ADMIN only of an organization that
// has none; otherwise the caller must already be one of its ADMINs (403).
//
// Route: POST /organizations/{id}/provision
func (h *Handler) HandleProvision(w http.ResponseWriter, r *http.Request) {
	oid, ok := orgID(w, r)
	if !ok {
		return
	}
	user, _ := identity.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Write())
	defer cancel()

	performed, err := h.Svc.EnsureProvisioned(ctx, oid, user.ID)
	if err != nil {
		h.writeError(w, r, "provision organization", err)
		return
	}
	if performed == nil {
		performed = []string{}
	}
	writeJSON(w, http.StatusOK, provisionResponse{Performed: performed})
}
