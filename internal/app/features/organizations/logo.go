// internal/app/features/organizations/logo.go
package organizations

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dalemusser/orghub/internal/app/services/assetservice"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleUploadLogo replaces the organization's logo with the multipart
// "file" part. Responds with the updated organization.
//
// Route: POST /organizations/{id}/logo
func (h *Handler) HandleUploadLogo(w http.ResponseWriter, r *http.Request) {
	oid, ok := orgID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "upload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing file part"})
		return
	}
	defer file.Close()

	part := assetservice.FilePart{
		FileName:    header.Filename,
		ContentType: strings.TrimSpace(header.Header.Get("Content-Type")),
		Size:        header.Size,
		Content:     file,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	recorded, err := h.Svc.UploadLogo(ctx, oid, part)
	if err != nil && !recorded {
		h.writeError(w, r, "upload logo", err)
		return
	}
	if err != nil {
		// The new logo is in place; only the old asset lingers.
		h.Log.Warn("logo replaced but previous asset kept", zap.String("org_id", oid.Hex()), zap.Error(err))
	}

	org, err := h.Svc.GetByID(ctx, oid)
	if err != nil {
		h.writeError(w, r, "upload logo", err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

// HandleDeleteLogo removes the organization's logo.
//
// Route: DELETE /organizations/{id}/logo
func (h *Handler) HandleDeleteLogo(w http.ResponseWriter, r *http.Request) {
	oid, ok := orgID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Write())
	defer cancel()

	cleared, err := h.Svc.DeleteLogo(ctx, oid)
	if err != nil {
		h.writeError(w, r, "delete logo", err)
		return
	}
	if !cleared {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeLogo streams the organization's logo.
//
// Route: GET /organizations/{id}/logo (requires a signed-in caller)
func (h *Handler) ServeLogo(w http.ResponseWriter, r *http.Request) {
	oid, ok := orgID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	org, err := h.Svc.GetByID(ctx, oid)
	if err != nil {
		h.writeError(w, r, "serve logo", err)
		return
	}
	if !org.HasLogo() {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "organization has no logo"})
		return
	}

	asset, found, err := h.Logos.FindByID(ctx, org.LogoAssetID)
	if err != nil {
		h.writeError(w, r, "serve logo", err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "logo asset missing"})
		return
	}

	body, err := h.Logos.Open(ctx, asset)
	if err != nil {
		h.writeError(w, r, "serve logo", err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := io.Copy(w, body); err != nil {
		h.Log.Warn("logo stream interrupted", zap.String("org_id", oid.Hex()), zap.Error(err))
	}
}
