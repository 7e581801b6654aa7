// internal/app/features/organizations/helpers.go
package organizations

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/orghub/internal/app/services/orgservice"
	"github.com/dalemusser/orghub/internal/app/system/bizerr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error          string `json:"error"`
	OrganizationID string `json:"organization_id,omitempty"`
	Step           string `json:"step,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error to a status code. Invalid input and
// not-found messages go back to the caller; everything else is logged and
// answered with a generic message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var incomplete *orgservice.IncompleteSetupError
	switch {
	case errors.As(err, &incomplete):
		h.Log.Error(op+": setup incomplete", zap.Error(err), zap.String("path", r.URL.Path))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:          "organization created but setup incomplete",
			OrganizationID: incomplete.OrgID.Hex(),
			Step:           incomplete.Step,
		})
	case errors.Is(err, bizerr.ErrInvalidParameter):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, bizerr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, bizerr.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, bizerr.ErrConfig):
		h.Log.Error(op+": configuration error", zap.Error(err), zap.String("path", r.URL.Path))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "service misconfigured"})
	default:
		h.Log.Error(op+" failed", zap.Error(err), zap.String("path", r.URL.Path))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// orgID parses the {id} URL parameter, answering 400 when it is malformed.
func orgID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad organization id"})
		return primitive.NilObjectID, false
	}
	return oid, true
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: orgservice.ErrNoValidOrganization.Error()})
}
