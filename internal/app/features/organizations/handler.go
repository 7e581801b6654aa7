// internal/app/features/organizations/handler.go
package organizations

import (
	"context"
	"io"
	"net/http"

	"github.com/dalemusser/orghub/internal/app/services/orgservice"
	"github.com/dalemusser/orghub/internal/domain/models"
	"go.uber.org/zap"
)

// maxUploadBytes caps the whole multipart body. The per-file logo limit is
// enforced by the asset service from runtime config.
const maxUploadBytes = 16 << 20

// maxIDsPerList bounds GET /organizations?ids=.
const maxIDsPerList = 200

// LogoReader streams stored logos back to clients.
type LogoReader interface {
	FindByID(ctx context.Context, id string) (models.Asset, bool, error)
	Open(ctx context.Context, a models.Asset) (io.ReadCloser, error)
}

// Handler is the feature-level entry point for Organizations.
type Handler struct {
	Svc   *orgservice.Service
	Logos LogoReader
	Log   *zap.Logger

	// WriteLimit throttles write routes (see ratelimit.Middleware); nil
	// disables it.
	WriteLimit func(http.Handler) http.Handler
}

// NewHandler constructs an Organizations handler bound to the service.
func NewHandler(svc *orgservice.Service, logos LogoReader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Svc:   svc,
		Logos: logos,
		Log:   logger,
	}
}
