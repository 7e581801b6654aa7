package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Check probes one dependency.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Mongo pings the primary.
func Mongo(client *mongo.Client) Check {
	return Check{Name: "database", Fn: func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}}
}

// Pinger is anything with a context-aware Ping, such as a blob store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Blob checks the logo blob store.
func Blob(p Pinger) Check {
	return Check{Name: "blob", Fn: p.Ping}
}

// Redis pings the event relay's server.
func Redis(client redis.UniversalClient) Check {
	return Check{Name: "redis", Fn: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Checks []Check
	Log    *zap.Logger
}

// NewHandler constructs a health Handler running checks in order.
func NewHandler(logger *zap.Logger, checks ...Check) *Handler {
	return &Handler{
		Checks: checks,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Error  string            `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "checks":{"database":"ok","blob":"ok"} }
//
// When any check fails: 503 and
//
//	{ "status":"error", "checks":{"database":"ok","blob":"error"}, "error":"blob: …" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.Checks))}
	for _, c := range h.Checks {
		if err := c.Fn(ctx); err != nil {
			h.Log.Error("health-check failed", zap.String("check", c.Name), zap.Error(err))
			resp.Checks[c.Name] = "error"
			if resp.Error == "" {
				resp.Error = c.Name + ": " + err.Error()
			}
			resp.Status = "error"
			continue
		}
		resp.Checks[c.Name] = "ok"
	}

	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
