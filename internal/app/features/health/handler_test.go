package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dalemusser/orghub/internal/app/features/health"
	"github.com/dalemusser/orghub/internal/app/system/blobstore"
	"github.com/dalemusser/orghub/internal/testutil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Error  string            `json:"error"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, healthBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, body
}

func TestServe_AllHealthy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	blobs, err := blobstore.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := health.NewHandler(zap.NewNop(),
		health.Mongo(db.Client()),
		health.Blob(blobs),
		health.Redis(rdb),
	)

	rec, body := serve(t, h)
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if body.Status != "ok" {
		t.Errorf("status: got %q, want %q", body.Status, "ok")
	}
	for _, name := range []string{"database", "blob", "redis"} {
		if body.Checks[name] != "ok" {
			t.Errorf("check %s: got %q", name, body.Checks[name])
		}
	}
}

func TestServe_FailingCheck(t *testing.T) {
	h := health.NewHandler(zap.NewNop(),
		health.Check{Name: "database", Fn: func(context.Context) error { return nil }},
		health.Check{Name: "blob", Fn: func(context.Context) error { return errors.New("bucket gone") }},
	)

	rec, body := serve(t, h)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if body.Status != "error" || body.Checks["blob"] != "error" || body.Checks["database"] != "ok" {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Error != "blob: bucket gone" {
		t.Errorf("error: got %q", body.Error)
	}
}

func TestRoutes_HeadProbe(t *testing.T) {
	var calls int
	h := health.NewHandler(zap.NewNop(),
		health.Check{Name: "database", Fn: func(context.Context) error { calls++; return nil }},
	)
	r := health.Routes(h)

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, "/", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected status %d, got %d", method, http.StatusOK, rec.Code)
		}
	}
	if calls != 2 {
		t.Errorf("checks ran %d times, want 2", calls)
	}
}
