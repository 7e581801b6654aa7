package organizations_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/dalemusser/orghub/internal/app/features/organizations"
	"github.com/dalemusser/orghub/internal/app/services/orgservice"
	"github.com/dalemusser/orghub/internal/app/system/dynconf"
	"github.com/dalemusser/orghub/internal/app/system/identity"
	"github.com/dalemusser/orghub/internal/app/system/locale"
	"github.com/dalemusser/orghub/internal/app/system/ratelimit"
	"github.com/dalemusser/orghub/internal/domain/models"
	"github.com/dalemusser/orghub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type env struct {
	router  chi.Router
	orgs    *testutil.MemOrgStore
	members *testutil.MemMembers
	assets  *testutil.MemAssets
	pub     *testutil.RecordingPublisher
	user    testutil.TestUser
}

func newEnv(t *testing.T, snap dynconf.Static) *env {
	t.Helper()
	e := &env{
		orgs:    testutil.NewMemOrgStore(),
		members: testutil.NewMemMembers(),
		assets:  testutil.NewMemAssets(),
		pub:     &testutil.RecordingPublisher{},
		user:    testutil.NewTestUser("Ada"),
	}
	if snap.LogoMaxSizeKB == 0 {
		snap.LogoMaxSizeKB = dynconf.DefaultLogoMaxSizeKB
	}
	svc := orgservice.New(orgservice.Deps{
		Orgs:    e.orgs,
		Groups:  testutil.NewMemGroups(),
		Members: e.members,
		Assets:  e.assets,
		Events:  e.pub,
		Config:  snap,
	})
	h := organizations.NewHandler(svc, e.assets, nil)

	r := chi.NewRouter()
	r.Use(identity.LoadUser, locale.Middleware)
	r.Mount("/organizations", organizations.Routes(h))
	e.router = r
	return e
}

func (e *env) do(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) seed(name string, state models.OrgState) models.Organization {
	return e.orgs.Put(models.Organization{Name: name, State: state})
}

func decode[T any](t *testing.T, rec *testutil.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to parse response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestCreate(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeSaaS})

	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/organizations",
		`{"name":"Acme","domain":" ACME.io "}`), e.user)
	rec := e.do(req)
	rec.AssertStatus(t, http.StatusCreated)

	org := decode[models.Organization](t, rec)
	if org.Name != "Acme" || org.State != models.OrgStateActive {
		t.Errorf("unexpected org %+v", org)
	}
	if org.OrganizationDomain == nil || org.OrganizationDomain.Domain != "acme.io" {
		t.Errorf("domain not normalized: %+v", org.OrganizationDomain)
	}

	uid, _ := primitive.ObjectIDFromHex(e.user.ID)
	if role, ok := e.members.Role(org.ID, uid); !ok || role != models.RoleAdmin {
		t.Errorf("creator role = %q, %v", role, ok)
	}
}

func TestCreate_Rejections(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeSaaS})

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"anonymous", testutil.NewJSONRequest(http.MethodPost, "/organizations", `{"name":"Acme"}`), http.StatusUnauthorized},
		{"bad json", testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/organizations", `{`), e.user), http.StatusBadRequest},
		{"unknown field", testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/organizations", `{"id":"x","name":"A"}`), e.user), http.StatusBadRequest},
		{"blank name", testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/organizations", `{"name":"  "}`), e.user), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.do(tt.req).AssertStatus(t, tt.want)
		})
	}
	if e.orgs.Len() != 0 {
		t.Errorf("expected no organizations, got %d", e.orgs.Len())
	}
}

func TestCreateDefault_Localized(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeSaaS})

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/organizations/default", e.user)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	rec := e.do(req)
	rec.AssertStatus(t, http.StatusCreated)

	resp := decode[struct {
		Created      bool                 `json:"created"`
		Organization *models.Organization `json:"organization"`
	}](t, rec)
	if !resp.Created || resp.Organization == nil {
		t.Fatalf("unexpected response %s", rec.Body.String())
	}
	if resp.Organization.Name != "Ada的工作空间" {
		t.Errorf("name = %q", resp.Organization.Name)
	}
}

func TestCreateDefault_EnterpriseJoins(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeEnterprise})
	ent := e.seed("Enterprise", models.OrgStateActive)

	rec := e.do(testutil.NewAuthenticatedRequest(http.MethodPost, "/organizations/default", e.user))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"created":false`)

	uid, _ := primitive.ObjectIDFromHex(e.user.ID)
	if role, ok := e.members.Role(ent.ID, uid); !ok || role != models.RoleMember {
		t.Errorf("member role = %q, %v", role, ok)
	}

	rec = e.do(testutil.NewRequest(http.MethodGet, "/organizations/enterprise"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, ent.ID.Hex())
}

func TestCreateDefault_EnterpriseMisconfigured(t *testing.T) {
	gone := primitive.NewObjectID()
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeEnterprise, EnterpriseOrgID: gone.Hex()})
	e.orgs.Put(models.Organization{ID: gone, Name: "Gone", State: models.OrgStateDeleted})
	e.seed("Other", models.OrgStateActive)

	rec := e.do(testutil.NewAuthenticatedRequest(http.MethodPost, "/organizations/default", e.user))
	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertContains(t, "service misconfigured")
}

func TestServeOrg(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeSaaS})
	active := e.seed("Acme", models.OrgStateActive)
	deleted := e.seed("Gone", models.OrgStateDeleted)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"active", "/organizations/" + active.ID.Hex(), http.StatusOK},
		{"deleted", "/organizations/" + deleted.ID.Hex(), http.StatusNotFound},
		{"missing", "/organizations/" + primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"bad id", "/organizations/nope", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.do(testutil.NewRequest(http.MethodGet, tt.path)).AssertStatus(t, tt.want)
		})
	}
}

func TestServeList(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeSaaS})
	a := e.seed("A", models.OrgStateActive)
	d := e.seed("D", models.OrgStateDeleted)

	rec := e.do(testutil.NewRequest(http.MethodGet, "/organizations?ids="+a.ID.Hex()+","+d.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	orgs := decode[[]models.Organization](t, rec)
	if len(orgs) != 1 || orgs[0].ID != a.ID {
		t.Errorf("unexpected list %s", rec.Body.String())
	}

	rec = e.do(testutil.NewRequest(http.MethodGet, "/organizations"))
	rec.AssertStatus(t, http.StatusOK)
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("empty list body = %q", got)
	}

	e.do(testutil.NewRequest(http.MethodGet, "/organizations?ids=zz")).AssertStatus(t, http.StatusBadRequest)
}

func TestServeLookup(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeSaaS})
	org := e.orgs.Put(models.Organization{
		Name:                "Acme",
		State:               models.OrgStateActive,
		Source:              "okta",
		ThirdPartyCompanyID: "c-1",
		OrganizationDomain:  &models.OrganizationDomain{Domain: "acme.io"},
	})

	rec := e.do(testutil.NewRequest(http.MethodGet, "/organizations/lookup?domain=ACME.io"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, org.ID.Hex())

	rec = e.do(testutil.NewRequest(http.MethodGet, "/organizations/lookup?source=okta&company_id=c-1"))
	rec.AssertStatus(t, http.StatusOK)

	e.do(testutil.NewRequest(http.MethodGet, "/organizations/lookup?domain=other.io")).AssertStatus(t, http.StatusNotFound)
	e.do(testutil.NewRequest(http.MethodGet, "/organizations/lookup?source=okta")).AssertStatus(t, http.StatusBadRequest)
}

func TestServeEnterprise_SaaS(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeSaaS})
	e.seed("Acme", models.OrgStateActive)

	e.do(testutil.NewRequest(http.MethodGet, "/organizations/enterprise")).AssertStatus(t, http.StatusNotFound)
}

func TestUpdate(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeSaaS})
	org := e.seed("Acme", models.OrgStateActive)

	rec := e.do(testutil.WithUser(testutil.NewJSONRequest(http.MethodPatch, "/organizations/"+org.ID.Hex(), `{"name":"Acme 2"}`), e.user))
	rec.AssertStatus(t, http.StatusOK)
	if got := decode[models.Organization](t, rec); got.Name != "Acme 2" {
		t.Errorf("name = %q", got.Name)
	}

	e.do(testutil.WithUser(testutil.NewJSONRequest(http.MethodPatch, "/organizations/"+org.ID.Hex(), `{}`), e.user)).
		AssertStatus(t, http.StatusBadRequest)
	e.do(testutil.WithUser(testutil.NewJSONRequest(http.MethodPatch, "/organizations/"+primitive.NewObjectID().Hex(), `{"name":"x"}`), e.user)).
		AssertStatus(t, http.StatusNotFound)
}

func TestDelete(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeSaaS})
	org := e.seed("Acme", models.OrgStateActive)
	path := "/organizations/" + org.ID.Hex()

	e.do(testutil.NewAuthenticatedRequest(http.MethodDelete, path, e.user)).AssertStatus(t, http.StatusNoContent)
	e.do(testutil.NewRequest(http.MethodGet, path)).AssertStatus(t, http.StatusNotFound)
	if n := len(e.pub.Events()); n != 1 {
		t.Errorf("published %d events, want 1", n)
	}

	e.do(testutil.NewAuthenticatedRequest(http.MethodDelete, "/organizations/"+primitive.NewObjectID().Hex(), e.user)).
		AssertStatus(t, http.StatusNotFound)
	if n := len(e.pub.Events()); n != 1 {
		t.Errorf("missing id published an event")
	}

	e.do(testutil.NewRequest(http.MethodDelete, path)).AssertStatus(t, http.StatusUnauthorized)
}

func TestSettings(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeSaaS})
	org := e.seed("Acme", models.OrgStateActive)
	base := "/organizations/" + org.ID.Hex() + "/settings"

	rec := e.do(testutil.WithUser(testutil.NewJSONRequest(http.MethodPut, base+"/theme", `{"value":"dark"}`), e.user))
	rec.AssertStatus(t, http.StatusNoContent)

	rec = e.do(testutil.NewRequest(http.MethodGet, base))
	rec.AssertStatus(t, http.StatusOK)
	settings := decode[map[string]any](t, rec)
	if settings["theme"] != "dark" {
		t.Errorf("theme = %v", settings["theme"])
	}
	if _, ok := settings["theme_updateTime"]; !ok {
		t.Errorf("missing theme_updateTime in %v", settings)
	}

	e.do(testutil.WithUser(testutil.NewJSONRequest(http.MethodPut, base+"/theme", `{"other":1}`), e.user)).
		AssertStatus(t, http.StatusBadRequest)
	e.do(testutil.WithUser(testutil.NewJSONRequest(http.MethodPut, base+"/theme_updateTime", `{"value":1}`), e.user)).
		AssertStatus(t, http.StatusBadRequest)
}

func multipartLogo(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="logo.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestLogoLifecycle(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeSaaS})
	org := e.seed("Acme", models.OrgStateActive)
	logoPath := "/organizations/" + org.ID.Hex() + "/logo"

	body, ct := multipartLogo(t, "image/png", []byte("\x89PNG-data"))
	req := httptest.NewRequest(http.MethodPost, logoPath, body)
	req.Header.Set("Content-Type", ct)
	req = testutil.WithUser(req, e.user)

	rec := e.do(req)
	rec.AssertStatus(t, http.StatusOK)
	updated := decode[models.Organization](t, rec)
	if !updated.HasLogo() {
		t.Fatalf("logo not recorded: %s", rec.Body.String())
	}

	e.do(testutil.NewRequest(http.MethodGet, logoPath)).AssertStatus(t, http.StatusUnauthorized)

	rec = e.do(testutil.NewAuthenticatedRequest(http.MethodGet, logoPath, e.user))
	rec.AssertStatus(t, http.StatusOK)
	if rec.Body.String() != "\x89PNG-data" {
		t.Errorf("logo body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q", got)
	}

	e.do(testutil.NewAuthenticatedRequest(http.MethodDelete, logoPath, e.user)).AssertStatus(t, http.StatusNoContent)
	e.do(testutil.NewAuthenticatedRequest(http.MethodDelete, logoPath, e.user)).AssertStatus(t, http.StatusNotFound)
	e.do(testutil.NewAuthenticatedRequest(http.MethodGet, logoPath, e.user)).AssertStatus(t, http.StatusNotFound)
}

func TestUploadLogo_MissingPart(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeSaaS})
	org := e.seed("Acme", models.OrgStateActive)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("note", "no file")
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/organizations/"+org.ID.Hex()+"/logo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	e.do(testutil.WithUser(req, e.user)).AssertStatus(t, http.StatusBadRequest)
	if calls := e.assets.Calls(); len(calls) != 0 {
		t.Errorf("unexpected asset calls %v", calls)
	}
}

func TestProvision(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeSaaS})
	org := e.seed("Acme", models.OrgStateActive)
	path := "/organizations/" + org.ID.Hex() + "/provision"

	rec := e.do(testutil.NewAuthenticatedRequest(http.MethodPost, path, e.user))
	rec.AssertStatus(t, http.StatusOK)
	resp := decode[struct {
		Performed []string `json:"performed"`
	}](t, rec)
	if len(resp.Performed) != 3 {
		t.Errorf("performed = %v", resp.Performed)
	}

	rec = e.do(testutil.NewAuthenticatedRequest(http.MethodPost, path, e.user))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"performed":[]`)
}

func TestProvision_StrangerForbidden(t *testing.T) {
	e := newEnv(t, dynconf.Static{Mode: dynconf.ModeSaaS})
	rec := e.do(testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/organizations", `{"name":"Acme"}`), e.user))
	rec.AssertStatus(t, http.StatusCreated)
	org := decode[models.Organization](t, rec)

	stranger := testutil.NewTestUser("Mallory")
	path := "/organizations/" + org.ID.Hex() + "/provision"
	e.do(testutil.NewAuthenticatedRequest(http.MethodPost, path, stranger)).
		AssertStatus(t, http.StatusForbidden)

	sid, _ := primitive.ObjectIDFromHex(stranger.ID)
	if role, ok := e.members.Role(org.ID, sid); ok {
		t.Errorf("stranger gained role %q", role)
	}

	rec = e.do(testutil.NewAuthenticatedRequest(http.MethodPost, path, e.user))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"performed":[]`)
}

func TestWriteLimit(t *testing.T) {
	svc := orgservice.New(orgservice.Deps{
		Orgs:    testutil.NewMemOrgStore(),
		Groups:  testutil.NewMemGroups(),
		Members: testutil.NewMemMembers(),
		Assets:  testutil.NewMemAssets(),
		Events:  &testutil.RecordingPublisher{},
		Config:  dynconf.Static{Mode: dynconf.ModeSaaS, LogoMaxSizeKB: dynconf.DefaultLogoMaxSizeKB},
	})
	h := organizations.NewHandler(svc, nil, nil)
	h.WriteLimit = ratelimit.Middleware(1, time.Minute)

	r := chi.NewRouter()
	r.Use(identity.LoadUser)
	r.Mount("/organizations", organizations.Routes(h))

	user := testutil.NewTestUser("Ada")
	post := func(u testutil.TestUser) int {
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/organizations", `{"name":"Acme"}`), u))
		return rec.Code
	}

	if got := post(user); got != http.StatusCreated {
		t.Fatalf("first write status = %d", got)
	}
	if got := post(user); got != http.StatusTooManyRequests {
		t.Errorf("second write status = %d, want 429", got)
	}
	if got := post(testutil.NewTestUser("Grace")); got != http.StatusCreated {
		t.Errorf("other caller status = %d, want 201", got)
	}

	// Reads are not throttled.
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/organizations/enterprise"), user))
	if rec.Code == http.StatusTooManyRequests {
		t.Error("read route was throttled")
	}
}
