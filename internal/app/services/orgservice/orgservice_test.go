package orgservice_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/orghub/internal/app/services/assetservice"
	"github.com/dalemusser/orghub/internal/app/services/orgservice"
	"github.com/dalemusser/orghub/internal/app/system/auditlog"
	"github.com/dalemusser/orghub/internal/app/system/bizerr"
	"github.com/dalemusser/orghub/internal/app/system/dynconf"
	"github.com/dalemusser/orghub/internal/app/system/events"
	"github.com/dalemusser/orghub/internal/app/system/locale"
	"github.com/dalemusser/orghub/internal/app/system/metrics"
	"github.com/dalemusser/orghub/internal/domain/models"
	"github.com/dalemusser/orghub/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/language"
)

type harness struct {
	svc     *orgservice.Service
	orgs    *testutil.MemOrgStore
	groups  *testutil.MemGroups
	members *testutil.MemMembers
	assets  *testutil.MemAssets
	pub     *testutil.RecordingPublisher
	metrics *metrics.Metrics
}

func newHarness(t *testing.T, snap dynconf.Snapshot) *harness {
	t.Helper()
	h := &harness{
		orgs:    testutil.NewMemOrgStore(),
		groups:  testutil.NewMemGroups(),
		members: testutil.NewMemMembers(),
		assets:  testutil.NewMemAssets(),
		pub:     &testutil.RecordingPublisher{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	if snap.LogoMaxSizeKB == 0 {
		snap.LogoMaxSizeKB = dynconf.DefaultLogoMaxSizeKB
	}
	h.svc = orgservice.New(orgservice.Deps{
		Orgs:    h.orgs,
		Groups:  h.groups,
		Members: h.members,
		Assets:  h.assets,
		Events:  h.pub,
		Config:  dynconf.Static(snap),
		Audit:   auditlog.New(nil, nil, auditlog.Config{Org: auditlog.ModeOff}),
		Metrics: h.metrics,
	})
	return h
}

func saas(t *testing.T) *harness {
	return newHarness(t, dynconf.Snapshot{Mode: dynconf.ModeSaaS})
}

func (h *harness) seed(name string, state models.OrgState) models.Organization {
	return h.orgs.Put(models.Organization{Name: name, State: state, CreatedAt: time.Now()})
}

func TestGetByID_OnlyActive(t *testing.T) {
	h := saas(t)
	ctx := context.Background()
	active := h.seed("Acme", models.OrgStateActive)
	deleted := h.seed("Gone", models.OrgStateDeleted)

	got, err := h.svc.GetByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	_, err = h.svc.GetByID(ctx, deleted.ID)
	assert.ErrorIs(t, err, orgservice.ErrNoValidOrganization)
	assert.ErrorIs(t, err, bizerr.ErrNotFound)

	_, err = h.svc.GetByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, orgservice.ErrNoValidOrganization)
}

func TestCreate_ProvisionsGroupsAndAdmin(t *testing.T) {
	h := saas(t)
	ctx := context.Background()
	creator := primitive.NewObjectID()

	org, err := h.svc.Create(ctx, models.Organization{Name: "  Acme <b>Corp</b> "}, creator)
	require.NoError(t, err)

	assert.False(t, org.ID.IsZero())
	assert.Equal(t, "Acme Corp", org.Name)
	assert.Equal(t, models.OrgStateActive, org.State)
	assert.Equal(t, []models.GroupType{models.GroupTypeAllUsers, models.GroupTypeDev}, h.groups.Of(org.ID))
	assert.Equal(t, []string{"all_users", "dev"}, h.groups.Calls)

	role, ok := h.members.Role(org.ID, creator)
	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, role)
	assert.Equal(t, 1, h.members.CountOrg(org.ID))

	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.OrgOperationsTotal.WithLabelValues("create", "ok")))
}

func TestCreate_RejectsPresetID(t *testing.T) {
	h := saas(t)
	ctx := context.Background()

	_, err := h.svc.Create(ctx, models.Organization{ID: primitive.NewObjectID(), Name: "Acme"}, primitive.NewObjectID())
	require.ErrorIs(t, err, bizerr.ErrInvalidParameter)

	assert.Zero(t, h.orgs.Creates)
	assert.Empty(t, h.groups.Calls)
	assert.Zero(t, h.members.Calls)
}

func TestCreate_RejectsBlankNameAndCreator(t *testing.T) {
	h := saas(t)
	ctx := context.Background()

	_, err := h.svc.Create(ctx, models.Organization{Name: "<i></i>  "}, primitive.NewObjectID())
	assert.ErrorIs(t, err, bizerr.ErrInvalidParameter)

	_, err = h.svc.Create(ctx, models.Organization{Name: "Acme"}, primitive.NilObjectID)
	assert.ErrorIs(t, err, bizerr.ErrInvalidParameter)

	assert.Zero(t, h.orgs.Len())
}

func TestCreate_SaveFailureStopsEverything(t *testing.T) {
	h := saas(t)
	h.orgs.CreateErr = errors.New("disk full")

	_, err := h.svc.Create(context.Background(), models.Organization{Name: "Acme"}, primitive.NewObjectID())
	require.Error(t, err)

	var incomplete *orgservice.IncompleteSetupError
	assert.False(t, errors.As(err, &incomplete))
	assert.Empty(t, h.groups.Calls)
	assert.Zero(t, h.members.Calls)
}

func TestCreate_IncompleteSetupThenEnsureProvisioned(t *testing.T) {
	h := saas(t)
	ctx := context.Background()
	creator := primitive.NewObjectID()
	h.groups.FailOn = models.GroupTypeDev
	h.groups.Err = errors.New("groups unavailable")

	_, err := h.svc.Create(ctx, models.Organization{Name: "Acme"}, creator)
	var incomplete *orgservice.IncompleteSetupError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, orgservice.StepDevGroup, incomplete.Step)
	assert.ErrorIs(t, err, h.groups.Err)

	stored, ok := h.orgs.Get(incomplete.OrgID)
	require.True(t, ok)
	assert.Equal(t, models.OrgStateActive, stored.State)
	assert.Zero(t, h.members.Calls, "membership step must not run after a failed group step")

	h.groups.Err = nil
	performed, err := h.svc.EnsureProvisioned(ctx, incomplete.OrgID, creator)
	require.NoError(t, err)
	assert.Equal(t, []string{orgservice.StepDevGroup, orgservice.StepAdminMembership}, performed)

	performed, err = h.svc.EnsureProvisioned(ctx, incomplete.OrgID, creator)
	require.NoError(t, err)
	assert.Empty(t, performed)
}

func TestEnsureProvisioned_StrangerOnProvisionedOrg(t *testing.T) {
	h := saas(t)
	ctx := context.Background()
	owner, stranger := primitive.NewObjectID(), primitive.NewObjectID()

	org, err := h.svc.Create(ctx, models.Organization{Name: "Acme"}, owner)
	require.NoError(t, err)
	groupCalls := len(h.groups.Calls)

	performed, err := h.svc.EnsureProvisioned(ctx, org.ID, stranger)
	assert.ErrorIs(t, err, bizerr.ErrForbidden)
	assert.Empty(t, performed)
	_, member := h.members.Role(org.ID, stranger)
	assert.False(t, member, "stranger must not gain a membership")
	assert.Len(t, h.groups.Calls, groupCalls)
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.OrgOperationsTotal.WithLabelValues("ensure_provisioned", "forbidden")))
}

func TestEnsureProvisioned_MemberIsNotAdmin(t *testing.T) {
	h := saas(t)
	ctx := context.Background()
	owner, member := primitive.NewObjectID(), primitive.NewObjectID()

	org, err := h.svc.Create(ctx, models.Organization{Name: "Acme"}, owner)
	require.NoError(t, err)
	_, err = h.members.AddMember(ctx, org.ID, member, models.RoleMember)
	require.NoError(t, err)

	_, err = h.svc.EnsureProvisioned(ctx, org.ID, member)
	assert.ErrorIs(t, err, bizerr.ErrForbidden)
	role, _ := h.members.Role(org.ID, member)
	assert.Equal(t, models.RoleMember, role)
}

func TestEnsureProvisioned_AdminRepairsGroups(t *testing.T) {
	h := saas(t)
	ctx := context.Background()
	admin := primitive.NewObjectID()
	org := h.seed("Acme", models.OrgStateActive)
	_, err := h.members.AddMember(ctx, org.ID, admin, models.RoleAdmin)
	require.NoError(t, err)

	performed, err := h.svc.EnsureProvisioned(ctx, org.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, []string{orgservice.StepAllUsersGroup, orgservice.StepDevGroup}, performed)
	assert.Equal(t, 1, h.members.CountOrg(org.ID))
}

func TestEnsureProvisioned_DeletedOrg(t *testing.T) {
	h := saas(t)
	org := h.seed("Gone", models.OrgStateDeleted)

	_, err := h.svc.EnsureProvisioned(context.Background(), org.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, orgservice.ErrNoValidOrganization)
	assert.Empty(t, h.groups.Calls)
}

func TestCreateDefault_SaaS(t *testing.T) {
	tests := []struct {
		name string
		tag  language.Tag
		want string
	}{
		{name: "english", tag: language.English, want: "Ada's Workspace"},
		{name: "chinese", tag: language.Chinese, want: "Ada的工作空间"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := saas(t)
			ctx := locale.WithLocale(context.Background(), tt.tag)
			user := models.User{ID: primitive.NewObjectID(), Name: "Ada"}

			org, created, err := h.svc.CreateDefault(ctx, user)
			require.NoError(t, err)
			assert.True(t, created)
			assert.Equal(t, tt.want, org.Name)
			assert.True(t, org.IsAutoGeneratedOrganization)

			role, ok := h.members.Role(org.ID, user.ID)
			require.True(t, ok)
			assert.Equal(t, models.RoleAdmin, role)
		})
	}
}

func TestCreateDefault_RejectsZeroUser(t *testing.T) {
	h := saas(t)
	_, _, err := h.svc.CreateDefault(context.Background(), models.User{Name: "Ada"})
	assert.ErrorIs(t, err, bizerr.ErrInvalidParameter)
}

func TestCreateDefault_EnterpriseJoinsConfiguredOrg(t *testing.T) {
	h := newHarness(t, dynconf.Snapshot{Mode: dynconf.ModeEnterprise})
	ctx := context.Background()
	other := h.seed("First", models.OrgStateActive)
	ent := h.seed("Enterprise", models.OrgStateActive)
	h.svc = orgservice.New(orgservice.Deps{
		Orgs:    h.orgs,
		Groups:  h.groups,
		Members: h.members,
		Assets:  h.assets,
		Config:  dynconf.Static{Mode: dynconf.ModeEnterprise, EnterpriseOrgID: ent.ID.Hex()},
	})
	user := models.User{ID: primitive.NewObjectID(), Name: "Ada"}

	org, created, err := h.svc.CreateDefault(ctx, user)
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, org.ID.IsZero())
	assert.Equal(t, 2, h.orgs.Len())

	role, ok := h.members.Role(ent.ID, user.ID)
	require.True(t, ok)
	assert.Equal(t, models.RoleMember, role)
	_, ok = h.members.Role(other.ID, user.ID)
	assert.False(t, ok)
}

func TestCreateDefault_EnterpriseFallsBackToFirstActive(t *testing.T) {
	h := newHarness(t, dynconf.Snapshot{Mode: dynconf.ModeEnterprise})
	ctx := context.Background()
	h.seed("Old deleted", models.OrgStateDeleted)
	first := h.seed("First", models.OrgStateActive)
	h.seed("Second", models.OrgStateActive)
	user := models.User{ID: primitive.NewObjectID(), Name: "Ada"}

	_, created, err := h.svc.CreateDefault(ctx, user)
	require.NoError(t, err)
	assert.False(t, created)

	role, ok := h.members.Role(first.ID, user.ID)
	require.True(t, ok)
	assert.Equal(t, models.RoleMember, role)
}

func TestCreateDefault_EnterpriseWithoutOrgsCreatesOne(t *testing.T) {
	h := newHarness(t, dynconf.Snapshot{Mode: dynconf.ModeEnterprise})
	user := models.User{ID: primitive.NewObjectID(), Name: "Ada"}

	org, created, err := h.svc.CreateDefault(context.Background(), user)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, strings.HasPrefix(org.Name, "Ada"))

	role, _ := h.members.Role(org.ID, user.ID)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestCreateDefault_EnterpriseDeletedConfiguredOrg(t *testing.T) {
	h := saas(t)
	deleted := h.seed("Gone", models.OrgStateDeleted)
	h.seed("Other", models.OrgStateActive)
	svc := orgservice.New(orgservice.Deps{
		Orgs:    h.orgs,
		Groups:  h.groups,
		Members: h.members,
		Config:  dynconf.Static{Mode: dynconf.ModeEnterprise, EnterpriseOrgID: deleted.ID.Hex()},
	})

	_, _, err := svc.CreateDefault(context.Background(), models.User{ID: primitive.NewObjectID(), Name: "Ada"})
	assert.ErrorIs(t, err, orgservice.ErrOrgUnavailableInEnterpriseMode)
	assert.ErrorIs(t, err, bizerr.ErrConfig)
	assert.Zero(t, h.members.Calls)
	assert.Equal(t, 2, h.orgs.Len())
}

func TestCreateDefault_EnterpriseMalformedConfiguredID(t *testing.T) {
	h := saas(t)
	svc := orgservice.New(orgservice.Deps{
		Orgs:    h.orgs,
		Groups:  h.groups,
		Members: h.members,
		Config:  dynconf.Static{Mode: dynconf.ModeEnterprise, EnterpriseOrgID: "not-an-id"},
	})

	_, _, err := svc.CreateDefault(context.Background(), models.User{ID: primitive.NewObjectID(), Name: "Ada"})
	assert.ErrorIs(t, err, bizerr.ErrConfig)
}

func TestGetOrganizationInEnterpriseMode(t *testing.T) {
	ctx := context.Background()

	h := saas(t)
	h.seed("Acme", models.OrgStateActive)
	_, found, err := h.svc.GetOrganizationInEnterpriseMode(ctx)
	require.NoError(t, err)
	assert.False(t, found, "SAAS mode has no enterprise organization")

	h = newHarness(t, dynconf.Snapshot{Mode: dynconf.ModeEnterprise})
	_, found, err = h.svc.GetOrganizationInEnterpriseMode(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	first := h.seed("First", models.OrgStateActive)
	org, found, err := h.svc.GetOrganizationInEnterpriseMode(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, first.ID, org.ID)
}

func TestDelete_PublishesOnce(t *testing.T) {
	h := saas(t)
	ctx := context.Background()
	org := h.seed("Acme", models.OrgStateActive)

	ok, err := h.svc.Delete(ctx, org.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, _ := h.orgs.Get(org.ID)
	assert.Equal(t, models.OrgStateDeleted, stored.State)

	published := h.pub.Events()
	require.Len(t, published, 1)
	ev, isDeleted := published[0].(events.OrgDeleted)
	require.True(t, isDeleted)
	assert.Equal(t, org.ID, ev.OrgID)
	assert.False(t, ev.DeletedAt.IsZero())

	_, err = h.svc.GetByID(ctx, org.ID)
	assert.ErrorIs(t, err, orgservice.ErrNoValidOrganization)
}

func TestDelete_MissingPublishesNothing(t *testing.T) {
	h := saas(t)

	ok, err := h.svc.Delete(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, h.pub.Events())
}

func TestDelete_StoreErrorPublishesNothing(t *testing.T) {
	h := saas(t)
	org := h.seed("Acme", models.OrgStateActive)
	h.orgs.UpdateErr = errors.New("write conflict")

	ok, err := h.svc.Delete(context.Background(), org.ID)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Empty(t, h.pub.Events())
}

func TestDelete_AlreadyDeletedStillMatches(t *testing.T) {
	h := saas(t)
	org := h.seed("Gone", models.OrgStateDeleted)

	ok, err := h.svc.Delete(context.Background(), org.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, h.pub.Events(), 1)
}

func TestGetByIDs_SkipsInactiveAndDuplicates(t *testing.T) {
	h := saas(t)
	a := h.seed("A", models.OrgStateActive)
	b := h.seed("B", models.OrgStateActive)
	d := h.seed("D", models.OrgStateDeleted)

	var names []string
	for org, err := range h.svc.GetByIDs(context.Background(), []primitive.ObjectID{a.ID, d.ID, primitive.NewObjectID(), b.ID, a.ID}) {
		require.NoError(t, err)
		names = append(names, org.Name)
	}
	assert.Equal(t, []string{"A", "B"}, names)

	count := 0
	for range h.svc.GetByIDs(context.Background(), nil) {
		count++
	}
	assert.Zero(t, count)
}

func TestExternalLookups(t *testing.T) {
	h := saas(t)
	ctx := context.Background()
	org := h.orgs.Put(models.Organization{
		Name:                "Acme",
		State:               models.OrgStateActive,
		Source:              "okta",
		ThirdPartyCompanyID: "c-1",
		OrganizationDomain:  &models.OrganizationDomain{Domain: "acme.io"},
	})
	h.orgs.Put(models.Organization{
		Name:                "Old Acme",
		State:               models.OrgStateDeleted,
		Source:              "okta",
		ThirdPartyCompanyID: "c-2",
		OrganizationDomain:  &models.OrganizationDomain{Domain: "old.io"},
	})

	got, found, err := h.svc.GetBySourceAndTpCompanyID(ctx, "okta", "c-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, org.ID, got.ID)

	_, found, err = h.svc.GetBySourceAndTpCompanyID(ctx, "okta", "c-2")
	require.NoError(t, err)
	assert.False(t, found)

	got, found, err = h.svc.GetByDomain(ctx, "acme.io")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, org.ID, got.ID)

	_, found, err = h.svc.GetByDomain(ctx, "old.io")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpdate(t *testing.T) {
	h := saas(t)
	ctx := context.Background()
	org := h.seed("Acme", models.OrgStateActive)
	name, domain := "Acme Two", "  ACME.io "

	ok, err := h.svc.Update(ctx, org.ID, orgservice.UpdateRequest{Name: &name, Domain: &domain})
	require.NoError(t, err)
	assert.True(t, ok)

	stored, _ := h.orgs.Get(org.ID)
	assert.Equal(t, "Acme Two", stored.Name)
	require.NotNil(t, stored.OrganizationDomain)
	assert.Equal(t, "acme.io", stored.OrganizationDomain.Domain)

	_, err = h.svc.Update(ctx, org.ID, orgservice.UpdateRequest{})
	assert.ErrorIs(t, err, bizerr.ErrInvalidParameter)

	blank := " "
	_, err = h.svc.Update(ctx, org.ID, orgservice.UpdateRequest{Name: &blank})
	assert.ErrorIs(t, err, bizerr.ErrInvalidParameter)

	deleted := h.seed("Gone", models.OrgStateDeleted)
	ok, err = h.svc.Update(ctx, deleted.ID, orgservice.UpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateCommonSettings(t *testing.T) {
	h := saas(t)
	ctx := context.Background()
	org := h.orgs.Put(models.Organization{
		Name:           "Acme",
		State:          models.OrgStateActive,
		CommonSettings: map[string]any{"locale": "en", "locale_updateTime": int64(1)},
	})

	before := time.Now().UnixMilli()
	ok, err := h.svc.UpdateCommonSettings(ctx, org.ID, "theme", "dark")
	require.NoError(t, err)
	assert.True(t, ok)

	settings, err := h.svc.GetOrgCommonSettings(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "dark", settings["theme"])
	stamp, isInt := settings["theme_updateTime"].(int64)
	require.True(t, isInt)
	assert.GreaterOrEqual(t, stamp, before)
	assert.Equal(t, "en", settings["locale"], "other keys are untouched")
	assert.Equal(t, int64(1), settings["locale_updateTime"])

	settings["theme"] = "mutated"
	again, err := h.svc.GetOrgCommonSettings(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "dark", again["theme"])
}

func TestUpdateCommonSettings_Rejections(t *testing.T) {
	h := saas(t)
	ctx := context.Background()
	org := h.seed("Acme", models.OrgStateActive)

	for _, key := range []string{"", "  ", "a.b", "$set", "theme_updateTime"} {
		_, err := h.svc.UpdateCommonSettings(ctx, org.ID, key, 1)
		assert.ErrorIs(t, err, bizerr.ErrInvalidParameter, "key %q", key)
	}
	assert.Zero(t, h.orgs.Updates)

	deleted := h.seed("Gone", models.OrgStateDeleted)
	ok, err := h.svc.UpdateCommonSettings(ctx, deleted.ID, "theme", "dark")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.svc.GetOrgCommonSettings(ctx, deleted.ID)
	assert.ErrorIs(t, err, orgservice.ErrNoValidOrganization)
}

func logoFile() assetservice.FilePart {
	return assetservice.FilePart{
		FileName:    "logo.png",
		ContentType: "image/png",
		Size:        4,
		Content:     strings.NewReader("\x89PNG"),
	}
}

func TestUploadLogo_ReplacesPrevious(t *testing.T) {
	h := newHarness(t, dynconf.Snapshot{Mode: dynconf.ModeSaaS, LogoMaxSizeKB: 512})
	ctx := context.Background()
	previous := h.assets.Seed()
	org := h.orgs.Put(models.Organization{Name: "Acme", State: models.OrgStateActive, LogoAssetID: previous})

	ok, err := h.svc.UploadLogo(ctx, org.ID, logoFile())
	require.NoError(t, err)
	assert.True(t, ok)

	stored, _ := h.orgs.Get(org.ID)
	assert.NotEqual(t, previous, stored.LogoAssetID)
	assert.True(t, h.assets.Has(stored.LogoAssetID))
	assert.False(t, h.assets.Has(previous))
	assert.Equal(t, 512, h.assets.LastMaxSizeKB)
	assert.False(t, h.assets.LastPublic)
	assert.Equal(t, []string{"upload", "delete:" + previous}, h.assets.Calls())
}

func TestUploadLogo_FirstLogo(t *testing.T) {
	h := saas(t)
	org := h.seed("Acme", models.OrgStateActive)

	ok, err := h.svc.UploadLogo(context.Background(), org.ID, logoFile())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"upload"}, h.assets.Calls())
	assert.Equal(t, dynconf.DefaultLogoMaxSizeKB, h.assets.LastMaxSizeKB)
}

func TestUploadLogo_InactiveOrgUploadsNothing(t *testing.T) {
	h := saas(t)
	org := h.seed("Gone", models.OrgStateDeleted)

	ok, err := h.svc.UploadLogo(context.Background(), org.ID, logoFile())
	assert.ErrorIs(t, err, orgservice.ErrNoValidOrganization)
	assert.False(t, ok)
	assert.Empty(t, h.assets.Calls())
}

func TestUploadLogo_UploadFailureKeepsPrevious(t *testing.T) {
	h := saas(t)
	previous := h.assets.Seed()
	org := h.orgs.Put(models.Organization{Name: "Acme", State: models.OrgStateActive, LogoAssetID: previous})
	h.assets.UploadErr = assetservice.ErrTooLarge

	ok, err := h.svc.UploadLogo(context.Background(), org.ID, logoFile())
	assert.ErrorIs(t, err, bizerr.ErrInvalidParameter)
	assert.False(t, ok)

	stored, _ := h.orgs.Get(org.ID)
	assert.Equal(t, previous, stored.LogoAssetID)
	assert.True(t, h.assets.Has(previous))
}

func TestUploadLogo_PatchFailureDiscardsNewAsset(t *testing.T) {
	h := saas(t)
	previous := h.assets.Seed()
	org := h.orgs.Put(models.Organization{Name: "Acme", State: models.OrgStateActive, LogoAssetID: previous})
	h.orgs.UpdateErr = errors.New("write conflict")

	ok, err := h.svc.UploadLogo(context.Background(), org.ID, logoFile())
	assert.Error(t, err)
	assert.False(t, ok)

	calls := h.assets.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "upload", calls[0])
	assert.NotEqual(t, "delete:"+previous, calls[1])
	assert.True(t, h.assets.Has(previous), "previous logo survives a failed patch")
}

func TestDeleteLogo(t *testing.T) {
	h := saas(t)
	ctx := context.Background()
	logo := h.assets.Seed()
	org := h.orgs.Put(models.Organization{Name: "Acme", State: models.OrgStateActive, LogoAssetID: logo})

	ok, err := h.svc.DeleteLogo(ctx, org.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, h.assets.Has(logo))

	stored, _ := h.orgs.Get(org.ID)
	assert.Empty(t, stored.LogoAssetID)
	assert.Equal(t, []string{"find:" + logo, "delete:" + logo}, h.assets.Calls())
}

func TestDeleteLogo_NoLogoMakesNoAssetCalls(t *testing.T) {
	h := saas(t)
	org := h.seed("Acme", models.OrgStateActive)

	_, err := h.svc.DeleteLogo(context.Background(), org.ID)
	assert.ErrorIs(t, err, bizerr.ErrNotFound)
	assert.Empty(t, h.assets.Calls())
}

func TestDeleteLogo_DanglingReference(t *testing.T) {
	h := saas(t)
	missing := primitive.NewObjectID().Hex()
	org := h.orgs.Put(models.Organization{Name: "Acme", State: models.OrgStateActive, LogoAssetID: missing})

	_, err := h.svc.DeleteLogo(context.Background(), org.ID)
	assert.ErrorIs(t, err, bizerr.ErrNotFound)
	assert.Equal(t, []string{"find:" + missing}, h.assets.Calls())
}

func TestOperationOutcomeMetrics(t *testing.T) {
	h := saas(t)

	_, _ = h.svc.GetByID(context.Background(), primitive.NewObjectID())
	assert.Equal(t, 1.0, promtest.ToFloat64(h.metrics.OrgOperationsTotal.WithLabelValues("get_by_id", "not_found")))
}
