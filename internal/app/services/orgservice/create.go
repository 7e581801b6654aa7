package orgservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/orghub/internal/app/system/bizerr"
	"github.com/dalemusser/orghub/internal/app/system/dynconf"
	"github.com/dalemusser/orghub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/orghub/internal/app/system/locale"
	"github.com/dalemusser/orghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Provisioning step names, as reported in IncompleteSetupError.Step.
const (
	StepAllUsersGroup   = "all_users_group"
	StepDevGroup        = "dev_group"
	StepAdminMembership = "admin_membership"
)

// Create persists a new ACTIVE organization, then creates its all-users
// group, its developer group and the creator's ADMIN membership, in that
// order. org must not carry an id.
//
// If persisting the organization fails nothing else runs. If a later step
// fails the organization remains ACTIVE and partially set up; the error is
// an *IncompleteSetupError wrapping the step's error.
func (s *Service) Create(ctx context.Context, org models.Organization, creatorID primitive.ObjectID) (_ models.Organization, err error) {
	ctx, end := s.begin(ctx, "create")
	defer end(&err)
	return s.create(ctx, org, creatorID)
}

func (s *Service) create(ctx context.Context, org models.Organization, creatorID primitive.ObjectID) (models.Organization, error) {
	if !org.ID.IsZero() {
		return models.Organization{}, bizerr.InvalidParameter("organization")
	}
	if creatorID.IsZero() {
		return models.Organization{}, bizerr.InvalidParameter("creatorId")
	}
	org.Name = htmlsanitize.PlainText(org.Name)
	if org.Name == "" {
		return models.Organization{}, bizerr.InvalidParameter("name")
	}
	org.State = models.OrgStateActive

	created, err := s.orgs.Create(ctx, org)
	if err != nil {
		return models.Organization{}, fmt.Errorf("saving organization: %w", err)
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{StepAllUsersGroup, func(ctx context.Context) error {
			return s.groups.CreateAllUsersGroup(ctx, created.ID)
		}},
		{StepDevGroup, func(ctx context.Context) error {
			return s.groups.CreateDevGroup(ctx, created.ID)
		}},
		{StepAdminMembership, func(ctx context.Context) error {
			_, err := s.members.AddMember(ctx, created.ID, creatorID, models.RoleAdmin)
			return err
		}},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			s.log.Warn("organization created but setup incomplete",
				zap.String("org_id", created.ID.Hex()),
				zap.String("step", step.name),
				zap.Error(err))
			s.audit.OrgSetupIncomplete(ctx, created.ID, creatorID, step.name, err)
			return models.Organization{}, &IncompleteSetupError{OrgID: created.ID, Step: step.name, Err: err}
		}
	}

	s.audit.OrgCreated(ctx, created, creatorID)
	return created, nil
}

// CreateDefault bootstraps a newly registered user.
//
// In SAAS mode it creates "<name><suffix>" (suffix localized from ctx),
// marked auto-generated, with the user as ADMIN, and returns it with
// created=true.
//
// In ENTERPRISE mode it adds the user as MEMBER of the enterprise
// organization and returns created=false with a nil error. Only when no
// enterprise organization exists does it fall back to the SAAS behavior.
func (s *Service) CreateDefault(ctx context.Context, user models.User) (_ models.Organization, created bool, err error) {
	ctx, end := s.begin(ctx, "create_default", attribute.String("user.id", user.ID.Hex()))
	defer end(&err)

	if user.ID.IsZero() {
		return models.Organization{}, false, bizerr.InvalidParameter("user")
	}

	snap := s.conf.Current()
	if snap.IsEnterprise() {
		ent, found, err := s.enterpriseOrg(ctx, snap)
		if err != nil {
			return models.Organization{}, false, err
		}
		if found {
			if _, err := s.members.AddMember(ctx, ent.ID, user.ID, models.RoleMember); err != nil {
				return models.Organization{}, false, fmt.Errorf("joining enterprise organization: %w", err)
			}
			s.audit.MemberJoined(ctx, ent.ID, user.ID, models.RoleMember)
			return models.Organization{}, false, nil
		}
		s.log.Info("no enterprise organization yet; creating one", zap.String("user_id", user.ID.Hex()))
	}

	org := models.Organization{
		Name:                        user.Name + locale.Message(ctx, locale.KeyUserOrgSuffix),
		IsAutoGeneratedOrganization: true,
	}
	out, err := s.create(ctx, org, user.ID)
	if err != nil {
		return models.Organization{}, false, err
	}
	return out, true, nil
}

// GetOrganizationInEnterpriseMode returns the single shared organization.
// In SAAS mode it reports found=false.
func (s *Service) GetOrganizationInEnterpriseMode(ctx context.Context) (_ models.Organization, found bool, err error) {
	ctx, end := s.begin(ctx, "get_enterprise_org")
	defer end(&err)

	snap := s.conf.Current()
	if !snap.IsEnterprise() {
		return models.Organization{}, false, nil
	}
	return s.enterpriseOrg(ctx, snap)
}

// enterpriseOrg resolves the configured enterprise organization, falling
// back to the oldest ACTIVE organization when no id is configured or the
// configured id does not exist. A configured organization that is DELETED
// is a configuration error.
func (s *Service) enterpriseOrg(ctx context.Context, snap dynconf.Snapshot) (models.Organization, bool, error) {
	if snap.EnterpriseOrgID != "" {
		oid, err := primitive.ObjectIDFromHex(snap.EnterpriseOrgID)
		if err != nil {
			return models.Organization{}, false, fmt.Errorf("%w: enterprise_org_id %q is not a valid id", bizerr.ErrConfig, snap.EnterpriseOrgID)
		}
		org, err := s.orgs.FindByID(ctx, oid)
		switch {
		case err == nil && org.IsActive():
			return org, true, nil
		case err == nil:
			s.log.Error("configured enterprise organization is deleted",
				zap.String("org_id", snap.EnterpriseOrgID))
			return models.Organization{}, false, ErrOrgUnavailableInEnterpriseMode
		case !errors.Is(err, mongo.ErrNoDocuments):
			return models.Organization{}, false, err
		}
		s.log.Warn("configured enterprise organization not found; using first active organization",
			zap.String("org_id", snap.EnterpriseOrgID))
	}

	org, err := s.orgs.FindFirstByState(ctx, models.OrgStateActive)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Organization{}, false, nil
	}
	if err != nil {
		return models.Organization{}, false, err
	}
	return org, true, nil
}

// EnsureProvisioned creates whatever Create would have created for an
// ACTIVE organization but is missing, and returns the steps it performed.
// It is safe to call repeatedly.
//
// An organization that already has an ADMIN can only be provisioned by one
// of its ADMINs; anyone else gets ErrForbidden before anything is written.
// An organization without any ADMIN, as left by a failed Create, gets
// callerID as its ADMIN. If callerID is already a member with another role
// that role is kept.
func (s *Service) EnsureProvisioned(ctx context.Context, orgID, callerID primitive.ObjectID) (performed []string, err error) {
	ctx, end := s.begin(ctx, "ensure_provisioned", orgAttr(orgID))
	defer end(&err)

	if callerID.IsZero() {
		return nil, bizerr.InvalidParameter("callerId")
	}
	if _, err := s.activeOrg(ctx, orgID); err != nil {
		return nil, err
	}

	admins, err := s.members.CountByOrg(ctx, orgID, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if admins > 0 {
		if err := s.requireAdmin(ctx, orgID, callerID); err != nil {
			return nil, err
		}
	}

	groups := []struct {
		typ    models.GroupType
		step   string
		create func(context.Context, primitive.ObjectID) error
	}{
		{models.GroupTypeAllUsers, StepAllUsersGroup, s.groups.CreateAllUsersGroup},
		{models.GroupTypeDev, StepDevGroup, s.groups.CreateDevGroup},
	}
	for _, g := range groups {
		exists, err := s.groups.ExistsByType(ctx, orgID, g.typ)
		if err != nil {
			return performed, err
		}
		if exists {
			continue
		}
		if err := g.create(ctx, orgID); err != nil {
			return performed, err
		}
		performed = append(performed, g.step)
	}

	if admins == 0 {
		added, err := s.members.AddMember(ctx, orgID, callerID, models.RoleAdmin)
		if err != nil {
			return performed, err
		}
		if added {
			performed = append(performed, StepAdminMembership)
		}
	}

	if len(performed) > 0 {
		s.audit.OrgProvisioned(ctx, orgID, callerID, performed)
	}
	return performed, nil
}

func (s *Service) requireAdmin(ctx context.Context, orgID, userID primitive.ObjectID) error {
	m, err := s.members.Get(ctx, orgID, userID)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return bizerr.Forbidden("caller is not a member of the organization")
	case err != nil:
		return err
	case m.Role != models.RoleAdmin:
		return bizerr.Forbidden("caller is not an organization admin")
	}
	return nil
}
