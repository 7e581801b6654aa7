// Package orgservice is the organization lifecycle core: creation and
// bootstrap, enterprise-mode membership, soft deletion, logo replacement and
// per-key settings updates.
//
// Writes across organizations, groups, memberships and assets are separate,
// non-transactional calls made in a fixed order. A failure part way through
// a sequence is returned to the caller; steps already committed stay
// committed.
package orgservice

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/dalemusser/orghub/internal/app/services/assetservice"
	organizationstore "github.com/dalemusser/orghub/internal/app/store/organizations"
	"github.com/dalemusser/orghub/internal/app/system/auditlog"
	"github.com/dalemusser/orghub/internal/app/system/bizerr"
	"github.com/dalemusser/orghub/internal/app/system/dynconf"
	"github.com/dalemusser/orghub/internal/app/system/events"
	"github.com/dalemusser/orghub/internal/app/system/metrics"
	"github.com/dalemusser/orghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/dalemusser/orghub/orgservice")

var (
	// ErrNoValidOrganization means the organization does not exist or is DELETED.
	ErrNoValidOrganization = fmt.Errorf("%w: no valid organization", bizerr.ErrNotFound)

	// ErrOrgUnavailableInEnterpriseMode means the configured enterprise
	// organization exists but has been deleted.
	ErrOrgUnavailableInEnterpriseMode = fmt.Errorf("%w: organization unavailable in enterprise mode", bizerr.ErrConfig)
)

// IncompleteSetupError reports that an organization was persisted but one of
// the provisioning steps after it failed. The organization stays ACTIVE;
// EnsureProvisioned can complete it.
type IncompleteSetupError struct {
	OrgID primitive.ObjectID
	Step  string
	Err   error
}

func (e *IncompleteSetupError) Error() string {
	return fmt.Sprintf("organization %s created but %s failed: %v", e.OrgID.Hex(), e.Step, e.Err)
}

func (e *IncompleteSetupError) Unwrap() error { return e.Err }

// OrganizationStore persists organizations. Lookups return
// mongo.ErrNoDocuments when nothing matches.
type OrganizationStore interface {
	Create(ctx context.Context, org models.Organization) (models.Organization, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error)
	FindByIDAndState(ctx context.Context, id primitive.ObjectID, state models.OrgState) (models.Organization, error)
	IterByIDsAndState(ctx context.Context, ids []primitive.ObjectID, state models.OrgState) iter.Seq2[models.Organization, error]
	FindFirstByState(ctx context.Context, state models.OrgState) (models.Organization, error)
	FindBySourceAndCompanyAndState(ctx context.Context, source, companyID string, state models.OrgState) (models.Organization, error)
	FindByDomainAndState(ctx context.Context, domain string, state models.OrgState) (models.Organization, error)
	UpdateByID(ctx context.Context, id primitive.ObjectID, p organizationstore.Patch) (bool, error)
	UpdateActiveByID(ctx context.Context, id primitive.ObjectID, p organizationstore.Patch) (bool, error)
}

// GroupService creates the system groups of an organization.
type GroupService interface {
	CreateAllUsersGroup(ctx context.Context, orgID primitive.ObjectID) error
	CreateDevGroup(ctx context.Context, orgID primitive.ObjectID) error
	ExistsByType(ctx context.Context, orgID primitive.ObjectID, typ models.GroupType) (bool, error)
}

// MemberService joins users to organizations. AddMember reports false when
// the user was already a member. Get returns mongo.ErrNoDocuments for a
// non-member; an empty role makes CountByOrg count every role.
type MemberService interface {
	AddMember(ctx context.Context, orgID, userID primitive.ObjectID, role models.MemberRole) (bool, error)
	Get(ctx context.Context, orgID, userID primitive.ObjectID) (models.OrgMembership, error)
	CountByOrg(ctx context.Context, orgID primitive.ObjectID, role models.MemberRole) (int64, error)
}

// AssetService stores uploaded files.
type AssetService interface {
	Upload(ctx context.Context, file assetservice.FilePart, maxSizeKB int, public bool) (models.Asset, error)
	FindByID(ctx context.Context, id string) (models.Asset, bool, error)
	Delete(ctx context.Context, a models.Asset) error
	Remove(ctx context.Context, id string) error
}

// Publisher hands events off without waiting for delivery.
type Publisher interface {
	Publish(e events.Event) bool
}

// Deps are the collaborators of a Service. Audit and Metrics may be nil.
type Deps struct {
	Orgs    OrganizationStore
	Groups  GroupService
	Members MemberService
	Assets  AssetService
	Events  Publisher
	Config  dynconf.Source
	Audit   *auditlog.Logger
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

type Service struct {
	orgs    OrganizationStore
	groups  GroupService
	members MemberService
	assets  AssetService
	events  Publisher
	conf    dynconf.Source
	audit   *auditlog.Logger
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	conf := d.Config
	if conf == nil {
		conf = dynconf.Static{Mode: dynconf.ModeSaaS, LogoMaxSizeKB: dynconf.DefaultLogoMaxSizeKB}
	}
	return &Service{
		orgs:    d.Orgs,
		groups:  d.Groups,
		members: d.Members,
		assets:  d.Assets,
		events:  d.Events,
		conf:    conf,
		audit:   d.Audit,
		metrics: d.Metrics,
		log:     logger,
		now:     time.Now,
	}
}

// begin opens a span for op. The returned func ends it and records the
// outcome; call it with a pointer to the operation's named error.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "orgservice."+op, trace.WithAttributes(attrs...))
	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		outcome := outcomeOf(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		s.metrics.ObserveOperation(op, outcome, time.Since(start))
	}
}

func outcomeOf(err error) string {
	switch kind := bizerr.Kind(err); {
	case err == nil:
		return "ok"
	case errors.Is(kind, bizerr.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(kind, bizerr.ErrNotFound):
		return "not_found"
	case errors.Is(kind, bizerr.ErrConfig):
		return "config_error"
	case errors.Is(kind, bizerr.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

func orgAttr(id primitive.ObjectID) attribute.KeyValue {
	return attribute.String("org.id", id.Hex())
}
