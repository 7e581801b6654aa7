package orgservice

import (
	"context"
	"errors"
	"iter"
	"maps"

	"github.com/dalemusser/orghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
)

// activeOrg loads an ACTIVE organization or returns ErrNoValidOrganization.
func (s *Service) activeOrg(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	org, err := s.orgs.FindByIDAndState(ctx, id, models.OrgStateActive)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Organization{}, ErrNoValidOrganization
	}
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// GetByID returns the organization if it exists and is ACTIVE. DELETED and
// missing organizations both yield ErrNoValidOrganization.
func (s *Service) GetByID(ctx context.Context, id primitive.ObjectID) (_ models.Organization, err error) {
	ctx, end := s.begin(ctx, "get_by_id", orgAttr(id))
	defer end(&err)
	return s.activeOrg(ctx, id)
}

// GetOrgCommonSettings returns the settings map of an ACTIVE organization,
// including the _updateTime companions. The map is a copy.
func (s *Service) GetOrgCommonSettings(ctx context.Context, id primitive.ObjectID) (_ map[string]any, err error) {
	ctx, end := s.begin(ctx, "get_common_settings", orgAttr(id))
	defer end(&err)

	org, err := s.activeOrg(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(org.CommonSettings))
	maps.Copy(out, org.CommonSettings)
	return out, nil
}

// GetByIDs lazily yields the ACTIVE organizations among ids. Unknown and
// DELETED ids are skipped silently; duplicates are queried once.
func (s *Service) GetByIDs(ctx context.Context, ids []primitive.ObjectID) iter.Seq2[models.Organization, error] {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	uniq := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	return s.orgs.IterByIDsAndState(ctx, uniq, models.OrgStateActive)
}

// GetBySourceAndTpCompanyID finds the ACTIVE organization correlated with
// an external company. No match is found=false, not an error.
func (s *Service) GetBySourceAndTpCompanyID(ctx context.Context, source, companyID string) (_ models.Organization, found bool, err error) {
	ctx, end := s.begin(ctx, "get_by_source_company",
		attribute.String("org.source", source))
	defer end(&err)

	org, err := s.orgs.FindBySourceAndCompanyAndState(ctx, source, companyID, models.OrgStateActive)
	return lookupResult(org, err)
}

// GetByDomain finds the ACTIVE organization claiming domain.
func (s *Service) GetByDomain(ctx context.Context, domain string) (_ models.Organization, found bool, err error) {
	ctx, end := s.begin(ctx, "get_by_domain", attribute.String("org.domain", domain))
	defer end(&err)

	org, err := s.orgs.FindByDomainAndState(ctx, domain, models.OrgStateActive)
	return lookupResult(org, err)
}

func lookupResult(org models.Organization, err error) (models.Organization, bool, error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Organization{}, false, nil
	}
	if err != nil {
		return models.Organization{}, false, err
	}
	return org, true, nil
}
