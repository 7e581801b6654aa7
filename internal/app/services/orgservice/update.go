package orgservice

import (
	"context"
	"strings"

	organizationstore "github.com/dalemusser/orghub/internal/app/store/organizations"
	"github.com/dalemusser/orghub/internal/app/system/bizerr"
	"github.com/dalemusser/orghub/internal/app/system/events"
	"github.com/dalemusser/orghub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/orghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// UpdateRequest lists the fields Update may change. Nil fields are left
// alone. An empty Domain removes the domain.
type UpdateRequest struct {
	Name                *string `json:"name,omitempty"`
	Source              *string `json:"source,omitempty"`
	ThirdPartyCompanyID *string `json:"third_party_company_id,omitempty"`
	Domain              *string `json:"domain,omitempty"`
}

// Update patches the given fields of an ACTIVE organization. It reports
// false when no ACTIVE organization has that id.
func (s *Service) Update(ctx context.Context, orgID primitive.ObjectID, req UpdateRequest) (_ bool, err error) {
	ctx, end := s.begin(ctx, "update", orgAttr(orgID))
	defer end(&err)

	var p organizationstore.Patch
	var changed []string

	if req.Name != nil {
		name := htmlsanitize.PlainText(*req.Name)
		if name == "" {
			return false, bizerr.InvalidParameter("name")
		}
		p.Name = &name
		changed = append(changed, "name")
	}
	if req.Source != nil {
		v := strings.TrimSpace(*req.Source)
		p.Source = &v
		changed = append(changed, "source")
	}
	if req.ThirdPartyCompanyID != nil {
		v := strings.TrimSpace(*req.ThirdPartyCompanyID)
		p.ThirdPartyCompanyID = &v
		changed = append(changed, "third_party_company_id")
	}
	if req.Domain != nil {
		v := strings.ToLower(strings.TrimSpace(*req.Domain))
		p.Domain = &v
		changed = append(changed, "domain")
	}
	if p.IsEmpty() {
		return false, bizerr.InvalidParameterf("no fields to update")
	}

	ok, err := s.orgs.UpdateActiveByID(ctx, orgID, p)
	if err != nil {
		return false, err
	}
	if ok {
		s.audit.OrgUpdated(ctx, orgID, changed)
	}
	return ok, nil
}

// Delete soft-deletes an organization by setting its state to DELETED.
// There is no prior-state check. When the update matched a record an
// OrgDeleted event is handed to the bus exactly once; delivery is not
// awaited and does not affect the result. A missing id reports false and
// publishes nothing.
func (s *Service) Delete(ctx context.Context, orgID primitive.ObjectID) (_ bool, err error) {
	ctx, end := s.begin(ctx, "delete", orgAttr(orgID))
	defer end(&err)

	ok, err := s.orgs.UpdateByID(ctx, orgID, organizationstore.Patch{}.SetState(models.OrgStateDeleted))
	if err != nil || !ok {
		return false, err
	}

	if s.events != nil && !s.events.Publish(events.OrgDeleted{OrgID: orgID, DeletedAt: s.now().UTC()}) {
		s.log.Warn("org deleted notification not queued", zap.String("org_id", orgID.Hex()))
	}
	return true, nil
}

// UpdateCommonSettings writes one common setting and its <key>_updateTime
// companion (epoch millis) in a single partial update. There is no
// read-modify-write: different keys never interfere, and concurrent writes
// of the same key are last-write-wins. Only ACTIVE organizations are
// updated; otherwise it reports false.
func (s *Service) UpdateCommonSettings(ctx context.Context, orgID primitive.ObjectID, key string, value any) (_ bool, err error) {
	ctx, end := s.begin(ctx, "update_common_settings", orgAttr(orgID), attribute.String("setting.key", key))
	defer end(&err)

	if err := validSettingKey(key); err != nil {
		return false, err
	}

	ok, err := s.orgs.UpdateActiveByID(ctx, orgID, organizationstore.Patch{}.SetSetting(key, value, s.now()))
	if err != nil {
		return false, err
	}
	if ok {
		s.audit.SettingUpdated(ctx, orgID, key)
	}
	return ok, nil
}

// validSettingKey rejects keys that would address something other than a
// single top-level entry of common_settings.
func validSettingKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return bizerr.InvalidParameter("key")
	case strings.Contains(key, "."), strings.HasPrefix(key, "$"):
		return bizerr.InvalidParameterf("key %q contains reserved characters", key)
	case strings.HasSuffix(key, models.UpdateTimeSuffix):
		return bizerr.InvalidParameterf("key %q uses the reserved %s suffix", key, models.UpdateTimeSuffix)
	}
	return nil
}
