// internal/domain/models/organization.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrgState is the lifecycle state of an organization.
// ACTIVE -> DELETED is the only transition; DELETED is terminal.
type OrgState string

const (
	OrgStateActive  OrgState = "ACTIVE"
	OrgStateDeleted OrgState = "DELETED"
)

// UpdateTimeSuffix is appended to a common-settings key to form the key
// holding the last write time (epoch millis) of that setting.
const UpdateTimeSuffix = "_updateTime"

// Organization is a tenant workspace. Records are soft-deleted only.
type Organization struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"` // ← always stored
	State  OrgState           `bson:"state" json:"state"`

	// LogoAssetID references an Asset; empty means no logo.
	LogoAssetID string `bson:"logo_asset_id,omitempty" json:"logo_asset_id,omitempty"`

	CommonSettings map[string]any `bson:"common_settings,omitempty" json:"common_settings,omitempty"`

	IsAutoGeneratedOrganization bool `bson:"is_auto_generated_organization" json:"is_auto_generated_organization"`

	// External identity correlation (not unique).
	Source              string              `bson:"source,omitempty" json:"source,omitempty"`
	ThirdPartyCompanyID string              `bson:"third_party_company_id,omitempty" json:"third_party_company_id,omitempty"`
	OrganizationDomain  *OrganizationDomain `bson:"organization_domain,omitempty" json:"organization_domain,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// OrganizationDomain is the email/login domain an organization claims.
type OrganizationDomain struct {
	Domain string `bson:"domain" json:"domain"`
}

// IsActive reports whether the organization is visible to normal lookups.
func (o Organization) IsActive() bool {
	return o.State == OrgStateActive
}

// HasLogo returns true if the organization references a logo asset.
func (o Organization) HasLogo() bool {
	return strings.TrimSpace(o.LogoAssetID) != ""
}

// SettingUpdateTimeKey returns the companion timestamp key for a setting key.
func SettingUpdateTimeKey(key string) string {
	return key + UpdateTimeSuffix
}
