// internal/app/store/organizations/patch.go
package organizationstore

import (
	"time"

	"github.com/dalemusser/orghub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
)

// Patch is a partial update of an organization. Only the fields that are set
// are written; everything else in the stored document is left untouched.
// A Patch is never a full-record replace.
//
// For LogoAssetID and Domain, a pointer to "" removes the field.
type Patch struct {
	Name                *string
	State               *models.OrgState
	LogoAssetID         *string
	Source              *string
	ThirdPartyCompanyID *string
	Domain              *string

	// Settings holds common_settings entries keyed by setting key.
	Settings map[string]any
}

// SetLogoAssetID points the organization at a new logo asset.
func (p Patch) SetLogoAssetID(id string) Patch {
	p.LogoAssetID = &id
	return p
}

// ClearLogoAssetID removes the logo reference.
func (p Patch) ClearLogoAssetID() Patch {
	empty := ""
	p.LogoAssetID = &empty
	return p
}

// SetState moves the organization to state.
func (p Patch) SetState(state models.OrgState) Patch {
	p.State = &state
	return p
}

// SetSetting writes a common setting together with its _updateTime companion
// (epoch millis of at). Both land in the same update document.
func (p Patch) SetSetting(key string, value any, at time.Time) Patch {
	settings := make(map[string]any, len(p.Settings)+2)
	for k, v := range p.Settings {
		settings[k] = v
	}
	settings[key] = value
	settings[models.SettingUpdateTimeKey(key)] = at.UnixMilli()
	p.Settings = settings
	return p
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.State == nil && p.LogoAssetID == nil &&
		p.Source == nil && p.ThirdPartyCompanyID == nil && p.Domain == nil &&
		len(p.Settings) == 0
}

// Apply returns org with the patch applied, mirroring what document() does
// in Mongo. Used by in-memory stores.
func (p Patch) Apply(org models.Organization, now time.Time) models.Organization {
	if p.Name != nil {
		org.Name = *p.Name
		org.NameCI = text.Fold(*p.Name)
	}
	if p.State != nil {
		org.State = *p.State
	}
	if p.LogoAssetID != nil {
		org.LogoAssetID = *p.LogoAssetID
	}
	if p.Source != nil {
		org.Source = *p.Source
	}
	if p.ThirdPartyCompanyID != nil {
		org.ThirdPartyCompanyID = *p.ThirdPartyCompanyID
	}
	if p.Domain != nil {
		if *p.Domain == "" {
			org.OrganizationDomain = nil
		} else {
			org.OrganizationDomain = &models.OrganizationDomain{Domain: *p.Domain}
		}
	}
	if len(p.Settings) > 0 {
		settings := make(map[string]any, len(org.CommonSettings)+len(p.Settings))
		for k, v := range org.CommonSettings {
			settings[k] = v
		}
		for k, v := range p.Settings {
			settings[k] = v
		}
		org.CommonSettings = settings
	}
	org.UpdatedAt = now
	return org
}

func (p Patch) document(now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	unset := bson.M{}

	if p.Name != nil {
		set["name"] = *p.Name
		set["name_ci"] = text.Fold(*p.Name)
	}
	if p.State != nil {
		set["state"] = *p.State
	}
	if p.LogoAssetID != nil {
		if *p.LogoAssetID == "" {
			unset["logo_asset_id"] = ""
		} else {
			set["logo_asset_id"] = *p.LogoAssetID
		}
	}
	if p.Source != nil {
		set["source"] = *p.Source
	}
	if p.ThirdPartyCompanyID != nil {
		set["third_party_company_id"] = *p.ThirdPartyCompanyID
	}
	if p.Domain != nil {
		if *p.Domain == "" {
			unset["organization_domain"] = ""
		} else {
			set["organization_domain.domain"] = *p.Domain
		}
	}
	for k, v := range p.Settings {
		set["common_settings."+k] = v
	}

	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	return doc
}
