package orgservice

import (
	"context"
	"fmt"

	"github.com/dalemusser/orghub/internal/app/services/assetservice"
	organizationstore "github.com/dalemusser/orghub/internal/app/store/organizations"
	"github.com/dalemusser/orghub/internal/app/system/bizerr"
	"github.com/dalemusser/orghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UploadLogo stores file as the organization's new logo.
//
// The previous logo id is read from the stored organization before the
// upload. After the new asset is stored only logo_asset_id is patched; the
// previous asset is deleted after that patch has committed, never before.
//
// The bool reports whether the organization now references the new logo.
// It can be true together with an error when removing the previous asset
// failed.
func (s *Service) UploadLogo(ctx context.Context, orgID primitive.ObjectID, file assetservice.FilePart) (_ bool, err error) {
	ctx, end := s.begin(ctx, "upload_logo", orgAttr(orgID))
	defer end(&err)

	snap := s.conf.Current()

	current, err := s.activeOrg(ctx, orgID)
	if err != nil {
		return false, err
	}
	previous := current.LogoAssetID

	asset, err := s.assets.Upload(ctx, file, snap.LogoMaxSizeKB, false)
	if err != nil {
		return false, err
	}
	newID := asset.ID.Hex()

	ok, err := s.orgs.UpdateActiveByID(ctx, orgID, organizationstore.Patch{}.SetLogoAssetID(newID))
	if err != nil || !ok {
		// Nothing references the new asset.
		s.discardAsset(ctx, asset)
		if err != nil {
			return false, fmt.Errorf("recording logo: %w", err)
		}
		return false, ErrNoValidOrganization
	}

	s.audit.LogoUploaded(ctx, orgID, newID, previous)

	if previous != "" && previous != newID {
		if err := s.assets.Remove(ctx, previous); err != nil {
			s.log.Warn("previous logo not removed",
				zap.String("org_id", orgID.Hex()),
				zap.String("asset_id", previous),
				zap.Error(err))
			return true, fmt.Errorf("removing previous logo %s: %w", previous, err)
		}
	}
	return true, nil
}

func (s *Service) discardAsset(ctx context.Context, a models.Asset) {
	if err := s.assets.Delete(ctx, a); err != nil {
		s.log.Warn("orphaned logo asset not removed",
			zap.String("asset_id", a.ID.Hex()), zap.Error(err))
	}
}

// DeleteLogo removes the organization's logo: first the asset, then the
// reference. If clearing the reference fails the organization is left
// pointing at a deleted asset; calling DeleteLogo again then reports the
// dangling id as not found.
func (s *Service) DeleteLogo(ctx context.Context, orgID primitive.ObjectID) (_ bool, err error) {
	ctx, end := s.begin(ctx, "delete_logo", orgAttr(orgID))
	defer end(&err)

	org, err := s.activeOrg(ctx, orgID)
	if err != nil {
		return false, err
	}
	if !org.HasLogo() {
		return false, bizerr.NotFound("logo of organization " + orgID.Hex())
	}

	asset, found, err := s.assets.FindByID(ctx, org.LogoAssetID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, bizerr.NotFound("asset " + org.LogoAssetID)
	}

	if err := s.assets.Delete(ctx, asset); err != nil {
		return false, fmt.Errorf("deleting logo asset: %w", err)
	}

	ok, err := s.orgs.UpdateActiveByID(ctx, orgID, organizationstore.Patch{}.ClearLogoAssetID())
	if err != nil {
		return false, fmt.Errorf("clearing logo reference: %w", err)
	}
	if ok {
		s.audit.LogoDeleted(ctx, orgID, org.LogoAssetID)
	}
	return ok, nil
}
