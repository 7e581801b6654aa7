// Package assetservice uploads and removes assets: bytes go to a blob store,
// metadata to the assets collection.
package assetservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dalemusser/orghub/internal/app/system/blobstore"
	"github.com/dalemusser/orghub/internal/app/system/bizerr"
	"github.com/dalemusser/orghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// KeyPrefix is the blob key prefix of every stored logo.
const KeyPrefix = "logos"

// ErrTooLarge is returned when an upload exceeds the size limit.
var ErrTooLarge = fmt.Errorf("%w: file exceeds size limit", bizerr.ErrInvalidParameter)

// FilePart is a single uploaded file.
type FilePart struct {
	FileName    string
	ContentType string
	// Size is the declared length, or -1 when unknown.
	Size    int64
	Content io.Reader
}

// MetadataStore persists asset records. Satisfied by *assetstore.Store.
type MetadataStore interface {
	Create(ctx context.Context, a models.Asset) (models.Asset, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Asset, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type Service struct {
	meta  MetadataStore
	blobs blobstore.Store
	log   *zap.Logger
	now   func() time.Time
}

func New(meta MetadataStore, blobs blobstore.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{meta: meta, blobs: blobs, log: logger, now: time.Now}
}

// Upload stores an image of at most maxSizeKB kilobytes (no limit when
// maxSizeKB <= 0) and records its metadata.
func (s *Service) Upload(ctx context.Context, file FilePart, maxSizeKB int, public bool) (models.Asset, error) {
	if file.Content == nil {
		return models.Asset{}, bizerr.InvalidParameter("file")
	}
	ct := strings.ToLower(strings.TrimSpace(file.ContentType))
	if !strings.HasPrefix(ct, "image/") {
		return models.Asset{}, bizerr.InvalidParameterf("unsupported content type %q", file.ContentType)
	}

	limit := int64(maxSizeKB) * 1024
	if limit > 0 && file.Size > limit {
		return models.Asset{}, ErrTooLarge
	}

	r := file.Content
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Asset{}, fmt.Errorf("reading upload: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return models.Asset{}, ErrTooLarge
	}
	if len(data) == 0 {
		return models.Asset{}, bizerr.InvalidParameterf("empty file")
	}

	key := blobstore.NewKey(KeyPrefix, file.FileName, s.now().UTC())
	if err := s.blobs.Put(ctx, key, bytes.NewReader(data), ct); err != nil {
		return models.Asset{}, fmt.Errorf("storing asset blob: %w", err)
	}

	asset, err := s.meta.Create(ctx, models.Asset{
		FileName:    file.FileName,
		ContentType: ct,
		Size:        int64(len(data)),
		StoragePath: key,
		Public:      public,
	})
	if err != nil {
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			s.log.Warn("orphaned asset blob after metadata failure",
				zap.String("key", key), zap.Error(derr))
		}
		return models.Asset{}, fmt.Errorf("saving asset metadata: %w", err)
	}
	return asset, nil
}

// FindByID returns the asset with the given hex id. A malformed or unknown
// id reports found=false.
func (s *Service) FindByID(ctx context.Context, id string) (models.Asset, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Asset{}, false, nil
	}
	a, err := s.meta.GetByID(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Asset{}, false, nil
	}
	if err != nil {
		return models.Asset{}, false, err
	}
	return a, true, nil
}

// Delete removes the asset record, then its blob. A blob left behind by a
// failed second step is logged and the error returned.
func (s *Service) Delete(ctx context.Context, a models.Asset) error {
	if _, err := s.meta.Delete(ctx, a.ID); err != nil {
		return fmt.Errorf("deleting asset metadata: %w", err)
	}
	if err := s.blobs.Delete(ctx, a.StoragePath); err != nil {
		s.log.Warn("asset blob left behind", zap.String("asset_id", a.ID.Hex()),
			zap.String("key", a.StoragePath), zap.Error(err))
		return fmt.Errorf("deleting asset blob: %w", err)
	}
	return nil
}

// Remove deletes the asset with the given id if it exists.
func (s *Service) Remove(ctx context.Context, id string) error {
	a, found, err := s.FindByID(ctx, id)
	if err != nil || !found {
		return err
	}
	return s.Delete(ctx, a)
}

// Open streams the asset's bytes.
func (s *Service) Open(ctx context.Context, a models.Asset) (io.ReadCloser, error) {
	return s.blobs.Get(ctx, a.StoragePath)
}
