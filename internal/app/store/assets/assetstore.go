// internal/app/store/assets/assetstore.go
package assetstore

import (
	"context"
	"time"

	"github.com/dalemusser/orghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds asset metadata. The bytes themselves live in blob storage.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("assets")}
}

// Create inserts asset metadata. A zero ID is assigned; CreatedAt is stamped.
func (s *Store) Create(ctx context.Context, a models.Asset) (models.Asset, error) {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Asset{}, err
	}
	return a, nil
}

// GetByID returns mongo.ErrNoDocuments when the asset does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Asset, error) {
	var a models.Asset
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Asset{}, err
	}
	return a, nil
}

// Delete removes the metadata record and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// ListCreatedBefore returns up to limit assets created before t whose id
// sorts after the given one, in id order. Pass primitive.NilObjectID to
// start from the beginning.
func (s *Store) ListCreatedBefore(ctx context.Context, t time.Time, after primitive.ObjectID, limit int64) ([]models.Asset, error) {
	filter := bson.M{"created_at": bson.M{"$lt": t}}
	if !after.IsZero() {
		filter["_id"] = bson.M{"$gt": after}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(limit)
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Asset
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
