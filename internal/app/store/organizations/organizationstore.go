// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"iter"
	"time"

	"github.com/dalemusser/orghub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations")}
}

// Create inserts a new organization and returns it with its assigned ID.
// The caller decides the initial state.
func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	now := time.Now().UTC()
	org.ID = primitive.NewObjectID()
	org.NameCI = text.Fold(org.Name)
	org.CreatedAt = now
	org.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, org); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// FindByID loads an organization regardless of state.
// Returns mongo.ErrNoDocuments when absent.
func (s *Store) FindByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindByIDAndState loads an organization only if it is in the given state.
func (s *Store) FindByIDAndState(ctx context.Context, id primitive.ObjectID, state models.OrgState) (models.Organization, error) {
	return s.findOne(ctx, bson.M{"_id": id, "state": state})
}

// FindFirstByState returns the oldest organization in the given state.
func (s *Store) FindFirstByState(ctx context.Context, state models.OrgState) (models.Organization, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	return s.findOne(ctx, bson.M{"state": state}, opts)
}

// FindBySourceAndCompanyAndState looks an organization up by its external identity.
func (s *Store) FindBySourceAndCompanyAndState(ctx context.Context, source, companyID string, state models.OrgState) (models.Organization, error) {
	return s.findOne(ctx, bson.M{
		"source":                 source,
		"third_party_company_id": companyID,
		"state":                  state,
	})
}

// FindByDomainAndState looks an organization up by its claimed domain.
func (s *Store) FindByDomainAndState(ctx context.Context, domain string, state models.OrgState) (models.Organization, error) {
	return s.findOne(ctx, bson.M{
		"organization_domain.domain": domain,
		"state":                      state,
	})
}

// IterByIDsAndState streams the organizations among ids that are in the given
// state. Ids that do not exist or are in another state are skipped. The cursor
// is opened on first iteration and closed when iteration stops.
func (s *Store) IterByIDsAndState(ctx context.Context, ids []primitive.ObjectID, state models.OrgState) iter.Seq2[models.Organization, error] {
	return func(yield func(models.Organization, error) bool) {
		if len(ids) == 0 {
			return
		}
		cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "state": state})
		if err != nil {
			yield(models.Organization{}, err)
			return
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			var org models.Organization
			if err := cur.Decode(&org); err != nil {
				yield(models.Organization{}, err)
				return
			}
			if !yield(org, nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(models.Organization{}, err)
		}
	}
}

// UpdateByID applies p to the organization with the given id, whatever its
// state. Reports whether a document matched.
func (s *Store) UpdateByID(ctx context.Context, id primitive.ObjectID, p Patch) (bool, error) {
	return s.update(ctx, bson.M{"_id": id}, p)
}

// UpdateActiveByID applies p only if the organization is ACTIVE.
func (s *Store) UpdateActiveByID(ctx context.Context, id primitive.ObjectID, p Patch) (bool, error) {
	return s.update(ctx, bson.M{"_id": id, "state": models.OrgStateActive}, p)
}

// ReferencesLogo reports whether any organization, ACTIVE or DELETED, has
// assetID as its logo.
func (s *Store) ReferencesLogo(ctx context.Context, assetID string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"logo_asset_id": assetID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) update(ctx context.Context, filter bson.M, p Patch) (bool, error) {
	if p.IsEmpty() {
		return false, nil
	}
	res, err := s.c.UpdateOne(ctx, filter, p.document(time.Now().UTC()))
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (models.Organization, error) {
	var org models.Organization
	if err := s.c.FindOne(ctx, filter, opts...).Decode(&org); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}
