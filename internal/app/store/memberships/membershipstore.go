// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/orghub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("org_memberships")}
}

var errBadRole = errors.New(`role must be "ADMIN" or "MEMBER"`)

// AddMember joins userID to orgID with role. It reports false, without error,
// when the user already belongs to the organization; the existing role is
// left as is.
func (s *Store) AddMember(ctx context.Context, orgID, userID primitive.ObjectID, role models.MemberRole) (bool, error) {
	if !role.Valid() {
		return false, errBadRole
	}

	m := models.OrgMembership{
		ID:       primitive.NewObjectID(),
		OrgID:    orgID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Get returns the membership for (orgID, userID).
// Returns mongo.ErrNoDocuments when the user is not a member.
func (s *Store) Get(ctx context.Context, orgID, userID primitive.ObjectID) (models.OrgMembership, error) {
	var m models.OrgMembership
	if err := s.c.FindOne(ctx, bson.M{"org_id": orgID, "user_id": userID}).Decode(&m); err != nil {
		return models.OrgMembership{}, err
	}
	return m, nil
}

// CountByOrg counts members of an organization. An empty role counts all roles.
func (s *Store) CountByOrg(ctx context.Context, orgID primitive.ObjectID, role models.MemberRole) (int64, error) {
	filter := bson.M{"org_id": orgID}
	if role != "" {
		filter["role"] = role
	}
	return s.c.CountDocuments(ctx, filter)
}
