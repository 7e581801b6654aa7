// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/orghub/internal/app/system/status"
	"github.com/dalemusser/orghub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// System group names.
const (
	AllUsersGroupName = "All Users"
	DevGroupName      = "Developers"
)

type Store struct {
	c *mongo.Collection
}

// ErrDuplicateSystemGroup is returned when the organization already owns a
// system group of the requested type.
var ErrDuplicateSystemGroup = errors.New("organization already has this system group")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

// CreateAllUsersGroup creates the all-users group for orgID.
func (s *Store) CreateAllUsersGroup(ctx context.Context, orgID primitive.ObjectID) error {
	_, err := s.create(ctx, orgID, models.GroupTypeAllUsers, AllUsersGroupName)
	return err
}

// CreateDevGroup creates the developer group for orgID.
func (s *Store) CreateDevGroup(ctx context.Context, orgID primitive.ObjectID) error {
	_, err := s.create(ctx, orgID, models.GroupTypeDev, DevGroupName)
	return err
}

func (s *Store) create(ctx context.Context, orgID primitive.ObjectID, typ models.GroupType, name string) (models.Group, error) {
	now := time.Now().UTC()
	g := models.Group{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		OrganizationID: orgID,
		Type:           typ,
		Status:         status.Active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateSystemGroup
		}
		return models.Group{}, err
	}
	return g, nil
}

// ExistsByType reports whether the organization has a group of the given type.
func (s *Store) ExistsByType(ctx context.Context, orgID primitive.ObjectID, typ models.GroupType) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"organization_id": orgID, "type": typ})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
