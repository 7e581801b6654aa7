package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/orghub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization inserts an ACTIVE organization with the given name.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()
	return f.insertOrganization(ctx, models.Organization{Name: name, State: models.OrgStateActive})
}

// CreateDeletedOrganization inserts an organization already in DELETED state.
func (f *Fixtures) CreateDeletedOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()
	return f.insertOrganization(ctx, models.Organization{Name: name, State: models.OrgStateDeleted})
}

// CreateExternalOrganization inserts an ACTIVE organization with an external
// identity and optional domain.
func (f *Fixtures) CreateExternalOrganization(ctx context.Context, name, source, companyID, domain string) models.Organization {
	f.t.Helper()
	org := models.Organization{
		Name:                name,
		State:               models.OrgStateActive,
		Source:              source,
		ThirdPartyCompanyID: companyID,
	}
	if domain != "" {
		org.OrganizationDomain = &models.OrganizationDomain{Domain: domain}
	}
	return f.insertOrganization(ctx, org)
}

func (f *Fixtures) insertOrganization(ctx context.Context, org models.Organization) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org.ID = primitive.NewObjectID()
	org.NameCI = text.Fold(org.Name)
	org.CreatedAt = now
	org.UpdatedAt = now

	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateAsset inserts asset metadata without any stored bytes.
func (f *Fixtures) CreateAsset(ctx context.Context, fileName string) models.Asset {
	f.t.Helper()

	a := models.Asset{
		ID:          primitive.NewObjectID(),
		FileName:    fileName,
		ContentType: "image/png",
		Size:        4,
		StoragePath: "logos/test/" + fileName,
		Public:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("assets").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test asset: %v", err)
	}
	return a
}
