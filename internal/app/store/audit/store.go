// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Organization lifecycle event types.
const (
	EventOrgCreated         = "org_created"
	EventOrgProvisioned     = "org_provisioned"
	EventOrgUpdated         = "org_updated"
	EventOrgDeleted         = "org_deleted"
	EventOrgLogoUploaded    = "org_logo_uploaded"
	EventOrgLogoDeleted     = "org_logo_deleted"
	EventOrgSettingUpdated  = "org_setting_updated"
	EventMemberJoinedOrg    = "member_joined_org"
	EventOrgSetupIncomplete = "org_setup_incomplete"
)

// Event is one audit record.
type Event struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty"`
	CreatedAt      time.Time           `bson:"created_at"`
	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty"`
	EventType      string              `bson:"event_type"`

	// ActorID is the user who performed the action, when known.
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter narrows Query and CountByFilter. Zero fields do not filter.
type QueryFilter struct {
	OrganizationID *primitive.ObjectID
	EventType      string
	Since          *time.Time
	Limit          int64
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event, assigning ID and CreatedAt when unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	if f.OrganizationID != nil {
		q["organization_id"] = *f.OrganizationID
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.Since != nil {
		q["created_at"] = bson.M{"$gte": *f.Since}
	}
	return q
}

// Query returns matching events, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	cur, err := s.c.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.bson())
}
