// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupType distinguishes the system groups provisioned with every organization.
type GroupType string

const (
	GroupTypeAllUsers GroupType = "all_users"
	GroupTypeDev      GroupType = "dev"
)

// Group represents a user group inside an organization.
//
// NOTE:
//   - Every organization owns exactly one all_users and one dev group,
//     created when the organization is created.
//   - (organization_id, type) is unique.
type Group struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	Name           string             `bson:"name" json:"name"`
	NameCI         string             `bson:"name_ci" json:"name_ci"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Type           GroupType          `bson:"type" json:"type"`

	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
