// internal/domain/models/orgmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberRole is a user's role inside an organization.
type MemberRole string

const (
	RoleAdmin  MemberRole = "ADMIN"
	RoleMember MemberRole = "MEMBER"
)

// Valid reports whether r is a known role.
func (r MemberRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// OrgMembership joins a user to an organization.
// Exactly one document per (org_id, user_id).
type OrgMembership struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrgID    primitive.ObjectID `bson:"org_id" json:"org_id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role     MemberRole         `bson:"role" json:"role"`
	JoinedAt time.Time          `bson:"joined_at" json:"joined_at"`
}
