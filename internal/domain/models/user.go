// internal/domain/models/user.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is the subset of a registered user the organization core needs.
// User records themselves are owned by the identity service.
type User struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
}
