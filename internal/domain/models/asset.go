// internal/domain/models/asset.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Asset is an uploaded binary. Metadata lives in Mongo; the bytes live in
// blob storage under StoragePath.
type Asset struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FileName    string             `bson:"file_name" json:"file_name"`
	ContentType string             `bson:"content_type" json:"content_type"`
	Size        int64              `bson:"size" json:"size"`
	StoragePath string             `bson:"storage_path" json:"-"`
	Public      bool               `bson:"public" json:"public"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
