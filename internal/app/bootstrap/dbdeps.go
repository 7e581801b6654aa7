// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/orghub/internal/app/system/blobstore"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app, plus the
// services built on top of them.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Blobs         blobstore.Store
	Redis         *redis.Client // nil when the relay is disabled

	Core *Core
}
