// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/orghub/internal/app/system/blobstore"
	"github.com/dalemusser/orghub/internal/app/system/events/redisrelay"
	"github.com/dalemusser/orghub/internal/app/system/indexes"
	"github.com/dalemusser/orghub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 15 * time.Second

// ConnectDB connects MongoDB, the logo blob store and (optionally) Redis,
// then assembles the organization core on top of them. Nothing is started
// here; see Startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("pinging MongoDB: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}

	deps.Blobs, err = openBlobStore(ctx, appCfg)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, err
	}
	logger.Info("logo storage ready", zap.String("type", appCfg.StorageType))

	if appCfg.RedisURL != "" {
		deps.Redis, err = redisrelay.Connect(ctx, appCfg.RedisURL)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return DBDeps{}, err
		}
		logger.Info("connected to Redis for event relay")
	}

	deps.Core, err = buildCore(appCfg, deps, logger)
	if err != nil {
		closeBackends(context.Background(), deps, logger)
		return DBDeps{}, err
	}
	return deps, nil
}

func openBlobStore(ctx context.Context, appCfg AppConfig) (blobstore.Store, error) {
	switch appCfg.StorageType {
	case "s3":
		return blobstore.NewS3(ctx, blobstore.S3Config{
			Region:       appCfg.StorageS3Region,
			Bucket:       appCfg.StorageS3Bucket,
			Prefix:       appCfg.StorageS3Prefix,
			Endpoint:     appCfg.StorageS3Endpoint,
			UsePathStyle: appCfg.StorageS3PathStyle,
			AccessKey:    appCfg.StorageS3AccessKey,
			SecretKey:    appCfg.StorageS3SecretKey,
		})
	default:
		return blobstore.NewLocal(appCfg.StorageLocalPath)
	}
}

// EnsureSchema creates the collections with their JSON-Schema validators,
// then the indexes every store relies on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		return fmt.Errorf("collection validators: %w", err)
	}
	return indexes.EnsureAll(ctx, deps.MongoDatabase, logger)
}
