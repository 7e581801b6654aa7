// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/orghub/internal/app/system/auditlog"
	"github.com/dalemusser/orghub/internal/app/system/dynconf"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for orghub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, storage_type, etc.
//   - Environment variables: ORGHUB_MONGO_URI, ORGHUB_STORAGE_TYPE, etc.
//   - Command-line flags: --mongo_uri, --storage_type, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "orghub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Logo storage
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads/logos", Desc: "Local storage root for uploaded logos"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "orghub/", Desc: "S3 key prefix"},
	{Name: "storage_s3_endpoint", Default: "", Desc: "S3-compatible endpoint URL (blank for AWS)"},
	{Name: "storage_s3_path_style", Default: false, Desc: "Use path-style S3 addressing"},
	{Name: "storage_s3_access_key", Default: "", Desc: "S3 access key (blank uses the AWS credential chain)"},
	{Name: "storage_s3_secret_key", Default: "", Desc: "S3 secret key"},

	// Events
	{Name: "redis_url", Default: "", Desc: "Redis URL for relaying organization events (blank disables)"},
	{Name: "event_buffer_size", Default: 1024, Desc: "In-process event bus buffer size"},

	// Runtime settings
	{Name: "workspace_mode", Default: "SAAS", Desc: "Deployment mode: 'SAAS' or 'ENTERPRISE'"},
	{Name: "enterprise_org_id", Default: "", Desc: "Organization id shared by all users in ENTERPRISE mode"},
	{Name: "logo_max_size_kb", Default: dynconf.DefaultLogoMaxSizeKB, Desc: "Maximum logo size in KB"},
	{Name: "runtime_config_path", Default: "", Desc: "YAML file overriding workspace_mode, enterprise_org_id and logo_max_size_kb; reloaded on change"},

	// Logo sweep
	{Name: "logo_sweep_interval", Default: "1h", Desc: "How often to remove unreferenced logos (0 disables)"},
	{Name: "logo_sweep_grace", Default: "24h", Desc: "Minimum age of an unreferenced logo before removal"},

	// Write throttling
	{Name: "write_rate_limit", Default: 120, Desc: "Organization writes allowed per caller per window (0 disables)"},
	{Name: "write_rate_window", Default: "1m", Desc: "Window for write_rate_limit"},

	// Timeouts
	{Name: "timeout_read", Default: "5s", Desc: "Deadline for read endpoints"},
	{Name: "timeout_write", Default: "15s", Desc: "Deadline for write endpoints"},
	{Name: "timeout_upload", Default: "60s", Desc: "Deadline for logo upload and download"},

	// Audit logging
	{Name: "audit_log_org", Default: "all", Desc: "Organization event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, ORGHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ORGHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		StorageType:        strings.ToLower(strings.TrimSpace(appValues.String("storage_type"))),
		StorageLocalPath:   appValues.String("storage_local_path"),
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageS3Endpoint:  appValues.String("storage_s3_endpoint"),
		StorageS3PathStyle: appValues.Bool("storage_s3_path_style"),
		StorageS3AccessKey: appValues.String("storage_s3_access_key"),
		StorageS3SecretKey: appValues.String("storage_s3_secret_key"),

		RedisURL:        strings.TrimSpace(appValues.String("redis_url")),
		EventBufferSize: appValues.Int("event_buffer_size"),

		WorkspaceMode:     appValues.String("workspace_mode"),
		EnterpriseOrgID:   strings.TrimSpace(appValues.String("enterprise_org_id")),
		LogoMaxSizeKB:     appValues.Int("logo_max_size_kb"),
		RuntimeConfigPath: strings.TrimSpace(appValues.String("runtime_config_path")),

		LogoSweepInterval: appValues.Duration("logo_sweep_interval", time.Hour),
		LogoSweepGrace:    appValues.Duration("logo_sweep_grace", 24*time.Hour),

		WriteRateLimit:  appValues.Int("write_rate_limit"),
		WriteRateWindow: appValues.Duration("write_rate_window", time.Minute),

		TimeoutRead:   appValues.Duration("timeout_read", 0),
		TimeoutWrite:  appValues.Duration("timeout_write", 0),
		TimeoutUpload: appValues.Duration("timeout_upload", 0),

		AuditLogOrg: strings.ToLower(strings.TrimSpace(appValues.String("audit_log_org"))),
	}

	return coreCfg, appCfg, nil
}

// baseSnapshot is the runtime snapshot described by static config.
func (c AppConfig) baseSnapshot() dynconf.Snapshot {
	return dynconf.Snapshot{
		Mode:            dynconf.Mode(c.WorkspaceMode),
		EnterpriseOrgID: c.EnterpriseOrgID,
		LogoMaxSizeKB:   c.LogoMaxSizeKB,
	}
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(appCfg)
}

func validateApp(c AppConfig) error {
	switch c.StorageType {
	case "local":
		if strings.TrimSpace(c.StorageLocalPath) == "" {
			return fmt.Errorf("storage_local_path is required for local storage")
		}
	case "s3":
		if c.StorageS3Bucket == "" || c.StorageS3Region == "" {
			return fmt.Errorf("storage_s3_bucket and storage_s3_region are required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage_type %q (want local or s3)", c.StorageType)
	}

	snap, err := c.baseSnapshot().Validate()
	if err != nil {
		return err
	}
	if snap.EnterpriseOrgID != "" {
		if _, err := primitive.ObjectIDFromHex(snap.EnterpriseOrgID); err != nil {
			return fmt.Errorf("enterprise_org_id %q is not a valid id", snap.EnterpriseOrgID)
		}
	}

	switch c.AuditLogOrg {
	case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
	default:
		return fmt.Errorf("unknown audit_log_org %q", c.AuditLogOrg)
	}

	if c.EventBufferSize <= 0 {
		return fmt.Errorf("event_buffer_size must be positive, got %d", c.EventBufferSize)
	}
	if c.WriteRateLimit < 0 {
		return fmt.Errorf("write_rate_limit must not be negative, got %d", c.WriteRateLimit)
	}
	if c.WriteRateLimit > 0 && c.WriteRateWindow <= 0 {
		return fmt.Errorf("write_rate_window must be positive when write_rate_limit is set")
	}
	if c.LogoSweepInterval < 0 || c.LogoSweepGrace < 0 {
		return fmt.Errorf("logo sweep durations must not be negative")
	}
	if c.LogoSweepInterval > 0 {
		// A logo is unreferenced between its upload and the organization
		// update that points at it; the grace must outlast that window.
		floor := c.TimeoutUpload
		if floor <= 0 {
			floor = timeouts.DefaultUpload
		}
		if c.LogoSweepGrace < floor {
			return fmt.Errorf("logo_sweep_grace %s must be at least the upload timeout %s when the sweep is enabled", c.LogoSweepGrace, floor)
		}
	}
	return nil
}
