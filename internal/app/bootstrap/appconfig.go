// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (ORGHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, logging and CORS; everything below is orghub's own.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Logo blob storage
	StorageType      string // "local" or "s3"
	StorageLocalPath string // Root directory for the local backend

	// S3 configuration (only used if StorageType is "s3")
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string // Key prefix inside the bucket (e.g., "orghub/")
	StorageS3Endpoint  string // S3-compatible endpoint such as MinIO; blank for AWS
	StorageS3PathStyle bool
	StorageS3AccessKey string // Blank uses the default AWS credential chain
	StorageS3SecretKey string

	// Event relay
	RedisURL        string // redis://…; blank disables the relay
	EventBufferSize int

	// Runtime settings. RuntimeConfigPath, when set, names a YAML file that
	// overrides the three values below and is reloaded on change.
	WorkspaceMode     string // "SAAS" or "ENTERPRISE"
	EnterpriseOrgID   string
	LogoMaxSizeKB     int
	RuntimeConfigPath string

	// Orphaned logo sweep; a zero interval disables it.
	LogoSweepInterval time.Duration
	LogoSweepGrace    time.Duration

	// Per-caller limit on organization writes; zero disables it.
	WriteRateLimit  int
	WriteRateWindow time.Duration

	// Handler deadlines
	TimeoutRead   time.Duration
	TimeoutWrite  time.Duration
	TimeoutUpload time.Duration

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogOrg string
}
