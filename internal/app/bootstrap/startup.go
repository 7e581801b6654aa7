// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs after DB connections and schema setup are complete, but
// before the HTTP handler is built. It starts the event bus, the runtime
// config watcher and the logo sweep.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	snap := deps.Core.Config.Current()
	logger.Info("organization core starting",
		zap.String("workspace_mode", string(snap.Mode)),
		zap.String("enterprise_org_id", snap.EnterpriseOrgID),
		zap.Int("logo_max_size_kb", snap.LogoMaxSizeKB),
		zap.Bool("redis_relay", deps.Redis != nil))
	return deps.Core.start()
}
