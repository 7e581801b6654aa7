// internal/app/bootstrap/core.go
package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/dalemusser/orghub/internal/app/services/assetservice"
	"github.com/dalemusser/orghub/internal/app/services/orgservice"
	assetstore "github.com/dalemusser/orghub/internal/app/store/assets"
	"github.com/dalemusser/orghub/internal/app/store/audit"
	groupstore "github.com/dalemusser/orghub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/orghub/internal/app/store/memberships"
	organizationstore "github.com/dalemusser/orghub/internal/app/store/organizations"
	"github.com/dalemusser/orghub/internal/app/system/auditlog"
	"github.com/dalemusser/orghub/internal/app/system/dynconf"
	"github.com/dalemusser/orghub/internal/app/system/events"
	"github.com/dalemusser/orghub/internal/app/system/events/redisrelay"
	"github.com/dalemusser/orghub/internal/app/system/metrics"
	"github.com/dalemusser/orghub/internal/app/system/ratelimit"
	"github.com/dalemusser/orghub/internal/app/system/timeouts"
	"github.com/dalemusser/orghub/internal/app/system/workers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Core is the organization core assembled from DBDeps.
type Core struct {
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Bus      *events.Bus
	Config   dynconf.Source
	Assets   *assetservice.Service
	Orgs     *orgservice.Service

	// WriteLimit is nil when write throttling is disabled.
	WriteLimit func(http.Handler) http.Handler

	watcher *dynconf.Watcher   // nil without runtime_config_path
	sweep   *workers.LogoSweep // nil when the sweep is disabled
}

func buildCore(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*Core, error) {
	db := deps.MongoDatabase

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	c := &Core{Registry: reg, Metrics: m}

	base, err := appCfg.baseSnapshot().Validate()
	if err != nil {
		return nil, err
	}
	if appCfg.RuntimeConfigPath != "" {
		w, err := dynconf.NewWatcher(appCfg.RuntimeConfigPath, base, logger.Named("dynconf"))
		if err != nil {
			return nil, fmt.Errorf("runtime config: %w", err)
		}
		c.watcher = w
		c.Config = w
	} else {
		c.Config = dynconf.Static(base)
	}

	timeouts.Configure(timeouts.Config{
		Read:   appCfg.TimeoutRead,
		Write:  appCfg.TimeoutWrite,
		Upload: appCfg.TimeoutUpload,
	})

	c.Bus = events.NewBus(appCfg.EventBufferSize, logger.Named("events"), m)

	audits := auditlog.New(audit.New(db), logger.Named("audit"), auditlog.Config{Org: appCfg.AuditLogOrg})
	c.Bus.Subscribe(events.NameOrgDeleted, audits.OnOrgDeleted)
	if deps.Redis != nil {
		redisrelay.New(deps.Redis, logger.Named("relay"), m).Attach(c.Bus, events.NameOrgDeleted)
	}

	assets := assetstore.New(db)
	c.Assets = assetservice.New(assets, deps.Blobs, logger.Named("assets"))

	orgs := organizationstore.New(db)
	c.Orgs = orgservice.New(orgservice.Deps{
		Orgs:    orgs,
		Groups:  groupstore.New(db),
		Members: membershipstore.New(db),
		Assets:  c.Assets,
		Events:  c.Bus,
		Config:  c.Config,
		Audit:   audits,
		Metrics: m,
		Logger:  logger.Named("orgservice"),
	})

	if appCfg.WriteRateLimit > 0 {
		c.WriteLimit = ratelimit.Middleware(appCfg.WriteRateLimit, appCfg.WriteRateWindow)
	}

	if appCfg.LogoSweepInterval > 0 {
		c.sweep = workers.NewLogoSweep(assets, orgs, c.Assets, logger.Named("logosweep"),
			appCfg.LogoSweepInterval, appCfg.LogoSweepGrace)
	}
	return c, nil
}

// start launches the background goroutines.
func (c *Core) start() error {
	c.Bus.Start()
	if c.watcher != nil {
		if err := c.watcher.Start(); err != nil {
			c.Bus.Stop()
			return fmt.Errorf("watching runtime config: %w", err)
		}
	}
	if c.sweep != nil {
		c.sweep.Start()
	}
	return nil
}

// stop halts the goroutines started by start, draining queued events.
func (c *Core) stop() {
	if c.sweep != nil {
		c.sweep.Stop()
	}
	if c.watcher != nil {
		c.watcher.Stop()
	}
	c.Bus.Stop()
}
