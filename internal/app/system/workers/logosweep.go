// internal/app/system/workers/logosweep.go
package workers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/orghub/internal/app/services/assetservice"
	"github.com/dalemusser/orghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AssetLister lists asset metadata by age.
type AssetLister interface {
	ListCreatedBefore(ctx context.Context, t time.Time, after primitive.ObjectID, limit int64) ([]models.Asset, error)
}

// LogoReferences answers whether an organization points at an asset.
type LogoReferences interface {
	ReferencesLogo(ctx context.Context, assetID string) (bool, error)
}

// AssetRemover deletes an asset's metadata and bytes.
type AssetRemover interface {
	Delete(ctx context.Context, a models.Asset) error
}

// LogoSweep is a background worker that deletes logo assets no
// organization references. A logo upload stores the asset before it patches
// the organization, so only assets older than the grace period are
// considered.
type LogoSweep struct {
	assets   AssetLister
	refs     LogoReferences
	remover  AssetRemover
	log      *zap.Logger
	interval time.Duration
	grace    time.Duration
	batch    int64
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLogoSweep creates a new orphaned-logo worker.
//
// Parameters:
//   - interval: how often to sweep (e.g., 1 hour)
//   - grace: minimum asset age before it may be removed (e.g., 24 hours)
func NewLogoSweep(assets AssetLister, refs LogoReferences, remover AssetRemover, logger *zap.Logger, interval, grace time.Duration) *LogoSweep {
	return &LogoSweep{
		assets:   assets,
		refs:     refs,
		remover:  remover,
		log:      logger,
		interval: interval,
		grace:    grace,
		batch:    500,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *LogoSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("logo sweep worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("grace", w.grace))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to
// call more than once.
func (w *LogoSweep) Stop() {
	first := false
	w.stopOnce.Do(func() {
		close(w.stopCh)
		first = true
	})
	w.wg.Wait()
	if first {
		w.log.Info("logo sweep worker stopped")
	}
}

func (w *LogoSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if n, err := w.Sweep(ctx); err != nil {
				w.log.Error("logo sweep failed", zap.Int("removed", n), zap.Error(err))
			} else if n > 0 {
				w.log.Info("removed orphaned logos", zap.Int("count", n))
			}
			cancel()
		}
	}
}

// Sweep pages through assets older than the grace period and returns how
// many it removed. An asset whose check or removal fails is skipped; the
// first such error is returned after the pass.
func (w *LogoSweep) Sweep(ctx context.Context) (int, error) {
	cutoff := w.now().UTC().Add(-w.grace)
	prefix := assetservice.KeyPrefix + "/"

	var firstErr error
	removed := 0
	after := primitive.NilObjectID
	for {
		page, err := w.assets.ListCreatedBefore(ctx, cutoff, after, w.batch)
		if err != nil {
			return removed, err
		}
		for _, a := range page {
			after = a.ID
			if !strings.HasPrefix(a.StoragePath, prefix) {
				continue
			}
			used, err := w.refs.ReferencesLogo(ctx, a.ID.Hex())
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if used {
				continue
			}
			if err := w.remover.Delete(ctx, a); err != nil {
				w.log.Warn("orphaned logo not removed", zap.String("asset_id", a.ID.Hex()), zap.Error(err))
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			removed++
		}
		if int64(len(page)) < w.batch || ctx.Err() != nil {
			return removed, firstErr
		}
	}
}
