package dynconf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// fileOverrides is the YAML layout of the runtime config file. Keys that are
// absent keep the base value.
type fileOverrides struct {
	WorkspaceMode   *string `yaml:"workspace_mode"`
	EnterpriseOrgID *string `yaml:"enterprise_org_id"`
	LogoMaxSizeKB   *int    `yaml:"logo_max_size_kb"`
}

// Watcher is a Source backed by a YAML file that is re-read whenever it
// changes. A file that fails to parse or validate leaves the previous
// snapshot in place.
type Watcher struct {
	path   string
	base   Snapshot
	logger *zap.Logger

	cur atomic.Pointer[Snapshot]

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWatcher loads path on top of base. A missing file is not an error;
// base applies until the file appears.
func NewWatcher(path string, base Snapshot, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base, err := base.Validate()
	if err != nil {
		return nil, err
	}
	w := &Watcher{path: path, base: base, logger: logger}
	w.cur.Store(&base)
	if err := w.Reload(); err != nil {
		return nil, err
	}
	return w, nil
}

// Current returns the latest valid snapshot.
func (w *Watcher) Current() Snapshot {
	return *w.cur.Load()
}

// Reload re-reads the file now.
func (w *Watcher) Reload() error {
	data, err := os.ReadFile(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		snap := w.base
		w.cur.Store(&snap)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading runtime config: %w", err)
	}

	var ov fileOverrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("parsing runtime config %s: %w", w.path, err)
	}

	snap := w.base
	if ov.WorkspaceMode != nil {
		snap.Mode = Mode(*ov.WorkspaceMode)
	}
	if ov.EnterpriseOrgID != nil {
		snap.EnterpriseOrgID = *ov.EnterpriseOrgID
	}
	if ov.LogoMaxSizeKB != nil {
		snap.LogoMaxSizeKB = *ov.LogoMaxSizeKB
	}
	snap, err = snap.Validate()
	if err != nil {
		return fmt.Errorf("runtime config %s: %w", w.path, err)
	}
	w.cur.Store(&snap)
	return nil
}

// Start begins watching the file's directory. Editors often replace files by
// rename, so the directory is watched rather than the file.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}
	w.fsw = fsw
	w.stopCh = make(chan struct{})

	w.wg.Add(1)
	go w.run()

	w.logger.Info("runtime config watcher started", zap.String("path", w.path))
	return nil
}

// Stop ends watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	if w.stopCh == nil {
		return
	}
	close(w.stopCh)
	w.wg.Wait()
	w.fsw.Close()
	w.stopCh = nil
	w.logger.Info("runtime config watcher stopped")
}

func (w *Watcher) run() {
	defer w.wg.Done()
	name := filepath.Clean(w.path)

	for {
		select {
		case <-w.stopCh:
			return
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("runtime config watcher error", zap.Error(err))
		case e, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != name {
				continue
			}
			if e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.Reload(); err != nil {
				w.logger.Error("runtime config reload failed; keeping previous values", zap.Error(err))
				continue
			}
			snap := w.Current()
			w.logger.Info("runtime config reloaded",
				zap.String("workspace_mode", string(snap.Mode)),
				zap.String("enterprise_org_id", snap.EnterpriseOrgID),
				zap.Int("logo_max_size_kb", snap.LogoMaxSizeKB))
		}
	}
}
