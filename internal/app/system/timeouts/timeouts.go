// Package timeouts holds the deadlines handlers put on downstream calls.
//
//   - Ping: health checks
//   - Read: single lookups and iterations over a bounded id list
//   - Write: creates and updates, including multi-collection provisioning
//   - Upload: logo uploads, which stream the body to blob storage
package timeouts

import (
	"sync"
	"time"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultRead   = 5 * time.Second
	DefaultWrite  = 15 * time.Second
	DefaultUpload = 60 * time.Second
)

// Config holds timeout values. Zero fields keep the current value.
type Config struct {
	Ping   time.Duration
	Read   time.Duration
	Write  time.Duration
	Upload time.Duration
}

var (
	mu      sync.RWMutex
	current = defaults()
)

func defaults() Config {
	return Config{Ping: DefaultPing, Read: DefaultRead, Write: DefaultWrite, Upload: DefaultUpload}
}

func Ping() time.Duration   { return Current().Ping }
func Read() time.Duration   { return Current().Read }
func Write() time.Duration  { return Current().Write }
func Upload() time.Duration { return Current().Upload }

// Configure overrides the non-zero fields of cfg. Call it at startup,
// before handlers are mounted.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		current.Ping = cfg.Ping
	}
	if cfg.Read > 0 {
		current.Read = cfg.Read
	}
	if cfg.Write > 0 {
		current.Write = cfg.Write
	}
	if cfg.Upload > 0 {
		current.Upload = cfg.Upload
	}
}

// Reset restores the defaults. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults()
}

// Current returns the timeouts in effect.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}
