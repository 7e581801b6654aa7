// Package events is the in-process notification bus. Publishing is a
// non-blocking handoff: the publisher never waits for subscribers and gets
// no acknowledgment.
package events

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dalemusser/orghub/internal/app/system/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Event is anything published on the bus.
type Event interface {
	EventName() string
}

// NameOrgDeleted is the name of OrgDeleted.
const NameOrgDeleted = "org.deleted"

// OrgDeleted is published once when an organization is soft-deleted.
type OrgDeleted struct {
	OrgID     primitive.ObjectID `json:"org_id"`
	DeletedAt time.Time          `json:"deleted_at"`
}

func (OrgDeleted) EventName() string { return NameOrgDeleted }

// Handler consumes one event. The context is cancelled after the bus's
// handler timeout.
type Handler func(ctx context.Context, e Event) error

const defaultHandlerTimeout = 30 * time.Second

// Bus fans events out to subscribers on a single dispatcher goroutine.
type Bus struct {
	ch      chan Event
	log     *zap.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	mu   sync.RWMutex
	subs map[string][]Handler

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewBus creates a bus with room for size pending events.
func NewBus(size int, logger *zap.Logger, m *metrics.Metrics) *Bus {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		ch:      make(chan Event, size),
		log:     logger,
		metrics: m,
		timeout: defaultHandlerTimeout,
		subs:    make(map[string][]Handler),
		stopCh:  make(chan struct{}),
	}
}

// Subscribe registers h for events with the given name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[name] = append(b.subs[name], h)
}

// Publish enqueues e without blocking. When the buffer is full, or the bus
// has been stopped, the event is dropped and Publish returns false.
func (b *Bus) Publish(e Event) bool {
	select {
	case <-b.stopCh:
		b.drop(e, "bus stopped")
		return false
	default:
	}

	select {
	case b.ch <- e:
		b.metrics.EventPublished(e.EventName())
		return true
	default:
		b.drop(e, "buffer full")
		return false
	}
}

func (b *Bus) drop(e Event, reason string) {
	b.metrics.EventDropped(e.EventName())
	b.log.Warn("event dropped", zap.String("event", e.EventName()), zap.String("reason", reason))
}

// Start begins dispatching.
func (b *Bus) Start() {
	b.wg.Add(1)
	go b.run()
	b.log.Info("event bus started", zap.Int("buffer", cap(b.ch)))
}

// Stop stops accepting events, delivers what is already buffered and waits
// for the dispatcher to exit.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
	b.wg.Wait()
	b.log.Info("event bus stopped")
}

func (b *Bus) run() {
	defer b.wg.Done()
	for {
		select {
		case e := <-b.ch:
			b.dispatch(e)
		case <-b.stopCh:
			for {
				select {
				case e := <-b.ch:
					b.dispatch(e)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) dispatch(e Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subs[e.EventName()]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.call(h, e)
	}
}

func (b *Bus) call(h Handler, e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("event", e.EventName()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	if err := h(ctx, e); err != nil {
		b.log.Warn("event handler failed", zap.String("event", e.EventName()), zap.Error(err))
	}
}
