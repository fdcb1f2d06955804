package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/winery-visit-booking/internal/metrics"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 32

// ForwardBuffer is how many events may wait for the forwarder.
const ForwardBuffer = 256

// Forwarder ships locally published events to other instances.
type Forwarder interface {
	Forward(ctx context.Context, ev Event) error
}

// Hub is an in-process publish/subscribe point for change events.  A slow
// subscriber loses events instead of blocking publishers.
type Hub struct {
	mu         sync.RWMutex
	subs       map[*Subscription]struct{}
	instanceID string
	buffer     int
	forwarder  Forwarder
	fwd        chan forwardItem
	log        *zerolog.Logger
}

type forwardItem struct {
	ctx context.Context
	ev  Event
}

// NewHub returns an empty hub with a random instance id.
func NewHub(log *zerolog.Logger) *Hub {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Hub{
		subs:       make(map[*Subscription]struct{}),
		instanceID: uuid.NewString(),
		buffer:     DefaultBuffer,
		log:        log,
	}
}

// InstanceID identifies this process in forwarded events.
func (h *Hub) InstanceID() string { return h.instanceID }

// SetForwarder installs the cross-instance bridge.  Call before serving;
// events are queued until RunForwarder drains them.
func (h *Hub) SetForwarder(f Forwarder) {
	h.forwarder = f
	h.fwd = make(chan forwardItem, ForwardBuffer)
}

// RunForwarder hands queued events to the forwarder one at a time until
// ctx ends.  A slow or unreachable broker only delays this loop.
func (h *Hub) RunForwarder(ctx context.Context) {
	if h.forwarder == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-h.fwd:
			if err := h.forwarder.Forward(it.ctx, it.ev); err != nil {
				h.log.Warn().Err(err).Str("table", it.ev.Table).Str("op", it.ev.Op).Msg("realtime: forward failed")
			}
		}
	}
}

// Subscription receives events for a set of tables.  An empty set means
// every table.
type Subscription struct {
	hub    *Hub
	tables map[string]bool
	ch     chan Event
	once   sync.Once
}

// Subscribe registers interest in the given tables.
func (h *Hub) Subscribe(tables ...string) *Subscription {
	s := &Subscription{hub: h, tables: make(map[string]bool, len(tables)), ch: make(chan Event, h.buffer)}
	for _, t := range tables {
		if t != "" {
			s.tables[t] = true
		}
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// C returns the event channel.  It is closed by Close.
func (s *Subscription) C() <-chan Event { return s.ch }

// Close unregisters the subscription.  Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		s.hub.mu.Unlock()
	})
}

func (s *Subscription) wants(table string) bool {
	return len(s.tables) == 0 || s.tables[table]
}

// Publish delivers a locally originated event to local subscribers and,
// when a forwarder is set, queues it for the other instances.  It never
// waits on the forwarder: with the queue full the event is dropped, as
// for a slow subscriber.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	if ev.Origin == "" {
		ev.Origin = h.instanceID
	}
	h.deliver(ev)
	if h.fwd == nil {
		return
	}
	select {
	case h.fwd <- forwardItem{ctx: context.WithoutCancel(ctx), ev: ev}:
	default:
		metrics.IncRealtime(ev.Table, false)
		h.log.Warn().Str("table", ev.Table).Str("op", ev.Op).Msg("realtime: forward queue full, event dropped")
	}
}

// Deliver hands an event received from another instance to local
// subscribers.  Events this instance published itself are ignored since
// they were already delivered by Publish.
func (h *Hub) Deliver(ev Event) {
	if ev.Origin == h.instanceID {
		return
	}
	h.deliver(ev)
}

func (h *Hub) deliver(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if !s.wants(ev.Table) {
			continue
		}
		select {
		case s.ch <- ev:
			metrics.IncRealtime(ev.Table, true)
		default:
			metrics.IncRealtime(ev.Table, false)
		}
	}
}

// Listen calls fn for every event until ctx ends or the subscription is
// closed, then closes the subscription.
func Listen(ctx context.Context, sub *Subscription, fn func(Event)) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			fn(ev)
		}
	}
}
