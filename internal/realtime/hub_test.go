package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingForwarder struct {
	mu  sync.Mutex
	got []Event
	err error
}

func (f *recordingForwarder) Forward(_ context.Context, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, ev)
	return f.err
}

func (f *recordingForwarder) events() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.got...)
}

// stuckForwarder blocks every Forward until release is closed, like a
// dial against a broker that never answers.
type stuckForwarder struct{ release chan struct{} }

func (f stuckForwarder) Forward(context.Context, Event) error {
	<-f.release
	return errors.New("dial timeout")
}

func receive(t *testing.T, s *Subscription) Event {
	t.Helper()
	select {
	case ev := <-s.C():
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return Event{}
}

func TestHubFiltersByTable(t *testing.T) {
	h := NewHub(nil)
	visits := h.Subscribe(TableVisits)
	all := h.Subscribe()
	defer visits.Close()
	defer all.Close()

	h.Publish(context.Background(), NewEvent(TableSlots, OpUpdate, 7))
	h.Publish(context.Background(), NewEvent(TableVisits, OpInsert, 9))

	ev := receive(t, visits)
	assert.Equal(t, TableVisits, ev.Table)
	assert.Equal(t, uint64(9), ev.RecordID)
	assert.Equal(t, h.InstanceID(), ev.Origin)

	assert.Equal(t, TableSlots, receive(t, all).Table)
	assert.Equal(t, TableVisits, receive(t, all).Table)
	assert.Empty(t, visits.C())
}

func TestHubDropsWhenSubscriberIsSlow(t *testing.T) {
	h := NewHub(nil)
	s := h.Subscribe(TableSlots)
	defer s.Close()

	for i := 0; i < DefaultBuffer+10; i++ {
		h.Publish(context.Background(), NewEvent(TableSlots, OpUpdate, uint64(i)))
	}
	assert.Len(t, s.C(), DefaultBuffer)
}

func TestHubCloseIsIdempotent(t *testing.T) {
	h := NewHub(nil)
	s := h.Subscribe(TableVisits)
	s.Close()
	s.Close()

	_, ok := <-s.C()
	assert.False(t, ok)
	// publishing after close must not panic
	h.Publish(context.Background(), NewEvent(TableVisits, OpDelete, 1))
}

func TestHubForwardsAndSkipsOwnEcho(t *testing.T) {
	h := NewHub(nil)
	fw := &recordingForwarder{err: errors.New("broker down")}
	h.SetForwarder(fw)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.RunForwarder(ctx)
	s := h.Subscribe()
	defer s.Close()

	h.Publish(context.Background(), NewEvent(TableVisits, OpInsert, 1))
	require.Eventually(t, func() bool { return len(fw.events()) == 1 }, time.Second, 5*time.Millisecond)
	receive(t, s)

	// the broker echoes our own event back: ignored
	h.Deliver(fw.events()[0])
	assert.Empty(t, s.C())

	remote := NewEvent(TableSlots, OpUpdate, 2)
	remote.Origin = "other-instance"
	h.Deliver(remote)
	assert.Equal(t, "other-instance", receive(t, s).Origin)
}

func TestHubPublishDoesNotWaitForForwarder(t *testing.T) {
	h := NewHub(nil)
	fw := stuckForwarder{release: make(chan struct{})}
	h.SetForwarder(fw)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.RunForwarder(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		close(fw.release)
		<-done
	}()
	s := h.Subscribe(TableVisits)
	defer s.Close()

	start := time.Now()
	// one event is stuck in Forward, the rest fill the queue and overflow
	for i := 0; i < ForwardBuffer+10; i++ {
		h.Publish(context.Background(), NewEvent(TableVisits, OpInsert, uint64(i)))
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, uint64(0), receive(t, s).RecordID)
}

func TestHubPublishWithoutRunningForwarderDrops(t *testing.T) {
	h := NewHub(nil)
	fw := &recordingForwarder{}
	h.SetForwarder(fw)

	for i := 0; i < ForwardBuffer+1; i++ {
		h.Publish(context.Background(), NewEvent(TableSlots, OpUpdate, uint64(i)))
	}
	assert.Len(t, h.fwd, ForwardBuffer)
	assert.Empty(t, fw.events())
}

func TestListenStopsOnCancel(t *testing.T) {
	h := NewHub(nil)
	s := h.Subscribe(TableAuth)
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan Event, 1)
	done := make(chan struct{})
	go func() {
		Listen(ctx, s, func(ev Event) { got <- ev })
		close(done)
	}()

	h.Publish(context.Background(), SignedOut(3, "sess-1"))
	ev := <-got
	assert.Equal(t, OpSignedOut, ev.Op)
	assert.Equal(t, "sess-1", ev.SessionID)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listen did not return")
	}
	_, ok := <-s.C()
	assert.False(t, ok)
}
