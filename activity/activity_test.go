package activity

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ketabplus/frontend/usecase/session"
)

type chanSource struct {
	ch chan Event
}

func (s *chanSource) Events() <-chan Event { return s.ch }

// trySend models a detached listener: the event is dropped when nobody
// is receiving.
func (s *chanSource) trySend(ev Event) bool {
	select {
	case s.ch <- ev:
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

type fakeSessions struct {
	mu       sync.Mutex
	authed   bool
	recorded int
	updates  chan session.Snapshot
}

func newFakeSessions(authed bool) *fakeSessions {
	return &fakeSessions{
		authed:  authed,
		updates: make(chan session.Snapshot, 8),
	}
}

func (f *fakeSessions) RecordActivity() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded++
}

func (f *fakeSessions) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return session.Snapshot{IsAuthenticated: f.authed}
}

func (f *fakeSessions) Subscribe() (int, <-chan session.Snapshot) { return 0, f.updates }

func (f *fakeSessions) Unsubscribe(id int) {}

func (f *fakeSessions) setAuthed(v bool) {
	f.mu.Lock()
	f.authed = v
	f.mu.Unlock()
	f.updates <- session.Snapshot{IsAuthenticated: v}
}

func (f *fakeSessions) recordedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recorded
}

func TestForwardsEventsWhileAuthenticated(t *testing.T) {
	source := &chanSource{ch: make(chan Event)}
	sessions := newFakeSessions(true)

	m := NewMonitor(source, sessions, nil)
	m.Start()
	defer m.Stop()

	require.True(t, source.trySend(Event{Kind: KindPointer, At: time.Now()}))
	require.True(t, source.trySend(Event{Kind: KindScroll, At: time.Now()}))

	require.Eventually(t, func() bool {
		return sessions.recordedCount() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestDetachedWhileUnauthenticated(t *testing.T) {
	source := &chanSource{ch: make(chan Event)}
	sessions := newFakeSessions(false)

	m := NewMonitor(source, sessions, nil)
	m.Start()
	defer m.Stop()

	assert.False(t, source.trySend(Event{Kind: KindKey, At: time.Now()}))
	assert.Equal(t, 0, sessions.recordedCount())
}

func TestAttachesOnLoginDetachesOnLogout(t *testing.T) {
	source := &chanSource{ch: make(chan Event)}
	sessions := newFakeSessions(false)

	m := NewMonitor(source, sessions, nil)
	m.Start()
	defer m.Stop()

	assert.False(t, source.trySend(Event{Kind: KindTouch, At: time.Now()}))

	sessions.setAuthed(true)
	require.Eventually(t, func() bool {
		return source.trySend(Event{Kind: KindTouch, At: time.Now()})
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return sessions.recordedCount() >= 1
	}, time.Second, 5*time.Millisecond)

	sessions.setAuthed(false)
	require.Eventually(t, func() bool {
		return !source.trySend(Event{Kind: KindTouch, At: time.Now()})
	}, time.Second, 5*time.Millisecond)
}

func TestStopDetaches(t *testing.T) {
	source := &chanSource{ch: make(chan Event)}
	sessions := newFakeSessions(true)

	m := NewMonitor(source, sessions, nil)
	m.Start()
	m.Stop()

	assert.False(t, source.trySend(Event{Kind: KindPointer, At: time.Now()}))
	m.Stop() // second stop must not panic or block
}
