// Package activity forwards coarse user-interaction signals to the
// session manager so idle timers track real usage.
package activity

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ketabplus/frontend/usecase/session"
)

// Kind identifies an interaction signal class.
type Kind string

const (
	KindPointer Kind = "pointer"
	KindKey     Kind = "key"
	KindScroll  Kind = "scroll"
	KindTouch   Kind = "touch"
)

// Event is a single observed interaction.
type Event struct {
	Kind Kind
	At   time.Time
}

// Source emits interaction events. The embedded UI shell implements it
// over its input loop; tests feed a plain channel.
type Source interface {
	Events() <-chan Event
}

// Sessions is the slice of the session manager the monitor needs.
type Sessions interface {
	RecordActivity()
	Snapshot() session.Snapshot
	Subscribe() (int, <-chan session.Snapshot)
	Unsubscribe(id int)
}

// Monitor listens to the source only while a session is authenticated,
// forwarding each event as activity. No debounce: re-arming an already
// pending timer is cheap, the session manager's cancel-and-reschedule
// handles bursts.
type Monitor struct {
	source   Source
	sessions Sessions
	logger   *zap.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewMonitor wires a source to the session manager.
func NewMonitor(source Source, sessions Sessions, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		source:   source,
		sessions: sessions,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the forwarding loop.
func (m *Monitor) Start() {
	go m.loop()
}

// Stop detaches from the source and session manager. Safe to call more
// than once; detachment is guaranteed even after an abnormal logout.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	<-m.doneCh
}

func (m *Monitor) loop() {
	defer close(m.doneCh)

	subID, updates := m.sessions.Subscribe()
	defer m.sessions.Unsubscribe(subID)

	attached := m.sessions.Snapshot().IsAuthenticated
	for {
		// a nil channel blocks forever, detaching the source while
		// unauthenticated
		var events <-chan Event
		if attached {
			events = m.source.Events()
		}

		select {
		case <-m.stopCh:
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if attached != snap.IsAuthenticated {
				m.logger.Debug("activity monitor state change",
					zap.Bool("attached", snap.IsAuthenticated))
			}
			attached = snap.IsAuthenticated
		case <-events:
			m.sessions.RecordActivity()
		}
	}
}
