package session

import (
	"context"
	"time"
)

// timerKind keys the timer table. At most one timer per kind is armed.
type timerKind string

const (
	timerWarning    timerKind = "warning"
	timerHardLogout timerKind = "hard_logout"
	timerRefresh    timerKind = "refresh"
)

// armLocked cancels any armed timer of the same kind before scheduling
// the replacement, so two timers of one kind are never live at once.
// Callbacks capture the epoch at arm time and bail out if a login or
// logout happened in between.
func (m *Manager) armLocked(kind timerKind, delay time.Duration, fn func(epoch uint64)) {
	if t, ok := m.timers[kind]; ok {
		t.Stop()
		delete(m.timers, kind)
	}
	epoch := m.epoch
	m.timers[kind] = time.AfterFunc(delay, func() {
		fn(epoch)
	})
}

func (m *Manager) cancelAllLocked() {
	for kind, t := range m.timers {
		t.Stop()
		delete(m.timers, kind)
	}
}

// armIdleTimersLocked re-arms the warning and hard-logout pair from the
// idle clock. The warning fires warningLead before the hard limit.
func (m *Manager) armIdleTimersLocked() {
	lead := m.cfg.WarningLead
	if lead > m.cfg.HardTimeout {
		lead = m.cfg.HardTimeout
	}
	m.armLocked(timerWarning, m.cfg.HardTimeout-lead, m.onWarning)
	m.armLocked(timerHardLogout, m.cfg.HardTimeout, m.onHardTimeout)
}

func (m *Manager) armRefreshLocked() {
	m.armLocked(timerRefresh, m.cfg.RefreshInterval, m.onRefreshTick)
}

func (m *Manager) onWarning(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch || m.user == nil || m.closed {
		return
	}
	delete(m.timers, timerWarning)
	m.warningActive = true
	m.logger.Info("session idle warning raised")
	m.notifyLocked()
}

func (m *Manager) onHardTimeout(epoch uint64) {
	m.mu.Lock()
	if m.epoch != epoch || m.user == nil || m.closed {
		m.mu.Unlock()
		return
	}
	delete(m.timers, timerHardLogout)
	m.mu.Unlock()

	m.logger.Info("session idle limit reached, logging out")
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.CallTimeout)
	defer cancel()
	_ = m.Logout(ctx)
}

func (m *Manager) onRefreshTick(epoch uint64) {
	m.mu.Lock()
	if m.epoch != epoch || m.user == nil || m.closed {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.CallTimeout)
	_ = m.Refresh(ctx)
	cancel()

	// keep ticking while this session cycle is still live
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch == epoch && m.user != nil && !m.closed {
		m.armRefreshLocked()
	}
}
