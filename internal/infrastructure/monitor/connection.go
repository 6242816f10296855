package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ketabplus/frontend/identity"
	"github.com/ketabplus/frontend/repository"
)

// Monitor periodically probes the identity service and the local store
// so the cart sync and health endpoint know whether the backend is
// reachable.
type Monitor struct {
	svc   identity.Service
	carts repository.CartRepository

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	logger   *zap.Logger
}

func New(svc identity.Service, carts repository.CartRepository, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		svc:      svc,
		carts:    carts,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Identity
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh()
	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	storeOK, cartItems := m.checkStore()
	status := Status{
		Identity:   m.checkIdentity(),
		LocalStore: storeOK,
		CartItems:  cartItems,
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Monitor) checkIdentity() bool {
	if m.svc == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.svc.Ping(ctx) == nil
}

func (m *Monitor) checkStore() (bool, int) {
	if m.carts == nil {
		return false, 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	items, err := m.carts.List(ctx)
	if err != nil {
		m.logger.Warn("local store check failed", zap.Error(err))
		return false, 0
	}
	return true, len(items)
}
