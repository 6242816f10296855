// Package cartsync replicates the locally cached cart to the platform
// cart API whenever the backend is reachable and a session is live.
package cartsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ketabplus/frontend/domain"
	"github.com/ketabplus/frontend/repository"
	"github.com/ketabplus/frontend/usecase/session"
)

// Pusher sends a cart item to the platform cart API.
type Pusher interface {
	PushCartItem(ctx context.Context, item *domain.CartItem) error
}

// ConnectionHealth abstracts the connection monitor.
type ConnectionHealth interface {
	IsOnline() bool
}

// SessionState is the read side of the session manager.
type SessionState interface {
	Snapshot() session.Snapshot
}

// Config controls how frequently the cart is synchronized.
type Config struct {
	Interval   time.Duration
	MaxRetries int
}

// Processor drains the cart cache on a fixed schedule.
type Processor struct {
	carts    repository.CartRepository
	pusher   Pusher
	monitor  ConnectionHealth
	sessions SessionState
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      Config

	mu      sync.Mutex
	retries map[string]int
}

func New(
	carts repository.CartRepository,
	pusher Pusher,
	monitor ConnectionHealth,
	sessions SessionState,
	logger *zap.Logger,
	cfg Config,
) *Processor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Processor{
		carts:    carts,
		pusher:   pusher,
		monitor:  monitor,
		sessions: sessions,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
		retries:  make(map[string]int),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = p.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := p.Drain(ctx); err != nil {
			p.logger.Error("cart sync failed", zap.Error(err))
		}
	})

	return p
}

// Start launches the cron scheduler.
func (p *Processor) Start() {
	if p == nil || p.cron == nil {
		return
	}
	p.cron.Start()
	p.logger.Info("cart sync started")
}

// Stop gracefully stops the scheduler.
func (p *Processor) Stop(ctx context.Context) {
	if p == nil || p.cron == nil {
		return
	}
	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	p.logger.Info("cart sync stopped")
}

// Drain pushes every cached cart item once. Items that keep failing are
// skipped after MaxRetries until they change again.
func (p *Processor) Drain(ctx context.Context) error {
	if p == nil || p.carts == nil || p.pusher == nil {
		return nil
	}
	if p.monitor != nil && !p.monitor.IsOnline() {
		p.logger.Debug("skipping cart sync (offline)")
		return nil
	}
	if p.sessions != nil && !p.sessions.Snapshot().IsAuthenticated {
		p.logger.Debug("skipping cart sync (unauthenticated)")
		return nil
	}

	items, err := p.carts.List(ctx)
	if err != nil {
		return err
	}

	for _, item := range items {
		if p.exhausted(item.ID) {
			continue
		}
		if err := p.pusher.PushCartItem(ctx, item); err != nil {
			attempts := p.bump(item.ID)
			p.logger.Warn("cart item push failed",
				zap.String("item_id", item.ID),
				zap.Int("attempts", attempts),
				zap.Error(err))
			if attempts >= p.cfg.MaxRetries {
				p.logger.Warn("cart item parked (max retries reached)", zap.String("item_id", item.ID))
			}
			continue
		}
		p.clear(item.ID)
	}
	return nil
}

func (p *Processor) exhausted(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.retries[id] >= p.cfg.MaxRetries
}

func (p *Processor) bump(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.retries[id]++
	return p.retries[id]
}

func (p *Processor) clear(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.retries, id)
}
