package service

import (
	"context"
	"sync"
	"time"

	"quantum_bot/internal/models"
	"quantum_bot/internal/store"
	"quantum_bot/pkg/logger"
)

// Tuning — parameters the adaptive manager is allowed to move at runtime.
// The orchestrator reads the current value each cycle.
type Tuning struct {
	mu            sync.RWMutex
	base          float64
	minConfidence float64
}

func NewTuning(baseMinConfidence float64) *Tuning {
	return &Tuning{
		base:          baseMinConfidence,
		minConfidence: baseMinConfidence,
	}
}

func (t *Tuning) MinConfidence() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.minConfidence
}

func (t *Tuning) set(v float64) {
	t.mu.Lock()
	t.minConfidence = v
	t.mu.Unlock()
}

// Adaptive nudges the confidence floor from recent cycle outcomes: a streak
// of failed orders tightens it, quiet cycles relax it back toward the base.
type Adaptive struct {
	heartbeat

	st       store.Store
	tuning   *Tuning
	interval time.Duration
}

func NewAdaptive(st store.Store, tuning *Tuning, interval time.Duration) *Adaptive {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Adaptive{st: st, tuning: tuning, interval: interval}
}

func (a *Adaptive) Name() string { return "adaptive" }

func (a *Adaptive) Start(ctx context.Context) error {
	a.running.Store(true)
	defer a.running.Store(false)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.beat()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.retune(ctx)
			a.beat()
		}
	}
}

func (a *Adaptive) Stop(ctx context.Context) error { return nil }

func (a *Adaptive) Status() models.ModuleStatus { return a.status(a.Name()) }

func (a *Adaptive) retune(ctx context.Context) {
	last, ok, err := a.st.LatestCycle(ctx)
	if err != nil {
		logger.Error("[ADAPTIVE] latest cycle: %v", err)
		return
	}
	if !ok {
		return // no data yet
	}

	current := a.tuning.MinConfidence()
	next := current

	switch {
	case last.OrdersAttempted > 0 && last.OrdersFailed*2 >= last.OrdersAttempted:
		// half the book failing: demand more complete patterns
		next = current + 5
		if next > 90 {
			next = 90
		}
	case last.OrdersAttempted == 0 && current > a.tuning.base:
		// nothing traded: drift back toward the configured floor
		next = current - 1
		if next < a.tuning.base {
			next = a.tuning.base
		}
	}

	if next != current {
		logger.Info("[ADAPTIVE] min confidence %.1f -> %.1f", current, next)
		a.tuning.set(next)
	}
	a.setHealth("min_confidence", next)
	a.setHealth("last_cycle_failed", last.OrdersFailed)
}
