package service

import (
	"context"
	"sync"
	"time"

	"quantum_bot/internal/models"
	"quantum_bot/pkg/logger"
)

// AuxModule — one auxiliary analysis module. Start blocks until ctx is
// cancelled or the module fails; Stop asks for a graceful wind-down; Status
// answers from cached state without blocking on fresh computation.
type AuxModule interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status() models.ModuleStatus
}

// Supervisor runs a fixed roster of auxiliary modules next to the main scan
// loop. Module faults are logged and isolated, they never propagate into
// the trading path.
type Supervisor struct {
	modules     []AuxModule
	stopTimeout time.Duration

	wg sync.WaitGroup
}

func NewSupervisor(modules []AuxModule, stopTimeout time.Duration) *Supervisor {
	if stopTimeout <= 0 {
		stopTimeout = 5 * time.Second
	}
	return &Supervisor{
		modules:     modules,
		stopTimeout: stopTimeout,
	}
}

// StartAll launches every module concurrently and returns immediately. A
// slow or failing module must not delay the first scan cycle.
func (s *Supervisor) StartAll(ctx context.Context) {
	for _, m := range s.modules {
		s.wg.Add(1)
		go func(m AuxModule) {
			defer s.wg.Done()
			if err := m.Start(ctx); err != nil {
				logger.Error("[SUPERVISOR] module %s fault: %v", m.Name(), err)
			}
		}(m)
	}
}

// StopAll stops every module with a bounded per-module timeout. A module
// that does not stop in time is abandoned and logged, never awaited
// indefinitely.
func (s *Supervisor) StopAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, m := range s.modules {
		wg.Add(1)
		go func(m AuxModule) {
			defer wg.Done()

			stopCtx, cancel := context.WithTimeout(ctx, s.stopTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- m.Stop(stopCtx) }()

			select {
			case err := <-done:
				if err != nil {
					logger.Error("[SUPERVISOR] module %s stop: %v", m.Name(), err)
				}
			case <-stopCtx.Done():
				logger.Error("[SUPERVISOR] module %s did not stop within %s, abandoned",
					m.Name(), s.stopTimeout)
			}
		}(m)
	}
	wg.Wait()
}

// Statuses — last-known state of every module, for the reporting side.
func (s *Supervisor) Statuses() []models.ModuleStatus {
	out := make([]models.ModuleStatus, 0, len(s.modules))
	for _, m := range s.modules {
		out = append(out, m.Status())
	}
	return out
}
