package store

import (
	"context"
	"sync"
	"time"

	"quantum_bot/internal/models"
)

// Memory — mutex-guarded in-memory store. Used when no database is
// configured and throughout the tests.
type Memory struct {
	mu     sync.RWMutex
	trades []models.Order
	cycles []models.CycleResult
	perf   []models.PerformancePoint
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) AppendTrade(ctx context.Context, order models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, order)
	return nil
}

func (m *Memory) AppendCycle(ctx context.Context, result models.CycleResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles = append(m.cycles, result)
	return nil
}

func (m *Memory) AppendPerformance(ctx context.Context, point models.PerformancePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perf = append(m.perf, point)
	return nil
}

func (m *Memory) LastTrades(ctx context.Context, n int) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n > len(m.trades) {
		n = len(m.trades)
	}
	out := make([]models.Order, 0, n)
	for i := len(m.trades) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.trades[i])
	}
	return out, nil
}

func (m *Memory) LatestCycle(ctx context.Context) (models.CycleResult, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.cycles) == 0 {
		return models.CycleResult{}, false, nil
	}
	return m.cycles[len(m.cycles)-1], true, nil
}

func (m *Memory) PerformanceSeries(ctx context.Context, from time.Time) ([]models.PerformancePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.PerformancePoint, 0, len(m.perf))
	for _, pt := range m.perf {
		if !pt.At.Before(from) {
			out = append(out, pt)
		}
	}
	return out, nil
}
