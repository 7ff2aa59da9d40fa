package store

import (
	"context"
	"time"

	"quantum_bot/internal/models"
)

// TradeWriter — write-only surface the dispatcher appends terminal orders to.
type TradeWriter interface {
	AppendTrade(ctx context.Context, order models.Order) error
}

// PerformanceWriter — write-only surface the orchestrator appends cycle
// records and equity samples to.
type PerformanceWriter interface {
	AppendCycle(ctx context.Context, result models.CycleResult) error
	AppendPerformance(ctx context.Context, point models.PerformancePoint) error
}

// Store — full surface. Queries exist for the reporting collaborator; the
// core itself only writes.
type Store interface {
	TradeWriter
	PerformanceWriter

	// LastTrades returns up to n terminal orders, newest first.
	LastTrades(ctx context.Context, n int) ([]models.Order, error)
	// LatestCycle returns the most recent cycle record, or ok=false when no
	// cycle has completed yet ("no data yet", not an error).
	LatestCycle(ctx context.Context) (models.CycleResult, bool, error)
	// PerformanceSeries returns equity samples since from, oldest first.
	PerformanceSeries(ctx context.Context, from time.Time) ([]models.PerformancePoint, error)
}
