package models

import "time"

// CycleResult — aggregate outcome of one scan-decide-execute pass.
// Append-only: never mutated after the cycle that created it completes.
type CycleResult struct {
	At              time.Time `json:"at"`
	Signals         int       `json:"signals"`
	OrdersAttempted int       `json:"orders_attempted"`
	OrdersSucceeded int       `json:"orders_succeeded"`
	OrdersFailed    int       `json:"orders_failed"`
	Exposure        float64   `json:"exposure"`
}

// ModuleStatus — last-known health of one auxiliary module.
// Polled on demand, must never block on fresh computation.
type ModuleStatus struct {
	Name          string         `json:"name"`
	Running       bool           `json:"running"`
	LastHeartbeat time.Time      `json:"last_heartbeat"`
	Health        map[string]any `json:"health,omitempty"`
}

// PerformancePoint — balance/equity sample for time-series charting.
type PerformancePoint struct {
	At      time.Time `json:"at"`
	Balance float64   `json:"balance"`
	Equity  float64   `json:"equity"`
}
