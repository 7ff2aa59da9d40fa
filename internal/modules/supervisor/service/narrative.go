package service

import (
	"context"
	"fmt"
	"time"

	"quantum_bot/internal/models"
	"quantum_bot/internal/notify"
	"quantum_bot/internal/store"
	"quantum_bot/pkg/logger"
)

// Narrator periodically turns the latest cycle record into a human summary
// and pushes it through the notifier.
type Narrator struct {
	heartbeat

	st       store.Store
	n        notify.Notifier
	interval time.Duration

	lastSeen time.Time
}

func NewNarrator(st store.Store, n notify.Notifier, interval time.Duration) *Narrator {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Narrator{st: st, n: n, interval: interval}
}

func (nr *Narrator) Name() string { return "narrative" }

func (nr *Narrator) Start(ctx context.Context) error {
	nr.running.Store(true)
	defer nr.running.Store(false)

	ticker := time.NewTicker(nr.interval)
	defer ticker.Stop()

	nr.beat()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			nr.tell(ctx)
			nr.beat()
		}
	}
}

func (nr *Narrator) Stop(ctx context.Context) error { return nil }

func (nr *Narrator) Status() models.ModuleStatus { return nr.status(nr.Name()) }

func (nr *Narrator) tell(ctx context.Context) {
	last, ok, err := nr.st.LatestCycle(ctx)
	if err != nil {
		logger.Error("[NARRATIVE] latest cycle: %v", err)
		return
	}
	if !ok || !last.At.After(nr.lastSeen) {
		return // nothing new to tell
	}
	nr.lastSeen = last.At

	var mood string
	switch {
	case last.OrdersAttempted == 0 && last.Signals == 0:
		mood = "quiet market, nothing worth trading"
	case last.OrdersFailed > 0:
		mood = fmt.Sprintf("rough cycle, %d of %d orders failed", last.OrdersFailed, last.OrdersAttempted)
	case last.OrdersSucceeded > 0:
		mood = fmt.Sprintf("placed %d orders across the roster", last.OrdersSucceeded)
	default:
		mood = "signals seen but every account sat out"
	}

	nr.n.Sendf("📜 %s | signals=%d attempted=%d filled=%d exposure=%.2f",
		mood, last.Signals, last.OrdersAttempted, last.OrdersSucceeded, last.Exposure)
	nr.setHealth("last_summary_at", last.At)
}
