package service

import (
	"context"
	"testing"
	"time"

	"quantum_bot/internal/broker"
	"quantum_bot/internal/models"
	"quantum_bot/internal/store"
)

func TestAdaptiveTightensAfterFailures(t *testing.T) {
	st := store.NewMemory()
	_ = st.AppendCycle(context.Background(), models.CycleResult{
		At: time.Now(), OrdersAttempted: 4, OrdersFailed: 2,
	})

	tuning := NewTuning(40)
	a := NewAdaptive(st, tuning, time.Minute)
	a.retune(context.Background())

	if got := tuning.MinConfidence(); got != 45 {
		t.Errorf("min confidence = %v, want 45 after a half-failed cycle", got)
	}
}

func TestAdaptiveRelaxesTowardBase(t *testing.T) {
	st := store.NewMemory()
	_ = st.AppendCycle(context.Background(), models.CycleResult{At: time.Now()})

	tuning := NewTuning(40)
	tuning.set(42)
	a := NewAdaptive(st, tuning, time.Minute)

	a.retune(context.Background())
	a.retune(context.Background())
	a.retune(context.Background())

	// two steps down, then pinned at the base
	if got := tuning.MinConfidence(); got != 40 {
		t.Errorf("min confidence = %v, want back at base 40", got)
	}
}

func TestAdaptiveNoDataLeavesTuningAlone(t *testing.T) {
	tuning := NewTuning(40)
	a := NewAdaptive(store.NewMemory(), tuning, time.Minute)
	a.retune(context.Background())
	if got := tuning.MinConfidence(); got != 40 {
		t.Errorf("min confidence = %v, want untouched 40", got)
	}
}

func TestGodModeFlagsOutlierMove(t *testing.T) {
	g := NewGodMode(nil, []string{"BTC-USDT"})

	// steady 0.01% drift, then a 5% jump
	px := 100.0
	for i := 0; i < 20; i++ {
		px *= 1.0001
		g.observe(models.Tick{Symbol: "BTC-USDT", Bid: px, Ask: px})
	}
	if g.Anomalous("BTC-USDT") {
		t.Fatalf("steady drift flagged as anomalous")
	}

	px *= 1.05
	g.observe(models.Tick{Symbol: "BTC-USDT", Bid: px, Ask: px})
	if !g.Anomalous("BTC-USDT") {
		t.Errorf("5%% jump against 0.01%% drift not flagged")
	}

	// the flag clears once the tape calms down
	px *= 1.0001
	g.observe(models.Tick{Symbol: "BTC-USDT", Bid: px, Ask: px})
	if g.Anomalous("BTC-USDT") {
		t.Errorf("flag stuck after the tape calmed down")
	}
}

func TestShadowMirrorsSignal(t *testing.T) {
	paper := broker.NewPaper(10_000)
	signals := make(chan models.Signal, 1)
	sh := NewShadow(paper, 0.01, signals)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sh.Start(ctx) }()

	signals <- models.Signal{
		Symbol:   "EURUSD",
		Side:     models.SideLong,
		Entry:    1.1000,
		StopLoss: 1.0950,
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		positions, err := paper.Positions(context.Background())
		if err == nil && len(positions) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("signal never mirrored into the paper account")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("shadow: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("shadow did not stop on cancellation")
	}

	st := sh.Status()
	if st.Health["mirrored"] != 1 {
		t.Errorf("mirrored health = %v, want 1", st.Health["mirrored"])
	}
}
