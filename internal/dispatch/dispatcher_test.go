package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"quantum_bot/internal/accounts"
	"quantum_bot/internal/broker"
	"quantum_bot/internal/models"
	"quantum_bot/internal/store"
)

func testHandle(t *testing.T) (*accounts.Handle, *broker.Paper) {
	t.Helper()
	paper := broker.NewPaper(10_000)
	h := accounts.NewHandle(models.Account{ID: "acct-1", Role: models.RoleFollower, RiskPerTrade: 0.01}, paper)
	if err := h.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return h, paper
}

func testOrder() *models.Order {
	return &models.Order{
		ID:        "order-1",
		AccountID: "acct-1",
		Signal:    models.Signal{Symbol: "EURUSD", Side: models.SideLong, Entry: 1.1, StopLoss: 1.095},
		Volume:    100,
		Entry:     1.1,
		Outcome:   models.OutcomePending,
	}
}

func fastConfig() Config {
	return Config{MaxRetries: 2, Backoff: time.Millisecond, CallTimeout: time.Second}
}

func TestExecuteFillsFirstTry(t *testing.T) {
	h, _ := testHandle(t)
	st := store.NewMemory()
	d := New(fastConfig(), st)

	got := d.Execute(context.Background(), h, testOrder())
	if got.Outcome != models.OutcomeFilled {
		t.Fatalf("outcome = %s, want filled (reason %q)", got.Outcome, got.Reason)
	}
	if got.Retries != 0 {
		t.Errorf("retries = %d, want 0", got.Retries)
	}
	if got.BrokerRef == "" {
		t.Errorf("filled order has no broker ref")
	}
	if !h.HasOpenPosition("EURUSD") {
		t.Errorf("fill not reflected in the position cache")
	}

	trades, err := st.LastTrades(context.Background(), 10)
	if err != nil || len(trades) != 1 {
		t.Fatalf("trade history = %d rows, err %v, want 1 row", len(trades), err)
	}
}

func TestExecuteRejectionIsTerminal(t *testing.T) {
	h, paper := testHandle(t)
	d := New(fastConfig(), store.NewMemory())

	paper.FailSubmits(1, &broker.RejectionError{Reason: "insufficient margin"})

	got := d.Execute(context.Background(), h, testOrder())
	if got.Outcome != models.OutcomeRejected {
		t.Fatalf("outcome = %s, want rejected", got.Outcome)
	}
	if got.Retries != 0 {
		t.Errorf("rejection was retried %d times, want 0", got.Retries)
	}
	if got.Reason == "" {
		t.Errorf("rejected order carries no reason")
	}
}

func TestExecuteTransientRetriesThenFails(t *testing.T) {
	h, paper := testHandle(t)
	d := New(fastConfig(), store.NewMemory())

	paper.FailSubmits(100, errors.New("gateway timeout"))

	got := d.Execute(context.Background(), h, testOrder())
	if got.Outcome != models.OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", got.Outcome)
	}
	if got.Retries != 2 {
		t.Errorf("retries = %d, want the full budget of 2", got.Retries)
	}
}

func TestExecuteTransientThenSuccess(t *testing.T) {
	h, paper := testHandle(t)
	d := New(fastConfig(), store.NewMemory())

	paper.FailSubmits(1, errors.New("connection reset"))

	got := d.Execute(context.Background(), h, testOrder())
	if got.Outcome != models.OutcomeFilled {
		t.Fatalf("outcome = %s, want filled after one retry", got.Outcome)
	}
	if got.Retries != 1 {
		t.Errorf("retries = %d, want 1", got.Retries)
	}
}

func TestExecuteSurvivesCancelledCycle(t *testing.T) {
	h, _ := testHandle(t)
	d := New(fastConfig(), store.NewMemory())

	// a dispatched order reaches a terminal outcome even when the cycle
	// context is already cancelled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := d.Execute(ctx, h, testOrder())
	if !got.Outcome.Terminal() {
		t.Fatalf("outcome = %s, want terminal", got.Outcome)
	}
	if got.Outcome != models.OutcomeFilled {
		t.Errorf("outcome = %s, want filled", got.Outcome)
	}
}
