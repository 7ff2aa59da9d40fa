package risk

import (
	"math"
	"testing"

	"quantum_bot/internal/models"
)

func fxSignal() models.Signal {
	return models.Signal{
		Symbol:     "EURUSD",
		Side:       models.SideLong,
		Confidence: 80,
		Entry:      1.1000,
		StopLoss:   1.0950, // 50 pips
		TakeProfit: 1.1150,
	}
}

func view(equity, riskPerTrade float64) AccountView {
	return AccountView{
		AccountID:    "acct-1",
		Connected:    true,
		Equity:       equity,
		RiskPerTrade: riskPerTrade,
		Meta: models.Instrument{
			Symbol:     "EURUSD",
			MinVolume:  0.01,
			MaxVolume:  10_000_000,
			VolumeStep: 0.01,
		},
	}
}

func TestSizeScalesWithEquityAndRisk(t *testing.T) {
	s := NewSizer()
	sig := fxSignal()

	// 10k at 1% risks $100 over a 0.005 stop: 20000 units
	order, suppressed := s.Size(sig, view(10_000, 0.01))
	if suppressed != SuppressedNone {
		t.Fatalf("unexpected suppression: %s", suppressed)
	}
	if math.Abs(order.Volume-20_000) > 1e-6 {
		t.Errorf("volume = %v, want 20000", order.Volume)
	}

	// 5k at 0.5% risks $25 over the same stop: 5000 units
	order, suppressed = s.Size(sig, view(5_000, 0.005))
	if suppressed != SuppressedNone {
		t.Fatalf("unexpected suppression: %s", suppressed)
	}
	if math.Abs(order.Volume-5_000) > 1e-6 {
		t.Errorf("volume = %v, want 5000", order.Volume)
	}
	if order.ID == "" || order.Outcome != models.OutcomePending {
		t.Errorf("order not initialized: id=%q outcome=%s", order.ID, order.Outcome)
	}
}

func TestSizeNeverRoundsUp(t *testing.T) {
	s := NewSizer()
	sig := fxSignal()
	sig.StopLoss = 1.0970 // 0.003 stop, raw volume 33333.333...

	order, suppressed := s.Size(sig, view(10_000, 0.01))
	if suppressed != SuppressedNone {
		t.Fatalf("unexpected suppression: %s", suppressed)
	}
	raw := 10_000 * 0.01 / sig.StopDistance()
	if order.Volume > raw {
		t.Errorf("volume %v exceeds raw risk volume %v", order.Volume, raw)
	}
	if math.Abs(order.Volume-33_333.33) > 1e-6 {
		t.Errorf("volume = %v, want 33333.33", order.Volume)
	}
}

func TestSizeClampsToMaxVolume(t *testing.T) {
	s := NewSizer()
	v := view(10_000, 0.01)
	v.Meta.MaxVolume = 1000

	order, suppressed := s.Size(fxSignal(), v)
	if suppressed != SuppressedNone {
		t.Fatalf("unexpected suppression: %s", suppressed)
	}
	if order.Volume != 1000 {
		t.Errorf("volume = %v, want clamp to 1000", order.Volume)
	}
}

func TestSizeSuppressions(t *testing.T) {
	s := NewSizer()
	sig := fxSignal()

	v := view(10_000, 0.01)
	v.Connected = false
	if _, got := s.Size(sig, v); got != SuppressedDisconnected {
		t.Errorf("disconnected: got %q", got)
	}

	v = view(10_000, 0.01)
	v.HasPosition = true
	if _, got := s.Size(sig, v); got != SuppressedOpenPosition {
		t.Errorf("open position: got %q", got)
	}

	flat := sig
	flat.StopLoss = flat.Entry
	if _, got := s.Size(flat, view(10_000, 0.01)); got != SuppressedInvalidStop {
		t.Errorf("zero stop distance: got %q", got)
	}

	// an account too small to buy even the minimum lot sits out
	if _, got := s.Size(sig, view(0.01, 0.001)); got != SuppressedBelowMin {
		t.Errorf("dust equity: got %q", got)
	}

	if _, got := s.Size(sig, view(10_000, 0)); got != SuppressedBelowMin {
		t.Errorf("zero risk fraction: got %q", got)
	}
}

func TestSizeIsDeterministicPerAccount(t *testing.T) {
	s := NewSizer()
	sig := fxSignal()
	v := view(10_000, 0.01)

	a, _ := s.Size(sig, v)
	b, _ := s.Size(sig, v)
	if a.Volume != b.Volume || a.Entry != b.Entry || a.StopLoss != b.StopLoss {
		t.Errorf("same view produced different orders: %+v vs %+v", a, b)
	}
}
