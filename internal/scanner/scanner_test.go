package scanner

import (
	"testing"
	"time"

	"quantum_bot/internal/models"
)

// flatBars builds n quiet bars around price 100.
func flatBars(n int) []models.Candle {
	bars := make([]models.Candle, 0, n)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		bars = append(bars, models.Candle{
			Open:   99.9,
			High:   100.5,
			Low:    99.5,
			Close:  100.1,
			Volume: 1000,
			Start:  start.Add(time.Duration(i) * 15 * time.Minute),
			End:    start.Add(time.Duration(i+1) * 15 * time.Minute),
		})
	}
	return bars
}

// breakoutBars ends a flat window with a bearish bar engulfed by a strong
// bullish breakout close above the channel high.
func breakoutBars(n int) []models.Candle {
	bars := flatBars(n)
	prev := &bars[n-2]
	prev.Open, prev.Close = 100.2, 99.8

	last := &bars[n-1]
	last.Open, last.Close = 99.7, 102.0
	last.High, last.Low = 102.2, 99.6
	return bars
}

func TestScanShortWindowYieldsNothing(t *testing.T) {
	s := New(Config{})
	if got := s.Scan("EURUSD", "15m", flatBars(10)); got != nil {
		t.Fatalf("expected no signals for a short window, got %d", len(got))
	}
	if got := s.Scan("EURUSD", "15m", nil); got != nil {
		t.Fatalf("expected no signals for nil bars, got %d", len(got))
	}
}

func TestScanQuietMarketYieldsNothing(t *testing.T) {
	s := New(Config{})
	if got := s.Scan("EURUSD", "15m", flatBars(80)); got != nil {
		t.Fatalf("expected no signals without a breakout, got %d", len(got))
	}
}

func TestScanDetectsLongBreakout(t *testing.T) {
	s := New(Config{})
	bars := breakoutBars(80)

	got := s.Scan("EURUSD", "15m", bars)
	if len(got) != 1 {
		t.Fatalf("expected exactly one signal, got %d", len(got))
	}
	sig := got[0]

	if sig.Side != models.SideLong {
		t.Errorf("side = %s, want LONG", sig.Side)
	}
	if sig.Pattern != "donchian_breakout_up" {
		t.Errorf("pattern = %q", sig.Pattern)
	}
	if sig.Entry != bars[len(bars)-1].Close {
		t.Errorf("entry = %v, want breakout close %v", sig.Entry, bars[len(bars)-1].Close)
	}
	if sig.StopLoss >= sig.Entry {
		t.Errorf("long stop %v not below entry %v", sig.StopLoss, sig.Entry)
	}
	if sig.TakeProfit <= sig.Entry {
		t.Errorf("long target %v not above entry %v", sig.TakeProfit, sig.Entry)
	}
	// deep engulfing breakout: base 40 + full depth 40 + confirm 20
	if sig.Confidence < 80 || sig.Confidence > 100 {
		t.Errorf("confidence = %v, want within (80, 100]", sig.Confidence)
	}
	if sig.StopDistance() <= 0 {
		t.Errorf("stop distance = %v, want > 0", sig.StopDistance())
	}
}

func TestScanIsDeterministic(t *testing.T) {
	s := New(Config{})
	bars := breakoutBars(80)

	a := s.Scan("EURUSD", "15m", bars)
	b := s.Scan("EURUSD", "15m", bars)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected one signal per scan, got %d and %d", len(a), len(b))
	}
	if a[0].Entry != b[0].Entry || a[0].StopLoss != b[0].StopLoss ||
		a[0].Confidence != b[0].Confidence || a[0].Side != b[0].Side {
		t.Errorf("same bars produced different signals: %+v vs %+v", a[0], b[0])
	}
}

func TestScanMinConfidenceFilters(t *testing.T) {
	s := New(Config{MinConfidence: 101})
	if got := s.Scan("EURUSD", "15m", breakoutBars(80)); got != nil {
		t.Fatalf("expected the confidence floor to drop the signal, got %d", len(got))
	}
}
