// Package scanner turns a bounded window of historical bars into zero or
// more trade signals. Scan is pure: the same bar sequence always yields the
// same signals, so the scanner carries no per-symbol state between cycles.
//
// Confidence scoring (monotonic with pattern completeness):
//
//	base 40  — close breaks the prior Donchian channel in the EMA trend
//	           direction (the minimum viable setup);
//	+ up to 40 — breakout distance measured in ATRs, capped at one ATR
//	           (a deeper break is a more complete pattern);
//	+ 20     — the breakout bar itself is a confirming candlestick
//	           (engulfing or hammer/shooting star in the signal direction).
//
// A score of zero is never produced: no breakout means no signal at all.
package scanner

import (
	"fmt"
	"time"

	"github.com/markcheno/go-talib"

	"quantum_bot/internal/models"
)

type Config struct {
	DonchianPeriod int     // channel lookback, N bars
	TrendEMAPeriod int     // EMA trend filter
	ATRPeriod      int     // ATR for stops and score scaling
	StopATR        float64 // stop distance in ATRs
	TakeProfitRR   float64 // TP = entry ± RR * stop distance
	MinConfidence  float64 // signals scored below this are dropped
}

type Scanner struct {
	cfg Config
}

func New(cfg Config) *Scanner {
	if cfg.DonchianPeriod <= 0 {
		cfg.DonchianPeriod = 20
	}
	if cfg.TrendEMAPeriod <= 0 {
		cfg.TrendEMAPeriod = 50
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = 14
	}
	if cfg.StopATR <= 0 {
		cfg.StopATR = 1.5
	}
	if cfg.TakeProfitRR <= 0 {
		cfg.TakeProfitRR = 3.0
	}
	return &Scanner{cfg: cfg}
}

// MinBars — smallest window Scan can work with. Shorter windows yield an
// empty result, never an error.
func (s *Scanner) MinBars() int {
	n := s.cfg.DonchianPeriod + 1
	if s.cfg.TrendEMAPeriod+1 > n {
		n = s.cfg.TrendEMAPeriod + 1
	}
	if s.cfg.ATRPeriod+1 > n {
		n = s.cfg.ATRPeriod + 1
	}
	return n
}

// Scan evaluates the last bar against the channel formed by the bars before
// it. Bars must be ordered oldest first.
func (s *Scanner) Scan(symbol, timeframe string, bars []models.Candle) []models.Signal {
	if len(bars) < s.MinBars() {
		return nil
	}

	last := bars[len(bars)-1]
	prior := bars[:len(bars)-1]

	// channel of the prior N bars, excluding the breakout candidate itself
	chHigh, chLow := channel(prior, s.cfg.DonchianPeriod)

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}

	emaSeries := talib.Ema(closes, s.cfg.TrendEMAPeriod)
	atrSeries := talib.Atr(highs, lows, closes, s.cfg.ATRPeriod)
	ema := emaSeries[len(emaSeries)-1]
	atr := atrSeries[len(atrSeries)-1]
	if atr <= 0 {
		return nil
	}

	var side models.Side
	var pattern string
	var breakDist float64

	switch {
	case last.Close > chHigh && last.Close > ema:
		side = models.SideLong
		pattern = "donchian_breakout_up"
		breakDist = last.Close - chHigh
	case last.Close < chLow && last.Close < ema:
		side = models.SideShort
		pattern = "donchian_breakout_down"
		breakDist = chLow - last.Close
	default:
		return nil
	}

	confidence := 40.0
	depth := breakDist / atr
	if depth > 1 {
		depth = 1
	}
	confidence += 40 * depth

	confirmed := confirmingCandle(bars, side)
	if confirmed {
		confidence += 20
	}

	if confidence < s.cfg.MinConfidence {
		return nil
	}

	entry := last.Close
	var stop, target float64
	if side == models.SideLong {
		stop = entry - s.cfg.StopATR*atr
		target = entry + s.cfg.TakeProfitRR*(entry-stop)
	} else {
		stop = entry + s.cfg.StopATR*atr
		target = entry - s.cfg.TakeProfitRR*(stop-entry)
	}

	notes := fmt.Sprintf("%s: close=%.5f ch=[%.5f, %.5f] ema=%.5f atr=%.5f confirm=%v",
		pattern, last.Close, chLow, chHigh, ema, atr, confirmed)

	return []models.Signal{{
		Symbol:      symbol,
		Pattern:     pattern,
		Side:        side,
		Confidence:  confidence,
		Entry:       entry,
		StopLoss:    stop,
		TakeProfit:  target,
		GeneratedAt: time.Now(),
		Notes:       notes,
	}}
}

func channel(bars []models.Candle, period int) (high, low float64) {
	if len(bars) > period {
		bars = bars[len(bars)-period:]
	}
	high = bars[0].High
	low = bars[0].Low
	for _, b := range bars[1:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low
}

// confirmingCandle checks the breakout bar for a same-direction engulfing
// body or a hammer / shooting-star rejection wick.
func confirmingCandle(bars []models.Candle, side models.Side) bool {
	last := bars[len(bars)-1]
	prev := bars[len(bars)-2]

	body := abs(last.Close - last.Open)
	rng := last.High - last.Low
	if rng <= 0 {
		return false
	}

	if side == models.SideLong {
		bullish := last.Close > last.Open
		engulfing := bullish && prev.Close < prev.Open &&
			last.Close >= prev.Open && last.Open <= prev.Close
		lowerWick := min(last.Open, last.Close) - last.Low
		hammer := bullish && body > 0 && lowerWick >= 2*body
		return engulfing || hammer
	}

	bearish := last.Close < last.Open
	engulfing := bearish && prev.Close > prev.Open &&
		last.Close <= prev.Open && last.Open >= prev.Close
	upperWick := last.High - max(last.Open, last.Close)
	star := bearish && body > 0 && upperWick >= 2*body
	return engulfing || star
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
