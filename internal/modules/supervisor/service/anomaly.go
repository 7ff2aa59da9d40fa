package service

import (
	"context"
	"sync"

	"quantum_bot/internal/models"
	"quantum_bot/pkg/logger"
)

// TickSource — what the anomaly detector consumes. The websocket stream
// client satisfies this; tests feed a channel directly.
type TickSource interface {
	StreamTicks(ctx context.Context, symbols []string) <-chan models.Tick
}

// GodMode watches the live tick stream for moves far outside each symbol's
// recent volatility and flags them in its health payload. Purely advisory:
// it never interferes with the scan loop.
type GodMode struct {
	heartbeat

	src     TickSource
	symbols []string
	window  int
	factor  float64

	mu    sync.Mutex
	mids  map[string][]float64 // rolling mid prices per symbol
	flags map[string]bool
}

func NewGodMode(src TickSource, symbols []string) *GodMode {
	return &GodMode{
		src:     src,
		symbols: symbols,
		window:  64,
		factor:  6,
		mids:    make(map[string][]float64),
		flags:   make(map[string]bool),
	}
}

func (g *GodMode) Name() string { return "god_mode" }

func (g *GodMode) Start(ctx context.Context) error {
	g.running.Store(true)
	defer g.running.Store(false)

	g.beat()
	if g.src == nil {
		// no stream configured: stay alive so status reads stay meaningful
		<-ctx.Done()
		return nil
	}

	for tick := range g.src.StreamTicks(ctx, g.symbols) {
		g.observe(tick)
		g.beat()
	}
	return nil
}

func (g *GodMode) Stop(ctx context.Context) error { return nil }

func (g *GodMode) Status() models.ModuleStatus { return g.status(g.Name()) }

// Anomalous reports whether the symbol is currently flagged.
func (g *GodMode) Anomalous(symbol string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.flags[symbol]
}

func (g *GodMode) observe(tick models.Tick) {
	mid := (tick.Bid + tick.Ask) / 2
	if mid <= 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	window := g.mids[tick.Symbol]
	if n := len(window); n > 0 {
		prev := window[n-1]
		ret := abs(mid-prev) / prev

		// mean absolute return over the window
		var sum float64
		for i := 1; i < n; i++ {
			sum += abs(window[i]-window[i-1]) / window[i-1]
		}
		if n >= 8 {
			mean := sum / float64(n-1)
			flagged := mean > 0 && ret > g.factor*mean
			if flagged && !g.flags[tick.Symbol] {
				logger.Warn("[GODMODE] %s anomalous move: ret=%.5f mean=%.5f", tick.Symbol, ret, mean)
			}
			g.flags[tick.Symbol] = flagged
			g.setHealth(tick.Symbol, flagged)
		}
	}

	window = append(window, mid)
	if len(window) > g.window {
		window = window[1:]
	}
	g.mids[tick.Symbol] = window
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
