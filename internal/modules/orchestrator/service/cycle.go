package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opentracing/opentracing-go"

	"quantum_bot/internal/accounts"
	"quantum_bot/internal/models"
	"quantum_bot/internal/risk"
	"quantum_bot/pkg/logger"
)

// accumulator collects per-cycle counters from concurrent scan and dispatch
// goroutines. Exposure needs the mutex; the counters do not.
type accumulator struct {
	signals   atomic.Int64
	attempted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	mu       sync.Mutex
	exposure float64
}

func (a *accumulator) addOutcome(order *models.Order) {
	if order.Outcome == models.OutcomeFilled {
		a.succeeded.Add(1)
		a.mu.Lock()
		a.exposure += order.Notional()
		a.mu.Unlock()
		return
	}
	a.failed.Add(1)
}

func (a *accumulator) result(at time.Time) models.CycleResult {
	a.mu.Lock()
	exposure := a.exposure
	a.mu.Unlock()
	return models.CycleResult{
		At:              at,
		Signals:         int(a.signals.Load()),
		OrdersAttempted: int(a.attempted.Load()),
		OrdersSucceeded: int(a.succeeded.Load()),
		OrdersFailed:    int(a.failed.Load()),
		Exposure:        exposure,
	}
}

// runCycle is one scan-size-dispatch pass over every symbol. It returns only
// after every dispatched order reached a terminal outcome, so the recorded
// CycleResult is complete and shutdown never abandons an in-flight order.
func (o *Orchestrator) runCycle(ctx context.Context) {
	span := opentracing.GlobalTracer().StartSpan("orchestrator.cycle")
	defer span.Finish()
	cycleCtx := opentracing.ContextWithSpan(ctx, span)

	handles := o.deps.Roster.Connected()
	o.refreshPositions(cycleCtx, handles)

	acc := &accumulator{}
	minConfidence := o.deps.Tuning.MinConfidence()

	var scanWG, dispatchWG sync.WaitGroup
	sem := make(chan struct{}, o.cfg.ScanFanout)

	for _, symbol := range o.cfg.Symbols {
		if ctx.Err() != nil {
			break // cancellation observable between symbols
		}
		scanWG.Add(1)
		sem <- struct{}{}
		go func(symbol string) {
			defer scanWG.Done()
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			o.scanSymbol(cycleCtx, symbol, minConfidence, handles, acc, &dispatchWG)
		}(symbol)
	}
	scanWG.Wait()
	dispatchWG.Wait()

	result := acc.result(time.Now())
	o.results = append(o.results, result)
	span.SetTag("signals", result.Signals)
	span.SetTag("attempted", result.OrdersAttempted)

	// persistence runs detached so a shutdown right after the last dispatch
	// still lands the final cycle row
	writeCtx := context.WithoutCancel(cycleCtx)
	if err := o.deps.Store.AppendCycle(writeCtx, result); err != nil {
		logger.Error("[ORCH] append cycle: %v", err)
	}
	o.samplePerformance(writeCtx, result.At)

	if p := o.deps.Probe; p != nil {
		p.TouchCycle(result.At)
	}
	logger.Info("[ORCH] cycle done: signals=%d attempted=%d filled=%d failed=%d exposure=%.2f",
		result.Signals, result.OrdersAttempted, result.OrdersSucceeded, result.OrdersFailed, result.Exposure)
}

// scanSymbol fetches the symbol's window from the master session, scans it
// and fans every surviving signal out across the roster.
func (o *Orchestrator) scanSymbol(
	ctx context.Context,
	symbol string,
	minConfidence float64,
	handles []*accounts.Handle,
	acc *accumulator,
	dispatchWG *sync.WaitGroup,
) {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	bars, err := o.deps.Roster.Master.Service().Candles(callCtx, symbol, o.cfg.Timeframe, o.cfg.Lookback)
	cancel()
	if err != nil {
		// data gap on one symbol never stalls the cycle
		logger.Warn("[ORCH] candles %s: %v", symbol, err)
		return
	}

	for _, sig := range o.deps.Scanner.Scan(symbol, o.cfg.Timeframe, bars) {
		if sig.Confidence < minConfidence {
			continue
		}
		acc.signals.Add(1)

		if o.deps.Shadow != nil {
			select {
			case o.deps.Shadow <- sig:
			default:
				// shadow lags behind; live dispatch must not wait for it
			}
		}

		for _, h := range handles {
			view, err := o.viewFor(ctx, h, sig.Symbol)
			if err != nil {
				logger.Warn("[ORCH] account %s skipped for %s: %v", h.Account.ID, sig.Symbol, err)
				continue
			}

			order, suppressed := o.deps.Sizer.Size(sig, view)
			if suppressed != risk.SuppressedNone {
				logger.Info("[ORCH] %s %s suppressed: %s", h.Account.ID, sig.Symbol, suppressed)
				continue
			}

			acc.attempted.Add(1)
			dispatchWG.Add(1)
			go func(h *accounts.Handle, order *models.Order) {
				defer dispatchWG.Done()
				acc.addOutcome(o.deps.Dispatcher.Execute(ctx, h, order))
			}(h, order)
		}
	}
}

// viewFor snapshots one account immediately before the sizing decision.
func (o *Orchestrator) viewFor(ctx context.Context, h *accounts.Handle, symbol string) (risk.AccountView, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()

	equity, err := h.Equity(callCtx)
	if err != nil {
		return risk.AccountView{}, err
	}
	meta, err := h.Service().InstrumentMeta(callCtx, symbol)
	if err != nil {
		return risk.AccountView{}, err
	}
	return risk.AccountView{
		AccountID:    h.Account.ID,
		Connected:    h.Connected(),
		Equity:       equity,
		RiskPerTrade: h.Account.RiskPerTrade,
		HasPosition:  h.HasOpenPosition(symbol),
		Meta:         meta,
	}, nil
}

func (o *Orchestrator) refreshPositions(ctx context.Context, handles []*accounts.Handle) {
	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func(h *accounts.Handle) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
			defer cancel()
			if err := h.RefreshPositions(callCtx); err != nil {
				logger.Warn("[ORCH] refresh positions %s: %v", h.Account.ID, err)
			}
		}(h)
	}
	wg.Wait()
}

// samplePerformance appends one master equity point per cycle.
func (o *Orchestrator) samplePerformance(ctx context.Context, at time.Time) {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()

	info, err := o.deps.Roster.Master.Service().AccountInfo(callCtx)
	if err != nil {
		logger.Warn("[ORCH] performance sample: %v", err)
		return
	}
	point := models.PerformancePoint{At: at, Balance: info.Balance, Equity: info.Equity}
	if err := o.deps.Store.AppendPerformance(ctx, point); err != nil {
		logger.Error("[ORCH] append performance: %v", err)
	}
}
