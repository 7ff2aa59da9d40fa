package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"quantum_bot/internal/accounts"
	"quantum_bot/internal/dispatch"
	"quantum_bot/internal/models"
	supservice "quantum_bot/internal/modules/supervisor/service"
	"quantum_bot/internal/notify"
	"quantum_bot/internal/risk"
	"quantum_bot/internal/scanner"
	"quantum_bot/internal/store"
	"quantum_bot/pkg/logger"
)

const drainTimeout = 30 * time.Second

type Config struct {
	Symbols       []string
	Timeframe     string
	Lookback      int
	CycleInterval time.Duration
	ScanFanout    int
	CallTimeout   time.Duration
	ExportPath    string
}

// Probe receives lifecycle and cycle progress updates. The health endpoint
// state satisfies it.
type Probe interface {
	SetReady(v bool)
	SetStateName(name string)
	TouchCycle(t time.Time)
}

// Deps — collaborators the orchestrator drives. All required except Probe.
type Deps struct {
	Roster     *accounts.Roster
	Scanner    *scanner.Scanner
	Sizer      *risk.Sizer
	Dispatcher *dispatch.Dispatcher
	Store      store.Store
	Supervisor *supservice.Supervisor
	Tuning     *supservice.Tuning
	Notifier   notify.Notifier
	Shadow     chan<- models.Signal
	Probe      Probe
}

// Orchestrator owns one run: connect the roster, start the auxiliary
// modules, then scan-size-dispatch on a fixed cadence until cancelled.
// The run goroutine is the only writer of results and state transitions.
type Orchestrator struct {
	cfg  Config
	deps Deps

	state   atomic.Int32
	results []models.CycleResult

	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config, deps Deps) *Orchestrator {
	if cfg.CycleInterval <= 0 {
		cfg.CycleInterval = 30 * time.Second
	}
	if cfg.ScanFanout <= 0 {
		cfg.ScanFanout = 4
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}
	o := &Orchestrator{
		cfg:  cfg,
		deps: deps,
		done: make(chan struct{}),
	}
	o.state.Store(int32(StateIdle))
	return o
}

func (o *Orchestrator) State() State { return State(o.state.Load()) }

// Results — a copy of every cycle record accumulated so far. Safe to call
// after Shutdown has returned; mid-run callers race with the cycle writer
// and should read the store instead.
func (o *Orchestrator) Results() []models.CycleResult {
	out := make([]models.CycleResult, len(o.results))
	copy(out, o.results)
	return out
}

// Run executes the full lifecycle and blocks until ctx is cancelled and the
// drain completes. A master connect failure aborts before any cycle runs.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.done)
	defer o.transition(StateStopped)

	o.transition(StateInitializing)
	if err := o.deps.Roster.ConnectAll(ctx); err != nil {
		logger.Error("[ORCH] run aborted: %v", err)
		o.deps.Notifier.Sendf("🛑 run aborted: %v", err)
		return err
	}

	o.deps.Supervisor.StartAll(ctx)
	o.warmup(ctx)

	o.transition(StateRunning)
	o.deps.Notifier.Sendf("🚀 run started: %d accounts connected, %d symbols",
		len(o.deps.Roster.Connected()), len(o.cfg.Symbols))

	next := time.Now()
	for ctx.Err() == nil {
		o.runCycle(ctx)

		// schedule against the original grid, not against cycle end, so a
		// slow cycle does not push every later cycle back
		now := time.Now()
		for next = next.Add(o.cfg.CycleInterval); !next.After(now); next = next.Add(o.cfg.CycleInterval) {
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Until(next)):
		}
	}

	o.drain()
	return nil
}

// Shutdown cancels the run and waits for the drain to finish.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	if o.cancel != nil {
		o.cancel()
	}
	select {
	case <-o.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches Run on its own goroutine with a context detached from the
// caller; fx start contexts expire once startup finishes.
func (o *Orchestrator) Start() {
	runCtx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	go func() { _ = o.Run(runCtx) }()
}

func (o *Orchestrator) transition(s State) {
	o.state.Store(int32(s))
	logger.Info("[ORCH] state: %s", s)
	if p := o.deps.Probe; p != nil {
		p.SetStateName(s.String())
		p.SetReady(s == StateRunning)
	}
}

// warmup prefetches one candle window per symbol so the first cycle starts
// against a warm data path. Failures are logged and left to the cycle loop.
func (o *Orchestrator) warmup(ctx context.Context) {
	svc := o.deps.Roster.Master.Service()
	sem := make(chan struct{}, o.cfg.ScanFanout)
	var wg sync.WaitGroup
	for _, symbol := range o.cfg.Symbols {
		wg.Add(1)
		sem <- struct{}{}
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
			defer cancel()
			if _, err := svc.Candles(callCtx, symbol, o.cfg.Timeframe, o.cfg.Lookback); err != nil {
				logger.Warn("[ORCH] warmup %s: %v", symbol, err)
			}
		}(symbol)
	}
	wg.Wait()
}

func (o *Orchestrator) drain() {
	o.transition(StateDraining)

	// in-flight dispatches already completed inside runCycle; draining is
	// module stop, disconnect and the final export
	stopCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	o.deps.Supervisor.StopAll(stopCtx)
	o.deps.Roster.DisconnectAll(stopCtx)

	if err := o.export(); err != nil {
		logger.Error("[ORCH] export results: %v", err)
	}
	o.deps.Notifier.Sendf("🏁 run finished: %d cycles recorded", len(o.results))
}
