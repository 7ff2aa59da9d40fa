package orchestrator

import (
	"context"

	"go.uber.org/fx"

	"quantum_bot/internal/accounts"
	"quantum_bot/internal/broker"
	"quantum_bot/internal/dispatch"
	"quantum_bot/internal/models"
	"quantum_bot/internal/modules/config"
	healthservice "quantum_bot/internal/modules/health/service"
	"quantum_bot/internal/modules/orchestrator/service"
	supservice "quantum_bot/internal/modules/supervisor/service"
	"quantum_bot/internal/notify"
	"quantum_bot/internal/risk"
	"quantum_bot/internal/scanner"
	"quantum_bot/internal/store"
)

// newRoster builds one handle per configured account. The paper service
// stands in for the brokerage adapter; a real deployment swaps it behind
// broker.TradingService without touching the roster.
func newRoster(cfg *config.Config) (*accounts.Roster, error) {
	handles := make([]*accounts.Handle, 0, len(cfg.Accounts))
	for _, acct := range cfg.Accounts {
		handles = append(handles, accounts.NewHandle(acct, broker.NewPaper(cfg.PaperStartBalance)))
	}
	return accounts.NewRoster(handles)
}

func newScanner(cfg *config.Config) *scanner.Scanner {
	return scanner.New(scanner.Config{
		DonchianPeriod: cfg.DonchianPeriod,
		TrendEMAPeriod: cfg.TrendEmaPeriod,
		ATRPeriod:      cfg.ATRPeriod,
		StopATR:        cfg.StopATR,
		TakeProfitRR:   cfg.TakeProfitRR,
		MinConfidence:  cfg.MinConfidence,
	})
}

func newDispatcher(cfg *config.Config, st store.Store) *dispatch.Dispatcher {
	return dispatch.New(dispatch.Config{
		MaxRetries:  cfg.MaxRetries,
		Backoff:     cfg.Backoff,
		CallTimeout: cfg.CallTimeout,
	}, st)
}

func newOrchestrator(
	cfg *config.Config,
	roster *accounts.Roster,
	sc *scanner.Scanner,
	dispatcher *dispatch.Dispatcher,
	st store.Store,
	sup *supservice.Supervisor,
	tuning *supservice.Tuning,
	n notify.Notifier,
	shadow chan<- models.Signal,
	probe *healthservice.State,
) *service.Orchestrator {
	return service.New(service.Config{
		Symbols:       cfg.Symbols,
		Timeframe:     cfg.Timeframe,
		Lookback:      cfg.Lookback,
		CycleInterval: cfg.CycleInterval,
		ScanFanout:    cfg.ScanFanout,
		CallTimeout:   cfg.CallTimeout,
		ExportPath:    cfg.ExportPath,
	}, service.Deps{
		Roster:     roster,
		Scanner:    sc,
		Sizer:      risk.NewSizer(),
		Dispatcher: dispatcher,
		Store:      st,
		Supervisor: sup,
		Tuning:     tuning,
		Notifier:   n,
		Shadow:     shadow,
		Probe:      probe,
	})
}

func run(lc fx.Lifecycle, o *service.Orchestrator) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			o.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return o.Shutdown(ctx)
		},
	})
}

// Module регистрируем оркестратор как fx-провайдер.
func Module() fx.Option {
	return fx.Module("orchestrator",
		fx.Provide(
			newRoster,
			newScanner,
			newDispatcher,
			newOrchestrator,
		),
		fx.Invoke(run),
	)
}
