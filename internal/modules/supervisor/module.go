package supervisor

import (
	"time"

	"go.uber.org/fx"

	"quantum_bot/internal/broker"
	"quantum_bot/internal/broker/stream"
	"quantum_bot/internal/models"
	"quantum_bot/internal/modules/config"
	"quantum_bot/internal/modules/supervisor/service"
	"quantum_bot/internal/notify"
	"quantum_bot/internal/store"
)

func newShadowChan() chan models.Signal {
	return make(chan models.Signal, 256)
}
func asSendOnlyShadow(ch chan models.Signal) chan<- models.Signal { return ch }
func asRecvOnlyShadow(ch chan models.Signal) <-chan models.Signal { return ch }

func newTuning(cfg *config.Config) *service.Tuning {
	return service.NewTuning(cfg.MinConfidence)
}

func newModules(
	cfg *config.Config,
	st store.Store,
	tuning *service.Tuning,
	n notify.Notifier,
	shadowIn <-chan models.Signal,
) []service.AuxModule {
	var src service.TickSource
	if cfg.StreamURL != "" {
		src = stream.NewClient(cfg.StreamURL)
	}

	paper := broker.NewPaper(cfg.PaperStartBalance)

	return []service.AuxModule{
		service.NewAdaptive(st, tuning, 2*cfg.CycleInterval),
		service.NewGodMode(src, cfg.Symbols),
		service.NewNarrator(st, n, 10*cfg.CycleInterval),
		service.NewShadow(paper, cfg.ShadowRisk, shadowIn),
	}
}

func newSupervisor(cfg *config.Config, modules []service.AuxModule) *service.Supervisor {
	timeout := cfg.ModuleStopTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return service.NewSupervisor(modules, timeout)
}

func Module() fx.Option {
	return fx.Module("supervisor",
		fx.Provide(
			newShadowChan,    // chan models.Signal
			asSendOnlyShadow, // chan<- models.Signal (orchestrator publishes)
			asRecvOnlyShadow, // <-chan models.Signal (shadow consumes)
			newTuning,
			newModules,
			newSupervisor,
		),
	)
}
