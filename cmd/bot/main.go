package main

import (
	"context"
	"log"

	"quantum_bot/internal/modules/config"
	"quantum_bot/internal/modules/health"
	"quantum_bot/internal/modules/orchestrator"
	"quantum_bot/internal/modules/postgres"
	"quantum_bot/internal/modules/supervisor"
	"quantum_bot/internal/notify"
	"quantum_bot/pkg/logger"
	"quantum_bot/pkg/tracing"

	"go.uber.org/fx"
)

func newNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err == nil {
			return tg
		}
		logger.Error("telegram notifier unavailable, falling back to stdout: %v", err)
	}
	return notify.NewStdout()
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if cfg.Jaeger.Host == "" {
		return nil
	}
	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Jaeger.Host,
		Port: cfg.Jaeger.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			closeTracer()
			return nil
		},
	})
	return nil
}

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			newNotifier,
		),
		config.Module(),
		postgres.Module(),
		supervisor.Module(),
		health.Module(),
		orchestrator.Module(),
		fx.Invoke(initTracing),
	)
	app.Run()
}
