package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"options_bot/internal/modules/bootstrap"
	"options_bot/internal/modules/broker"
	"options_bot/internal/modules/config"
	"options_bot/internal/modules/health"
	"options_bot/internal/modules/journal"
	"options_bot/internal/modules/news"
	"options_bot/internal/modules/predictor"
	"options_bot/internal/modules/risk"
	"options_bot/internal/modules/session"
	"options_bot/internal/modules/signal"
	"options_bot/internal/notify"
	"options_bot/pkg/logger"
	"options_bot/pkg/tracing"
)

const serviceName = "options_bot"

func main() {
	logger.SetServiceName(serviceName)
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	tracing.SetServiceName(serviceName)

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			newNotifier,
		),
		config.Module(),
		health.Module(),
		broker.Module(),
		journal.Module(),
		signal.Module(),
		risk.Module(),
		predictor.Module(),
		news.Module(),
		session.Module(),
		bootstrap.Module(),
		fx.Invoke(initTracing),
	)
	app.Run()
}

// тг-нотифайер, если настроен токен; иначе всё в stdout
func newNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		logger.Info("telegram is not configured, notifications go to stdout")
		return notify.NewStdout()
	}
	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		logger.Error("telegram init failed, falling back to stdout: %v", err)
		return notify.NewStdout()
	}
	return tg
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Tracing.Host,
		Port: cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closeTracer()
			return nil
		},
	})
	return nil
}
