package main

import (
	"context"
	"fmt"
	"lifeline/config"
	"lifeline/pkg/bot"
	"lifeline/pkg/dispatch"
	"lifeline/pkg/events"
	"lifeline/pkg/geocoder"
	"lifeline/pkg/logger"
	"lifeline/service"
	"lifeline/storage"
	"lifeline/storage/memory"
	"lifeline/storage/postgres"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	if err := run(cfg, log); err != nil {
		log.Error("shutting down with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Stopped")
}

func run(cfg config.Config, log logger.ILogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stg, err := openStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer stg.Close()

	publisher := openPublisher(cfg, log)
	defer publisher.Close()

	reverser := geocoder.NewCachedReverser(
		geocoder.NewNominatim(cfg.GeocoderURL, cfg.GeocoderUserAgent),
		stg.Geocode(),
		cfg.GeocoderCacheTTL,
		log,
	)

	svc := service.New(service.Deps{
		API:       dispatch.New(cfg.DispatchBaseURL, cfg.HTTPTimeout, log),
		Geocoder:  reverser,
		Storage:   stg,
		Publisher: publisher,
		Log:       log,
		Timing: service.Timing{
			PollInterval:         cfg.PollInterval,
			CompletionFixTimeout: cfg.CompletionFixTimeout,
			BookingFixTimeout:    cfg.BookingFixTimeout,
		},
	})

	// tokens from a previous run are never trusted
	if _, err := svc.DiscardStaleTokens(ctx); err != nil {
		log.Warning("failed to discard stale tokens", logger.Error(err))
	}

	requesterBot, err := bot.New(bot.BotTypeRequester, &cfg, svc, log)
	if err != nil {
		return fmt.Errorf("init requester bot: %w", err)
	}

	driverBot, err := bot.New(bot.BotTypeDriver, &cfg, svc, log)
	if err != nil {
		return fmt.Errorf("init driver bot: %w", err)
	}

	log.Info("🚑 Dispatch client is starting...")

	g, gctx := errgroup.WithContext(ctx)
	for _, b := range []*bot.Bot{requesterBot, driverBot} {
		g.Go(func() error {
			b.Start()
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			b.Stop()
			return nil
		})
	}
	g.Go(func() error {
		return bot.RunServer(gctx, fmt.Sprintf(":%d", cfg.AppPort), bot.NewRouter(svc, driverBot, log), log)
	})

	return g.Wait()
}

func openStorage(ctx context.Context, cfg config.Config, log logger.ILogger) (storage.IStorage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Info("using in-memory storage")
		return memory.New(), nil
	case config.StoragePostgres:
		return postgres.New(ctx, cfg, log)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func openPublisher(cfg config.Config, log logger.ILogger) events.Publisher {
	if cfg.RabbitMQURL == "" {
		return events.Noop{}
	}
	p, err := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, log)
	if err != nil {
		log.Warning("events disabled, broker unreachable", logger.Error(err))
		return events.Noop{}
	}
	return p
}
