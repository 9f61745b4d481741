package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-express/internal/cart"
	"campus-express/internal/catalog"
	"campus-express/internal/checkout"
	"campus-express/internal/config"
	"campus-express/internal/notify"
	"campus-express/internal/orders"
	"campus-express/internal/payment"
	"campus-express/internal/pickup"
	"campus-express/internal/reconcile"
	"campus-express/internal/sequence"
	"campus-express/internal/storefront"
	"campus-express/internal/users"
	"campus-express/pkg/db"
	"campus-express/pkg/logger"
	"campus-express/pkg/rabbitmq"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	mode := flag.String("mode", "", "Service mode: storefront, notification-subscriber, blacklist-sweep")
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	flag.Parse()

	// A local .env complements the shell environment; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("campus-express", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "storefront":
		err = runStorefront(ctx, cfg, log)
	case "notification-subscriber":
		err = runSubscriber(ctx, cfg, log)
	case "blacklist-sweep":
		err = runSweep(ctx, cfg, log)
	default:
		fmt.Println("Invalid mode. Use --mode=storefront, --mode=notification-subscriber, or --mode=blacklist-sweep")
		os.Exit(1)
	}

	if err != nil {
		log.Fatal().Err(err).Str("mode", *mode).Msg("service stopped with error")
	}
}

// runStorefront serves the HTTP API and runs the periodic blacklist sweep
// alongside it. Both stop together on the first failure or on shutdown.
func runStorefront(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	loc, err := cfg.Store.Location()
	if err != nil {
		return err
	}
	opening, err := pickup.ParseClock(cfg.Store.Opening)
	if err != nil {
		return fmt.Errorf("store.opening: %w", err)
	}
	closing, err := pickup.ParseClock(cfg.Store.DefaultClosing)
	if err != nil {
		return fmt.Errorf("store.default_closing: %w", err)
	}
	planner := pickup.Planner{Opening: opening, DefaultClosing: closing}
	now := func() time.Time { return time.Now().In(loc) }

	pool, err := db.Connect(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	rmq, err := rabbitmq.Connect(cfg.RMQ, log)
	if err != nil {
		return err
	}
	defer rmq.Close()

	userRepo := users.NewRepo(pool)
	catalogRepo := catalog.NewRepo(pool)
	cartRepo := cart.NewRepo(pool)
	orderRepo := orders.NewRepo(pool)
	seq := sequence.New(sequence.NewPostgresStore(pool))
	gateway := payment.NewClient(cfg.Payment)
	publisher := notify.NewPublisher(rmq, log)

	orch := checkout.New(checkout.Deps{
		Users:   userRepo,
		Catalog: catalogRepo,
		Cart:    cartRepo,
		Planner: planner,
		Seq:     seq,
		Gateway: gateway,
		Orders:  orderRepo,
		Now:     now,
	}, log)
	orderSvc := orders.NewService(orderRepo, orderRepo, userRepo, publisher, log)
	events := reconcile.NewService(orderRepo, cfg.Payment.WebhookSecret, log)

	handler := storefront.NewHandler(storefront.Deps{
		Users:    userRepo,
		Catalog:  catalogRepo,
		Cart:     cartRepo,
		Checkout: orch,
		Orders:   orderSvc,
		Events:   events,
		Planner:  planner,
		Now:      now,
	}, log)
	server := storefront.NewServer(cfg.HTTP.Port, handler.Routes(), log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx) })
	g.Go(func() error { return sweepLoop(ctx, orderSvc, cfg.Blacklist.SweepInterval, log) })
	return g.Wait()
}

func runSubscriber(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	rmq, err := rabbitmq.Connect(cfg.RMQ, log)
	if err != nil {
		return err
	}
	defer rmq.Close()

	sub := notify.NewSubscriber(rmq, notify.NewNotifier(log), log)
	return sub.Run(ctx)
}

// runSweep is the one-shot form of the blacklist sweep, for cron or manual
// runs against a storefront that is not currently serving.
func runSweep(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	pool, err := db.Connect(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	flagged, err := orders.NewRepo(pool).BlacklistDelinquents(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("action", "blacklist_sweep").Int64("flagged", flagged).Msg("sweep finished")
	return nil
}

func sweepLoop(ctx context.Context, svc *orders.Service, every time.Duration, log zerolog.Logger) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := svc.SweepBlacklist(ctx); err != nil {
				// The storefront keeps serving; the next tick retries.
				log.Error().Err(err).Str("action", "blacklist_sweep_failed").Msg("sweep did not complete")
			}
		}
	}
}
