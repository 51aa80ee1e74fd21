// Package main is the entry point for the kitchenline scheduler.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kitchenline/internal/config"
	"kitchenline/internal/logger"
	"kitchenline/internal/notify"
	"kitchenline/internal/observability"
	"kitchenline/internal/scheduler"
	"kitchenline/internal/server"
	"kitchenline/internal/server/handlers"
	"kitchenline/internal/store/postgres"
	"kitchenline/internal/ticket"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	configPath := flag.String("config", "", "Path to config file (default: kitchenline.yaml in current directory)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogger := logger.New(cfg.LogLevel)

	ctx := context.Background()
	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer store.Close()

	if *migrateFlag {
		log.Println("Running database migrations...")
		if err := postgres.Migrate(store.DB()); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
	}

	// Tracing
	shutdownTracer, err := observability.InitTracer(ctx, "kitchenline-scheduler", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	// Metrics
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Printf("Failed to shutdown metrics: %v", err)
		}
	}()

	schedMetrics, err := observability.NewSchedulerMetrics()
	if err != nil {
		log.Printf("Failed to init scheduler metrics: %v", err)
	}

	// An observable gauge that reads the load only when scraped.
	meter := otel.Meter("kitchenline-scheduler")
	_, err = meter.Int64ObservableGauge("kitchen.current_load",
		metric.WithDescription("Orders currently in preparation"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			count, err := store.CountInPreparationToday(ctx)
			if err != nil {
				log.Printf("Failed to count kitchen load: %v", err)
				return nil // Don't crash metrics scrape on DB error
			}
			obs.Observe(int64(count))
			return nil
		}),
	)
	if err != nil {
		log.Printf("Failed to register load metric: %v", err)
	}

	// Notifications: AMQP when a broker is configured, discard otherwise.
	var notifier notify.Notifier = notify.Nop{}
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.DialAMQP(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("Failed to connect to AMQP broker: %v", err)
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	}

	// Scheduling engine
	oracle := scheduler.NewCapacityOracle(store, store, slogger)
	timing := scheduler.NewTimingCalculator(store, slogger)
	tickets := ticket.NewCreator(store, store, notifier, slogger)
	engine := scheduler.NewEngine(store, oracle, timing, tickets, notifier, schedMetrics, slogger, nil)
	sweep := scheduler.NewLateSweep(store, notifier, slogger, nil)
	tuner := scheduler.NewTuner(store, store, oracle, timing, slogger, nil)

	driver := scheduler.NewDriver(engine, sweep, tuner, store, slogger, nil)
	driver.Start(cfg.TickInterval)
	defer driver.Stop()

	// Admin HTTP surface
	h := handlers.New(store, driver, engine, store, tuner)
	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := server.New(addr, h, metricsHandler)

	go func() {
		log.Printf("Kitchenline scheduler starting on %s", addr)
		if err := srv.Run(ctx); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	driver.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited properly")
}
