package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kunaldev758/chataffy-sub000/internal/bootstrap"
	"github.com/kunaldev758/chataffy-sub000/internal/config"
	"github.com/kunaldev758/chataffy-sub000/internal/tracer"
	"github.com/kunaldev758/chataffy-sub000/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Ingestion Coordinator...")
		if err := container.CoordinatorService.Consume(ctx); err != nil {
			log.Printf("Background Coordinator Error: %v", err)
		}
	}()

	queueDone := make(chan struct{})
	go func() {
		defer close(queueDone)
		log.Println("Background: Starting Completion Queue dispatch loop...")
		container.TaskQueue.Run(ctx)
	}()

	// 5. Block until shutdown signal. Run returns only after in-flight
	// completions settle, so wait for it before exiting.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Printf("Received %s, shutting down...", sig)
	cancel()
	<-queueDone
}
