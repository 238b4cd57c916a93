// Command auditor drains greeting events from RabbitMQ into MySQL and serves
// them read-only over HTTP.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/iliyamo/greeter/internal/config"
	"github.com/iliyamo/greeter/internal/database"
	"github.com/iliyamo/greeter/internal/handler"
	"github.com/iliyamo/greeter/internal/queue"
	"github.com/iliyamo/greeter/internal/repository"
	"github.com/iliyamo/greeter/internal/router"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg, err := config.LoadAuditor()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	repo := repository.NewGreetingEventRepo(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal(err)
	}

	go func() {
		err := queue.StartGreetingConsumer(ctx, cfg.Events.URL, cfg.Events.Queue, repo)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("greeting-consumer: stopped: %v", err)
		}
	}()

	e := router.NewAuditor(cfg.LogLevel, handler.NewEventsHandler(repo))
	go func() {
		<-ctx.Done()
		_ = e.Close()
	}()

	log.Printf("auditor listening on %s (queue=%s)", cfg.Addr, cfg.Events.Queue)
	if err := e.Start(cfg.Addr); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}
