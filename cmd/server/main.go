package main // Entry point of the greeter server

import (
	"context"
	"log"

	"github.com/iliyamo/greeter/internal/config"
	"github.com/iliyamo/greeter/internal/router"
	"github.com/iliyamo/greeter/internal/service"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg := config.Load()

	deps := router.Deps{Redis: config.NewRedisClient(context.Background())}
	if cfg.Events.Enabled() {
		pub := service.NewPublisher(cfg.Events.URL, cfg.Events.Queue)
		defer pub.Close()
		deps.Events = pub
	}

	e := router.New(cfg, deps)
	log.Printf("listening on %s (env=%s, redis=%t, events=%t)",
		cfg.Addr, cfg.Env, deps.Redis != nil, cfg.Events.Enabled())

	// a bind failure is fatal; there is no graceful shutdown
	if err := e.Start(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
