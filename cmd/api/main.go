package main

import (
	"context"
	"log"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/bootstrap"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/config"
	"github.com/shalwin04/ai-insights-copilot-sub000/internal/shared/server"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	if cfg.SchedulerOn {
		if err := app.Scheduler.Initialize(context.Background()); err != nil {
			log.Fatalf("scheduler init: %v", err)
		}
		defer app.Scheduler.StopAll()
	}

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
