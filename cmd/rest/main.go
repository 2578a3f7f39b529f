package main

import (
	"context"
	"log"

	"portfolio-chat-be/internal/bootstrap"
	"portfolio-chat-be/internal/config"
	"portfolio-chat-be/internal/server"
	"portfolio-chat-be/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.Init(cfg.Tracing)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)

	// 4. Start Background Services
	if container.PersistService != nil {
		go func() {
			log.Println("Background: Starting Persist Service...")
			if err := container.PersistService.Consume(context.Background()); err != nil {
				log.Printf("Background Persist Error: %v", err)
			}
		}()
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
