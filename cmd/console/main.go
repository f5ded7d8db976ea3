package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"propintel-console/internal/bootstrap"
	"propintel-console/internal/config"
	"propintel-console/internal/server"
	"propintel-console/internal/tracer"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container := bootstrap.NewContainer(ctx, cfg)
	defer container.Close()

	go container.WebSocketHub.Run(ctx)

	if err := container.EventService.Consume(ctx); err != nil {
		log.Fatalf("Failed to start event delivery: %v", err)
	}

	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down console engine...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
