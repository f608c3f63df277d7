package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-storycraft-be/internal/bootstrap"
	"ai-storycraft-be/internal/config"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Unable to load configuration: %v", err)
	}

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Logger.Sync()

	// 3. Start the Librarian Consumer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Println("Background: Starting Librarian Consumer...")
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("Librarian consumer failed to start: %v", err)
	}

	// 4. Block until shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down librarian worker...")
}
