package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"incidentbrief/internal/config"
	"incidentbrief/internal/server"
	"incidentbrief/internal/stream"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server)

	if cfg.Watch.Enabled {
		pipeline := stream.NewPipeline(cfg.Watch)
		go pipeline.Start(ctx, srv.Broadcast())
	}

	srv.Start(ctx)
	log.Printf("Shutdown complete")
}
