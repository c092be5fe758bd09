package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ksalhab89/coupon-system-auth/internal/infra/app"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/config"
)

func main() {
	// Missing .env is fine; real deployments inject environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}
