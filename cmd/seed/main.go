package main

import (
	"context"
	"flag"
	"log"
	"os"

	"offers-marketplace/internal/config"
	"offers-marketplace/internal/db"
	"offers-marketplace/internal/seed"
)

func main() {
	var password string
	flag.StringVar(&password, "password", "Passw0rd!", "Password given to newly created demo accounts")
	flag.Parse()

	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	cfg, err := config.FromEnv(ctx)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := seed.Apply(ctx, pool, password); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Println("seed applied")
}
