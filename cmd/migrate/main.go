package main

import (
	"context"
	"flag"
	"log"
	"os"

	"offers-marketplace/internal/config"
	"offers-marketplace/internal/db"
	"offers-marketplace/internal/migrate"
)

func main() {
	var versionOnly bool
	flag.BoolVar(&versionOnly, "version", false, "Print the current schema version and exit")
	flag.Parse()

	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

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

	if versionOnly {
		version, err := migrate.Version(ctx, pool)
		if err != nil {
			logger.Fatalf("read schema version: %v", err)
		}
		logger.Printf("schema version=%d", version)
		return
	}

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}
	version, err := migrate.Version(ctx, pool)
	if err != nil {
		logger.Fatalf("read schema version: %v", err)
	}
	logger.Printf("migrations applied version=%d", version)
}
