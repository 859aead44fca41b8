package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"offers-marketplace/internal/config"
	"offers-marketplace/internal/db"
	"offers-marketplace/internal/httpserver"
	accountrepo "offers-marketplace/internal/repository/account"
	categoryrepo "offers-marketplace/internal/repository/category"
	logorepo "offers-marketplace/internal/repository/logo"
	offerrepo "offers-marketplace/internal/repository/offer"
	profilerepo "offers-marketplace/internal/repository/profile"
	tokenrepo "offers-marketplace/internal/repository/token"
	accountsvc "offers-marketplace/internal/service/account"
	catalogsvc "offers-marketplace/internal/service/catalog"
	logosvc "offers-marketplace/internal/service/logo"
	offersvc "offers-marketplace/internal/service/offer"
	profilesvc "offers-marketplace/internal/service/profile"
	"offers-marketplace/internal/storage"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv(ctx)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	dbpool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	store, err := storage.NewLocal(cfg.Media.Root, cfg.Media.URLHost, "/media")
	if err != nil {
		logger.Fatalf("init media storage: %v", err)
	}

	accountRepo := accountrepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool, logger)
	categoryRepo := categoryrepo.NewPostgres(dbpool, logger)
	offerRepo := offerrepo.NewPostgres(dbpool, logger)
	profileRepo := profilerepo.NewPostgres(dbpool, logger)
	logoRepo := logorepo.NewPostgres(dbpool, logger)

	accountService := accountsvc.New(accountRepo, tokenRepo, cfg.Token.AccessTTL(), logger)
	catalogService := catalogsvc.New(categoryRepo, offerRepo, logger)
	offerService := offersvc.New(offerRepo, categoryRepo, profileRepo, logger)
	logoService := logosvc.New(logoRepo, store, cfg.Media.MaxUploadBytes, logger)
	profileService := profilesvc.New(profileRepo, store, cfg.Media.MaxUploadBytes, logger)

	srv, err := httpserver.New(cfg.HTTP.Addr, logger, dbpool, httpserver.Deps{
		AuthSvc:    accountService,
		CatalogSvc: catalogService,
		OfferSvc:   offerService,
		LogoSvc:    logoService,
		ProfileSvc: profileService,
	}, httpserver.Options{
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		LoginRate:      cfg.HTTP.LoginRate,
		LoginBurst:     cfg.HTTP.LoginBurst,
		MediaRoot:      cfg.Media.Root,
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	go purgeTokens(ctx, logger, accountService, cfg.Token.PurgeInterval())

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Printf("received shutdown signal")
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// purgeTokens deletes expired access tokens every interval until ctx ends.
func purgeTokens(ctx context.Context, logger *log.Logger, svc *accountsvc.Service, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.PurgeExpiredTokens(ctx); err != nil {
				logger.Printf("purge tokens: %v", err)
			}
		}
	}
}
