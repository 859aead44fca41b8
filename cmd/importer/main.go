package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"offers-marketplace/internal/config"
	"offers-marketplace/internal/db"
	"offers-marketplace/internal/domain"
	"offers-marketplace/internal/importer"
	accountrepo "offers-marketplace/internal/repository/account"
	categoryrepo "offers-marketplace/internal/repository/category"
	offerrepo "offers-marketplace/internal/repository/offer"
	profilerepo "offers-marketplace/internal/repository/profile"
	offersvc "offers-marketplace/internal/service/offer"
)

func main() {
	var (
		filePath string
		asEmail  string
	)
	flag.StringVar(&filePath, "file", "", "Path to the offers CSV file")
	flag.StringVar(&asEmail, "as", "", "Email of the account the offers are created for")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: importer -file offers.csv -as brand@example.com\n\nColumns: %s\n\n", strings.Join(importer.Columns, ","))
		flag.PrintDefaults()
	}
	flag.Parse()

	if filePath == "" || asEmail == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
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

	account, err := accountrepo.NewPostgres(pool, logger).GetByEmail(ctx, asEmail)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Fatalf("no account with email %q", asEmail)
	}
	if err != nil {
		logger.Fatalf("look up account %q: %v", asEmail, err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	categoryRepo := categoryrepo.NewPostgres(pool, logger)
	offers := offersvc.New(offerrepo.NewPostgres(pool, logger), categoryRepo, profilerepo.NewPostgres(pool, logger), logger).WithSource("importer")
	imp := importer.NewCSVImporter(f, offers, categoryRepo, domain.CallerFor(account))

	start := time.Now()
	report, err := imp.Run(ctx)
	for _, failure := range report.Failures {
		logger.Printf("skipped %v", failure)
	}
	if err != nil {
		logger.Fatalf("import failed after %d offers: %v", len(report.Imported), err)
	}

	fmt.Printf("Imported %d offers for %s in %s (%d rows skipped)\n",
		len(report.Imported), account.Email, time.Since(start).Truncate(time.Millisecond), len(report.Failures))
	if len(report.Failures) > 0 {
		os.Exit(1)
	}
}
