package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"SalesPulse/internal/di"
	"SalesPulse/pkg/config"
	applogger "SalesPulse/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	seed := flag.Bool("seed", false, "load the CSV history into ClickHouse and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *seed {
		l, err := applogger.New(&cfg.Logging)
		if err != nil {
			log.Fatalf("logger init failed: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := di.SeedClickHouse(ctx, cfg, l); err != nil {
			l.Error("seed failed", applogger.Error(err))
			os.Exit(1)
		}
		return
	}

	log.Printf("env=%s storage=%s kafka=%t redis=%t", cfg.Environment, cfg.Storage.Backend, cfg.Kafka.Enabled, cfg.Redis.Enabled)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
