package main

import (
	"flag"
	"log"
	"os"

	"CoinBoard/internal/di"
	"CoinBoard/pkg/config"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("coinboard starting env=%s backend=%s db=%s",
		cfg.Environment, cfg.Backend.Type, cfg.ClickHouse.Database)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run blocks until SIGINT/SIGTERM, then shuts components down in order.
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
