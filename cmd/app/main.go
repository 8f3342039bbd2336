package main

import (
	"flag"
	"log"
	"os"

	"CryptoPrep/internal/di"
	"CryptoPrep/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s currencies=%v window=%s..%s backends=%v",
		cfg.Environment, cfg.Data.Currencies, cfg.Data.Start, cfg.Data.End, cfg.Export.Backends)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks while serving, exits after export otherwise)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
