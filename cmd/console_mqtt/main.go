// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/relabs-tech/climate_agent/internal/app"
	"github.com/relabs-tech/climate_agent/internal/config"
	"github.com/relabs-tech/climate_agent/internal/logging"
)

func main() {
	configPath := flag.String("config", "./climate_agent.yaml", "path to configuration file")
	extra := flag.String("topics", "", "comma-separated topics to watch besides the configured sensors")
	flag.Parse()

	log.Println("starting climate console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	logger := logging.New(cfg.Logging, "climate-console")

	var topics []string
	for _, t := range strings.Split(*extra, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunConsoleMQTT(ctx, cfg, topics, os.Stdout, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}
