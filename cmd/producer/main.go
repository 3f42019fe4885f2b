// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command producer runs the agent against simulated sensors, for exercising
// the hub, web dashboard and display without hardware.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/climate_agent/internal/app"
	"github.com/relabs-tech/climate_agent/internal/config"
	"github.com/relabs-tech/climate_agent/internal/logging"
)

func main() {
	configPath := flag.String("config", "./climate_agent.yaml", "path to configuration file")
	flag.Parse()

	log.Println("starting climate MQTT producer (simulated sensors)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	logger := logging.New(cfg.Logging, "climate-producer")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunSimulatedAgent(ctx, cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}
