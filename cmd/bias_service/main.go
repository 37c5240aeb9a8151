// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/gyro_bias/internal/app"
	"github.com/relabs-tech/gyro_bias/internal/config"
)

func main() {
	configPath := flag.String("config", "./gyro_bias.env", "path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, closer := app.NewLogger(cfg, "bias_service")
	defer closer.Close()
	log.Info("starting gyro bias service (MQTT → estimator → MQTT)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunBiasService(ctx, cfg, log); err != nil {
		log.Error("fatal", "err", err)
		closer.Close()
		os.Exit(1)
	}
}
