// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/replay/main.go
//
// Offline replay of a sentence log recorded by serial_producer
// (SERIAL_RECORD_FILE). Runs the samples through a fresh estimator and
// prints the final bias next to the gyro statistics of the static frames.
//
// Run:
//
//	go run ./cmd/replay -in imu.log [-csv bias.csv] [-config gyro_bias.env]
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/relabs-tech/gyro_bias/internal/app"
	"github.com/relabs-tech/gyro_bias/internal/bias"
	"github.com/relabs-tech/gyro_bias/internal/config"
	"github.com/relabs-tech/gyro_bias/internal/logging"
)

func main() {
	inPath := flag.String("in", "", "recorded sentence log")
	csvPath := flag.String("csv", "", "optional CSV output of the bias over time")
	configPath := flag.String("config", "", "optional configuration file for estimator tuning and logging")
	source := flag.String("source", "replay", "source name attached to the samples")
	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	params := bias.DefaultParams()
	log, closer := logging.New("replay", logging.Options{Level: "info"})
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		params = cfg.Estimator
		log, closer = app.NewLogger(cfg, "replay")
	}
	defer closer.Close()

	if err := run(*inPath, *csvPath, *source, params, os.Stdout, log); err != nil {
		log.Error("fatal", "err", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(inPath, csvPath, source string, params bias.Params, out io.Writer, log *slog.Logger) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	opts := app.ReplayOptions{Source: source, Params: params}
	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return err
		}
		defer f.Close()
		opts.CSV = f
	}

	report, err := app.Replay(in, opts, log)
	if err != nil {
		return err
	}
	app.WriteReport(out, report)
	return nil
}
