// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/relabs-tech/gyro_bias/internal/config"
	"github.com/relabs-tech/gyro_bias/internal/sensors"
)

// RunSerialProducer reads $HTIMU sentences from a sensor board on the
// serial port and publishes each sample to TOPIC_IMU. When
// SERIAL_RECORD_FILE is set the accepted sentences are appended to it
// for later replay.
func RunSerialProducer(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	// NOTE: adjust SERIAL_PORT to match your setup: /dev/serial0, /dev/ttyAMA0, /dev/ttyUSB0, etc.
	port, err := sensors.OpenSerial(cfg.SerialPort, cfg.SerialBaudRate)
	if err != nil {
		return err
	}
	log.Info("serial port opened", "port", cfg.SerialPort, "baud", cfg.SerialBaudRate)

	// closing the port unblocks the pending read
	stop := context.AfterFunc(ctx, func() { port.Close() })
	defer func() {
		if stop() {
			port.Close()
		}
	}()

	src := sensors.NewLineSource(cfg.IMUName, port, log)
	if cfg.SerialRecordFile != "" {
		f, err := os.OpenFile(cfg.SerialRecordFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open record file: %w", err)
		}
		defer f.Close()
		src.Record(f)
		log.Info("recording sentences", "file", cfg.SerialRecordFile)
	}

	n, err := forwardSamples(src, mqttPublisher{client}, cfg.TopicIMU, log)
	if ctx.Err() != nil {
		log.Info("serial producer stopped", "published", n, "malformed", src.Malformed())
		return nil
	}
	return err
}

// forwardSamples publishes everything src yields until it is exhausted.
// It returns the number of samples published.
func forwardSamples(src sensors.SampleSource, pub Publisher, topic string, log *slog.Logger) (uint64, error) {
	var published uint64
	for {
		samples, err := src.Next()
		if errors.Is(err, io.EOF) {
			return published, nil
		}
		if err != nil {
			return published, fmt.Errorf("serial read error: %w", err)
		}
		for _, s := range samples {
			if err := pub.PublishJSON(topic, s, false); err != nil {
				log.Warn("publish failed", "err", err)
				continue
			}
			published++
		}
	}
}
