// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/relabs-tech/gyro_bias/internal/clock"
	"github.com/relabs-tech/gyro_bias/internal/config"
	"github.com/relabs-tech/gyro_bias/internal/sensors"
)

// RunIMUProducer reads the configured IMU every IMU_SAMPLE_INTERVAL and
// publishes each accel and gyro sample to TOPIC_IMU.
func RunIMUProducer(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	log.Info("starting IMU producer", "source", cfg.IMUSource, "interval_ms", cfg.IMUSampleInterval)

	src, err := newSampleSource(cfg, clock.NewSystem(), log)
	if err != nil {
		return err
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	interval := time.Duration(cfg.IMUSampleInterval) * time.Millisecond
	return pumpSamples(ctx, src, mqttPublisher{client}, cfg.TopicIMU, interval, log)
}

// newSampleSource picks the IMU implementation named by IMU_SOURCE.
func newSampleSource(cfg *config.Config, clk clock.Clock, log *slog.Logger) (sensors.SampleSource, error) {
	switch cfg.IMUSource {
	case "mock":
		log.Info("using mock IMU source", "gyro_bias", cfg.MockGyroBias())
		return sensors.NewMockSource(sensors.MockConfig{
			Name:     cfg.IMUName,
			GyroBias: cfg.MockGyroBias(),
			Noise:    cfg.MockNoise,
			Seed:     uint64(time.Now().UnixNano()),
		}, clk), nil
	case "mpu9250":
		src, err := sensors.NewMPU9250Source(sensors.MPU9250Config{
			Name:       cfg.IMUName,
			SPIDevice:  cfg.IMUSPIDevice,
			CSPin:      cfg.IMUCSPin,
			AccelRange: cfg.IMUAccelRange,
			GyroRange:  cfg.IMUGyroRange,
		}, clk, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize IMU: %w", err)
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown IMU source %q", cfg.IMUSource)
	}
}

// pumpSamples publishes every sample from src once per tick until ctx
// is done. Read and publish errors are logged and the tick is skipped.
func pumpSamples(ctx context.Context, src sensors.SampleSource, pub Publisher, topic string, interval time.Duration, log *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var published uint64
	for {
		select {
		case <-ctx.Done():
			log.Info("IMU producer stopped", "published", published)
			return nil
		case <-ticker.C:
		}

		samples, err := src.Next()
		if err != nil {
			log.Warn("error reading IMU", "err", err)
			continue
		}
		for _, s := range samples {
			if err := pub.PublishJSON(topic, s, false); err != nil {
				log.Warn("publish failed", "err", err)
				continue
			}
			published++
		}
		log.Debug("tick", "samples", len(samples), "published", published)
	}
}
