// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/relabs-tech/gyro_bias/internal/config"
	"github.com/relabs-tech/gyro_bias/internal/imu"
	"github.com/relabs-tech/gyro_bias/internal/tracking"
)

// RunConsoleMQTT prints the IMU samples and bias snapshots seen on the
// broker until ctx is done.
func RunConsoleMQTT(ctx context.Context, cfg *config.Config, out io.Writer, log *slog.Logger) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribe(client, cfg.TopicIMU, func(payload []byte) {
		var s imu.Sample
		if err := json.Unmarshal(payload, &s); err != nil {
			log.Warn("imu unmarshal error", "err", err)
			return
		}
		fmt.Fprintln(out, formatSample(s))
	}); err != nil {
		return err
	}
	log.Info("subscribed", "topic", cfg.TopicIMU)

	if err := subscribe(client, cfg.TopicBias, func(payload []byte) {
		var s tracking.Snapshot
		if err := json.Unmarshal(payload, &s); err != nil {
			log.Warn("bias unmarshal error", "err", err)
			return
		}
		fmt.Fprintln(out, formatSnapshot(s))
	}); err != nil {
		return err
	}
	log.Info("subscribed", "topic", cfg.TopicBias)

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

func formatSample(s imu.Sample) string {
	tag := "[ACC ]"
	if s.Sensor == imu.SensorGyro {
		tag = "[GYRO]"
	}
	return fmt.Sprintf("%s %-6s t=%d  x=%9.5f y=%9.5f z=%9.5f",
		tag, s.Source, s.TimestampNs, s.X, s.Y, s.Z)
}

func formatSnapshot(s tracking.Snapshot) string {
	return fmt.Sprintf("[BIAS] %-6s x=%+9.6f y=%+9.6f z=%+9.6f rad/s  n=%d ramp=%.2f static=%t/%t rejected=%d",
		s.Source, s.Bias.X, s.Bias.Y, s.Bias.Z, s.BiasSamples, s.Ramp, s.AccelStatic, s.GyroStatic, s.Rejected)
}
