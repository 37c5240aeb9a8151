// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors produces timestamped inertial samples from hardware
// (MPU9250 over SPI), from a serial sensor link, from recorded logs, or
// from a synthetic device.
package sensors

import "github.com/relabs-tech/gyro_bias/internal/imu"

// SampleSource yields inertial samples in arrival order. Each call
// returns one or more samples; within a call accel precedes gyro when
// both are present. Sources return io.EOF when exhausted.
type SampleSource interface {
	Next() ([]imu.Sample, error)
}
