// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package imu defines the inertial sample types exchanged between the
// producers and the bias service.
package imu

import (
	"fmt"

	"github.com/relabs-tech/gyro_bias/internal/vector"
)

// Sensor identifies the stream a sample belongs to.
type Sensor string

const (
	SensorAccel Sensor = "accel"
	SensorGyro  Sensor = "gyro"
)

// Validate reports unknown sensor names.
func (s Sensor) Validate() error {
	switch s {
	case SensorAccel, SensorGyro:
		return nil
	default:
		return fmt.Errorf("unknown sensor %q", string(s))
	}
}

// Sample is one timestamped reading of one sensor in physical units
// (m/s^2 for accel, rad/s for gyro). This is the MQTT payload on
// TOPIC_IMU.
type Sample struct {
	Source      string  `json:"source"`
	Sensor      Sensor  `json:"sensor"`
	TimestampNs int64   `json:"timestamp_ns"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
}

// SampleFromVector builds a Sample from a vector.
func SampleFromVector(source string, sensor Sensor, timestampNs int64, v vector.Vector3d) Sample {
	return Sample{
		Source:      source,
		Sensor:      sensor,
		TimestampNs: timestampNs,
		X:           v.X,
		Y:           v.Y,
		Z:           v.Z,
	}
}

// Vector returns the reading as a vector.
func (s Sample) Vector() vector.Vector3d {
	return vector.New(s.X, s.Y, s.Z)
}
