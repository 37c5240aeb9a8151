// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

// IMURaw represents a single raw accel+gyro read, in sensor counts.
type IMURaw struct {
	Source      string `json:"source"` // device name, e.g. "left"
	TimestampNs int64  `json:"timestamp_ns"`

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// Samples converts r into physical units and returns the accelerometer
// sample followed by the gyroscope sample, both stamped with r's time.
func (r IMURaw) Samples(s Scale) [2]Sample {
	return [2]Sample{
		SampleFromVector(r.Source, SensorAccel, r.TimestampNs, s.Accel(r.Ax, r.Ay, r.Az)),
		SampleFromVector(r.Source, SensorGyro, r.TimestampNs, s.Gyro(r.Gx, r.Gy, r.Gz)),
	}
}

// Scale converts raw counts into m/s^2 and rad/s for a given full-scale
// configuration.
type Scale struct {
	AccelPerCount float64 // m/s^2 per LSB
	GyroPerCount  float64 // rad/s per LSB
}
