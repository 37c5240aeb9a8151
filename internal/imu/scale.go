// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"fmt"
	"math"

	"github.com/relabs-tech/gyro_bias/internal/vector"
)

// StandardGravity in m/s^2.
const StandardGravity = 9.80665

// MPU9250 sensitivities per full-scale code (0-3).
var (
	accelLSBPerG   = [4]float64{16384, 8192, 4096, 2048}
	gyroLSBPerDegS = [4]float64{131, 65.5, 32.8, 16.4}

	// AccelRangeG and GyroRangeDegS are the full scale of each code.
	AccelRangeG   = [4]int{2, 4, 8, 16}
	GyroRangeDegS = [4]int{250, 500, 1000, 2000}
)

// NewScale returns the conversion for the given accel (0=±2g .. 3=±16g)
// and gyro (0=±250°/s .. 3=±2000°/s) range codes.
func NewScale(accelRange, gyroRange byte) (Scale, error) {
	if accelRange > 3 {
		return Scale{}, fmt.Errorf("accel range must be 0-3, got %d", accelRange)
	}
	if gyroRange > 3 {
		return Scale{}, fmt.Errorf("gyro range must be 0-3, got %d", gyroRange)
	}
	return Scale{
		AccelPerCount: StandardGravity / accelLSBPerG[accelRange],
		GyroPerCount:  (math.Pi / 180) / gyroLSBPerDegS[gyroRange],
	}, nil
}

// Accel converts raw accelerometer counts to m/s^2.
func (s Scale) Accel(x, y, z int16) vector.Vector3d {
	return vector.New(float64(x)*s.AccelPerCount, float64(y)*s.AccelPerCount, float64(z)*s.AccelPerCount)
}

// Gyro converts raw gyroscope counts to rad/s.
func (s Scale) Gyro(x, y, z int16) vector.Vector3d {
	return vector.New(float64(x)*s.GyroPerCount, float64(y)*s.GyroPerCount, float64(z)*s.GyroPerCount)
}
