// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math/rand/v2"
	"time"

	"github.com/relabs-tech/gyro_bias/internal/clock"
	"github.com/relabs-tech/gyro_bias/internal/imu"
	"github.com/relabs-tech/gyro_bias/internal/vector"
)

// MockConfig describes the synthetic device.
type MockConfig struct {
	Name     string
	GyroBias vector.Vector3d // rad/s added to every gyro reading
	Noise    float64         // std dev of the white noise on both sensors
	Seed     uint64
}

type mockSource struct {
	name  string
	bias  vector.Vector3d
	noise float64
	rng   *rand.Rand
	clock clock.Clock
	start int64
}

// NewMockSource creates a sample source for a device lying still with
// gravity on +Y and a constant gyro bias. Timestamps come from clk.
func NewMockSource(cfg MockConfig, clk clock.Clock) SampleSource {
	return &mockSource{
		name:  cfg.Name,
		bias:  cfg.GyroBias,
		noise: cfg.Noise,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		clock: clk,
		start: clk.NanoTime(),
	}
}

func (m *mockSource) Next() ([]imu.Sample, error) {
	ts := m.clock.NanoTime()
	// slow wobble well inside the accel static threshold
	wobble := 0.02 * time.Duration(ts-m.start).Seconds()
	wobble -= float64(int(wobble))

	accel := vector.New(m.jitter(), imu.StandardGravity+0.05*wobble+m.jitter(), m.jitter())
	gyro := vector.New(m.bias.X+m.jitter(), m.bias.Y+m.jitter(), m.bias.Z+m.jitter())

	return []imu.Sample{
		imu.SampleFromVector(m.name, imu.SensorAccel, ts, accel),
		imu.SampleFromVector(m.name, imu.SensorGyro, ts, gyro),
	}, nil
}

func (m *mockSource) jitter() float64 {
	if m.noise == 0 {
		return 0
	}
	return m.rng.NormFloat64() * m.noise
}
