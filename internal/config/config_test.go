// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gyro_bias/internal/bias"
)

const minimal = `# minimal config
MQTT_BROKER=tcp://localhost:1883
IMU_SAMPLE_INTERVAL=20
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gyro_bias.env")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, 20, cfg.IMUSampleInterval)
	assert.Equal(t, "mpu9250", cfg.IMUSource)
	assert.Equal(t, "inertial/imu/left", cfg.TopicIMU)
	assert.Equal(t, "inertial/gyro_bias/left/reset", cfg.TopicBiasReset())
	assert.Equal(t, 115200, cfg.SerialBaudRate)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, bias.DefaultParams(), cfg.Estimator)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal+`
IMU_SOURCE=mock
IMU_GYRO_RANGE=2
MOCK_GYRO_BIAS_Z=0.01
LOG_LEVEL=DEBUG
BIAS_MIN_SAMPLES=5
BIAS_CUTOFF_HZ=0.5
`))
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.IMUSource)
	assert.Equal(t, byte(2), cfg.IMUGyroRange)
	assert.InDelta(t, 0.01, cfg.MockGyroBias().Z, 1e-12)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Estimator.MinBiasSamples)
	assert.InDelta(t, 0.5, cfg.Estimator.BiasCutoffHz, 1e-12)
	assert.Equal(t, bias.GyroCutoffHz, cfg.Estimator.GyroCutoffHz)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing broker", "IMU_SAMPLE_INTERVAL=20\n", "MQTT_BROKER is required"},
		{"missing interval", "MQTT_BROKER=tcp://x:1883\n", "IMU_SAMPLE_INTERVAL is required"},
		{"unknown key", minimal + "IMU_FOO=1\n", `unknown config key: "IMU_FOO"`},
		{"bad range", minimal + "IMU_ACCEL_RANGE=4\n", "IMU_ACCEL_RANGE must be 0-3"},
		{"bad integer", minimal + "WEB_SERVER_PORT=abc\n", "invalid WEB_SERVER_PORT"},
		{"bad source", minimal + "IMU_SOURCE=bmi160\n", "IMU_SOURCE must be mpu9250 or mock"},
		{"bad level", minimal + "LOG_LEVEL=trace\n", "LOG_LEVEL must be"},
		{"bad estimator", minimal + "BIAS_RAMP_SAMPLES=0\n", "ramp samples must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_EstimatorErrorWrapsSentinel(t *testing.T) {
	_, err := Load(writeConfig(t, minimal+"BIAS_STATIC_FRAMES=-1\n"))
	assert.ErrorIs(t, err, bias.ErrInvalidParams)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	assert.Error(t, err)
}
