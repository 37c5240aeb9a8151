// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package config loads the KEY=VALUE configuration file shared by all
// gyro_bias tools.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/relabs-tech/gyro_bias/internal/bias"
	"github.com/relabs-tech/gyro_bias/internal/vector"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDBias     string
	MQTTClientIDWeb      string
	MQTTClientIDConsole  string

	// Topics
	TopicIMU  string // imu.Sample stream
	TopicBias string // tracking.Snapshot stream

	// IMU
	IMUSource    string // "mpu9250" or "mock"
	IMUName      string
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange      byte
	IMUSampleInterval int // milliseconds

	// Mock source
	MockGyroBiasX float64
	MockGyroBiasY float64
	MockGyroBiasZ float64
	MockNoise     float64

	// Serial sensor board
	SerialPort       string
	SerialBaudRate   int
	SerialRecordFile string

	// Bias service
	BiasPublishInterval int // milliseconds
	MetricsPort         int

	// Web Server
	WebServerPort int

	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// Estimator tuning
	Estimator bias.Params
}

// defaults for every known key. A key missing here is rejected.
var defaults = map[string]any{
	"MQTT_BROKER":             "",
	"MQTT_CLIENT_ID_PRODUCER": "gyro-bias-producer",
	"MQTT_CLIENT_ID_BIAS":     "gyro-bias-service",
	"MQTT_CLIENT_ID_WEB":      "gyro-bias-web",
	"MQTT_CLIENT_ID_CONSOLE":  "gyro-bias-console",

	"TOPIC_IMU":  "inertial/imu/left",
	"TOPIC_BIAS": "inertial/gyro_bias/left",

	"IMU_SOURCE":          "mpu9250",
	"IMU_NAME":            "left",
	"IMU_SPI_DEVICE":      "/dev/spidev6.0",
	"IMU_CS_PIN":          "18",
	"IMU_ACCEL_RANGE":     0,
	"IMU_GYRO_RANGE":      0,
	"IMU_SAMPLE_INTERVAL": 0,

	"MOCK_GYRO_BIAS_X": 0.0,
	"MOCK_GYRO_BIAS_Y": 0.0,
	"MOCK_GYRO_BIAS_Z": 0.0,
	"MOCK_NOISE":       0.0,

	"SERIAL_PORT":        "/dev/serial0",
	"SERIAL_BAUD_RATE":   115200,
	"SERIAL_RECORD_FILE": "",

	"BIAS_PUBLISH_INTERVAL": 100,
	"METRICS_PORT":          9100,
	"WEB_SERVER_PORT":       8080,

	"LOG_LEVEL":        "info",
	"LOG_FILE":         "",
	"LOG_MAX_SIZE_MB":  10,
	"LOG_MAX_BACKUPS":  3,
	"LOG_MAX_AGE_DAYS": 7,

	"BIAS_ACCEL_CUTOFF_HZ":          bias.AccelCutoffHz,
	"BIAS_GYRO_CUTOFF_HZ":           bias.GyroCutoffHz,
	"BIAS_CUTOFF_HZ":                bias.BiasCutoffHz,
	"BIAS_ACCEL_STATIC_THRESHOLD":   bias.AccelStaticThreshold,
	"BIAS_GYRO_STATIC_THRESHOLD":    bias.GyroStaticThreshold,
	"BIAS_STATIC_FRAMES":            bias.StaticFramesThreshold,
	"BIAS_GYRO_MAGNITUDE_THRESHOLD": bias.GyroMagnitudeThreshold,
	"BIAS_MIN_SAMPLES":              bias.MinBiasSamples,
	"BIAS_RAMP_SAMPLES":             bias.RampSamples,
}

// Load reads the configuration file and returns a Config struct.
//
// The file is a list of KEY=VALUE lines; blank lines and lines starting
// with '#' are ignored. Unknown keys are an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("env")
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := checkKeys(v.AllKeys()); err != nil {
		return nil, err
	}

	r := reader{v: v}
	cfg := &Config{
		MQTTBroker:           r.str("MQTT_BROKER"),
		MQTTClientIDProducer: r.str("MQTT_CLIENT_ID_PRODUCER"),
		MQTTClientIDBias:     r.str("MQTT_CLIENT_ID_BIAS"),
		MQTTClientIDWeb:      r.str("MQTT_CLIENT_ID_WEB"),
		MQTTClientIDConsole:  r.str("MQTT_CLIENT_ID_CONSOLE"),

		TopicIMU:  r.str("TOPIC_IMU"),
		TopicBias: r.str("TOPIC_BIAS"),

		IMUSource:         r.str("IMU_SOURCE"),
		IMUName:           r.str("IMU_NAME"),
		IMUSPIDevice:      r.str("IMU_SPI_DEVICE"),
		IMUCSPin:          r.str("IMU_CS_PIN"),
		IMUAccelRange:     r.rangeCode("IMU_ACCEL_RANGE", "0=±2g, 1=±4g, 2=±8g, 3=±16g"),
		IMUGyroRange:      r.rangeCode("IMU_GYRO_RANGE", "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s"),
		IMUSampleInterval: r.integer("IMU_SAMPLE_INTERVAL"),

		MockGyroBiasX: r.float("MOCK_GYRO_BIAS_X"),
		MockGyroBiasY: r.float("MOCK_GYRO_BIAS_Y"),
		MockGyroBiasZ: r.float("MOCK_GYRO_BIAS_Z"),
		MockNoise:     r.float("MOCK_NOISE"),

		SerialPort:       r.str("SERIAL_PORT"),
		SerialBaudRate:   r.integer("SERIAL_BAUD_RATE"),
		SerialRecordFile: r.str("SERIAL_RECORD_FILE"),

		BiasPublishInterval: r.integer("BIAS_PUBLISH_INTERVAL"),
		MetricsPort:         r.integer("METRICS_PORT"),
		WebServerPort:       r.integer("WEB_SERVER_PORT"),

		LogLevel:      strings.ToLower(r.str("LOG_LEVEL")),
		LogFile:       r.str("LOG_FILE"),
		LogMaxSizeMB:  r.integer("LOG_MAX_SIZE_MB"),
		LogMaxBackups: r.integer("LOG_MAX_BACKUPS"),
		LogMaxAgeDays: r.integer("LOG_MAX_AGE_DAYS"),

		Estimator: bias.Params{
			AccelCutoffHz:          r.float("BIAS_ACCEL_CUTOFF_HZ"),
			GyroCutoffHz:           r.float("BIAS_GYRO_CUTOFF_HZ"),
			BiasCutoffHz:           r.float("BIAS_CUTOFF_HZ"),
			AccelStaticThreshold:   r.float("BIAS_ACCEL_STATIC_THRESHOLD"),
			GyroStaticThreshold:    r.float("BIAS_GYRO_STATIC_THRESHOLD"),
			StaticFrames:           r.integer("BIAS_STATIC_FRAMES"),
			GyroMagnitudeThreshold: r.float("BIAS_GYRO_MAGNITUDE_THRESHOLD"),
			MinBiasSamples:         r.integer("BIAS_MIN_SAMPLES"),
			RampSamples:            r.integer("BIAS_RAMP_SAMPLES"),
		},
	}
	if r.err != nil {
		return nil, r.err
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// checkKeys rejects keys that are not part of the configuration.
func checkKeys(keys []string) error {
	var unknown []string
	for _, k := range keys {
		if _, ok := defaults[strings.ToUpper(k)]; !ok {
			unknown = append(unknown, strings.ToUpper(k))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown config key: %q", unknown[0])
	}
	return nil
}

// reader converts viper values, keeping the first conversion error.
type reader struct {
	v   *viper.Viper
	err error
}

func (r *reader) str(key string) string {
	return strings.TrimSpace(r.v.GetString(key))
}

func (r *reader) integer(key string) int {
	n, err := cast.ToIntE(r.v.Get(key))
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("invalid %s %q: %w", key, r.v.GetString(key), err)
	}
	return n
}

func (r *reader) float(key string) float64 {
	f, err := cast.ToFloat64E(r.v.Get(key))
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("invalid %s %q: %w", key, r.v.GetString(key), err)
	}
	return f
}

func (r *reader) rangeCode(key, meaning string) byte {
	n := r.integer(key)
	if (n < 0 || n > 3) && r.err == nil {
		r.err = fmt.Errorf("%s must be 0-3 (%s), got %d", key, meaning, n)
	}
	return byte(n)
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.IMUSampleInterval <= 0 {
		return fmt.Errorf("IMU_SAMPLE_INTERVAL is required")
	}
	switch c.IMUSource {
	case "mpu9250":
		if c.IMUSPIDevice == "" {
			return fmt.Errorf("IMU_SPI_DEVICE is required for IMU_SOURCE=mpu9250")
		}
	case "mock":
	default:
		return fmt.Errorf("IMU_SOURCE must be mpu9250 or mock, got %q", c.IMUSource)
	}
	if c.TopicIMU == "" || c.TopicBias == "" {
		return fmt.Errorf("TOPIC_IMU and TOPIC_BIAS are required")
	}
	if c.BiasPublishInterval <= 0 {
		return fmt.Errorf("BIAS_PUBLISH_INTERVAL must be positive, got %d", c.BiasPublishInterval)
	}
	if c.SerialBaudRate <= 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", c.SerialBaudRate)
	}
	for key, port := range map[string]int{"METRICS_PORT": c.MetricsPort, "WEB_SERVER_PORT": c.WebServerPort} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("%s must be 1-65535, got %d", key, port)
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if err := c.Estimator.Validate(); err != nil {
		return fmt.Errorf("BIAS_*: %w", err)
	}
	return nil
}

// MockGyroBias returns the bias injected by the mock IMU source.
func (c *Config) MockGyroBias() vector.Vector3d {
	return vector.New(c.MockGyroBiasX, c.MockGyroBiasY, c.MockGyroBiasZ)
}

// TopicBiasReset is the topic on which any message resets the session.
func (c *Config) TopicBiasReset() string {
	return c.TopicBias + "/reset"
}
