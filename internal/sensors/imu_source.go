// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gyro_bias/internal/clock"
	"github.com/relabs-tech/gyro_bias/internal/imu"
)

// MPU9250Config selects the SPI device and full-scale ranges.
type MPU9250Config struct {
	Name       string // "left" or "right" for logging and sample source
	SPIDevice  string
	CSPin      string
	AccelRange byte // 0=±2g, 1=±4g, 2=±8g, 3=±16g
	GyroRange  byte // 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
}

// MPU9250Source reads accelerometer and gyroscope from an MPU9250.
type MPU9250Source struct {
	name  string
	imu   *mpu9250.MPU9250
	scale imu.Scale
	clock clock.Clock
}

// NewMPU9250Source initializes the MPU9250 described by cfg.
//
// The device's own calibration is run at startup; it only removes the
// factory offset, the online estimator tracks what drifts afterwards.
func NewMPU9250Source(cfg MPU9250Config, clk clock.Clock, log *slog.Logger) (*MPU9250Source, error) {
	name := cfg.Name
	scale, err := imu.NewScale(cfg.AccelRange, cfg.GyroRange)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: %w", name, err)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: periph host init: %w", name, err)
	}

	cs := gpioreg.ByName(cfg.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("%s IMU: CS pin %q not found", name, cfg.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.SPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: SPI transport (%s): %w", name, cfg.SPIDevice, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: device creation: %w", name, err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: initialization: %w", name, err)
	}

	if err := dev.SetAccelRange(cfg.AccelRange); err != nil {
		return nil, fmt.Errorf("%s IMU: set accel range: %w", name, err)
	}
	log.Info("IMU: accelerometer range set", "imu", name, "code", cfg.AccelRange, "range_g", imu.AccelRangeG[cfg.AccelRange])

	if err := dev.SetGyroRange(cfg.GyroRange); err != nil {
		return nil, fmt.Errorf("%s IMU: set gyro range: %w", name, err)
	}
	log.Info("IMU: gyroscope range set", "imu", name, "code", cfg.GyroRange, "range_dps", imu.GyroRangeDegS[cfg.GyroRange])

	if err := dev.Calibrate(); err != nil {
		log.Warn("IMU: calibration failed", "imu", name, "err", err)
	} else {
		log.Info("IMU: calibration complete", "imu", name)
	}

	return &MPU9250Source{
		name:  name,
		imu:   dev,
		scale: scale,
		clock: clk,
	}, nil
}

// ReadRaw reads accelerometer and gyroscope counts, stamped at the start
// of the read.
func (s *MPU9250Source) ReadRaw() (imu.IMURaw, error) {
	ts := s.clock.NanoTime()

	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU accel X: %w", s.name, err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU accel Y: %w", s.name, err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU accel Z: %w", s.name, err)
	}

	gx, err := s.imu.GetRotationX()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU gyro X: %w", s.name, err)
	}
	gy, err := s.imu.GetRotationY()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU gyro Y: %w", s.name, err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s IMU gyro Z: %w", s.name, err)
	}

	return imu.IMURaw{
		Source:      s.name,
		TimestampNs: ts,
		Ax:          ax,
		Ay:          ay,
		Az:          az,
		Gx:          gx,
		Gy:          gy,
		Gz:          gz,
	}, nil
}

// Next implements SampleSource.
func (s *MPU9250Source) Next() ([]imu.Sample, error) {
	raw, err := s.ReadRaw()
	if err != nil {
		return nil, err
	}
	pair := raw.Samples(s.scale)
	return pair[:], nil
}
