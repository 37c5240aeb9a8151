// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package tracking owns one bias-estimation session and makes it safe to
// feed from the sample goroutine while other goroutines read snapshots.
package tracking

import (
	"fmt"
	"sync"

	"github.com/relabs-tech/gyro_bias/internal/bias"
	"github.com/relabs-tech/gyro_bias/internal/imu"
	"github.com/relabs-tech/gyro_bias/internal/vector"
)

// Snapshot is the published state of a session. It is the MQTT payload
// on TOPIC_BIAS.
type Snapshot struct {
	Source      string          `json:"source,omitempty"`
	TimestampNs int64           `json:"timestamp_ns"` // last sample seen
	Bias        vector.Vector3d `json:"bias"`         // rad/s, subtract from raw gyro
	BiasSamples int             `json:"bias_samples"`
	Ramp        float64         `json:"ramp"`
	AccelStatic bool            `json:"accel_static"`
	GyroStatic  bool            `json:"gyro_static"`
	Accepted    uint64          `json:"accepted"`
	Rejected    uint64          `json:"rejected"`
	Resets      uint64          `json:"resets"`
}

// Observer is notified after every accepted sample and every reset.
// It runs with the tracker lock held and must not call back into it.
type Observer interface {
	ObserveSample(sensor imu.Sensor, snap *Snapshot)
	ObserveRejected(sensor imu.Sensor)
	ObserveReset()
}

// Tracker serializes access to a bias.Estimator.
type Tracker struct {
	mu        sync.Mutex
	estimator *bias.Estimator
	observer  Observer
	snap      Snapshot
}

// New wraps estimator. observer may be nil.
func New(source string, estimator *bias.Estimator, observer Observer) *Tracker {
	t := &Tracker{
		estimator: estimator,
		observer:  observer,
	}
	t.snap.Source = source
	return t
}

// Apply feeds one sample to the estimator. Rejected samples return an
// error wrapping bias.ErrNonFiniteSample or describing the bad sensor.
func (t *Tracker) Apply(s imu.Sample) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var err error
	switch s.Sensor {
	case imu.SensorAccel:
		err = t.estimator.ProcessAccelerometer(s.Vector(), s.TimestampNs)
	case imu.SensorGyro:
		err = t.estimator.ProcessGyroscope(s.Vector(), s.TimestampNs)
	default:
		err = s.Sensor.Validate()
	}
	if err != nil {
		t.snap.Rejected++
		if t.observer != nil {
			t.observer.ObserveRejected(s.Sensor)
		}
		return fmt.Errorf("tracking: %w", err)
	}

	t.snap.Accepted++
	t.snap.TimestampNs = s.TimestampNs
	t.refresh()
	if t.observer != nil {
		t.observer.ObserveSample(s.Sensor, &t.snap)
	}
	return nil
}

// refresh copies the estimator state into snap. Caller holds mu.
func (t *Tracker) refresh() {
	t.estimator.GyroBias(&t.snap.Bias)
	t.snap.BiasSamples = t.estimator.BiasSampleCount()
	t.snap.Ramp = t.estimator.Ramp()
	t.snap.AccelStatic = t.estimator.IsAccelStatic()
	t.snap.GyroStatic = t.estimator.IsGyroStatic()
}

// Bias writes the current estimate into out.
func (t *Tracker) Bias(out *vector.Vector3d) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.estimator.GyroBias(out)
}

// Correct subtracts the current bias from a raw gyro reading.
func (t *Tracker) Correct(gyro vector.Vector3d) vector.Vector3d {
	var b vector.Vector3d
	t.Bias(&b)
	vector.Sub(gyro, b, &b)
	return b
}

// Snapshot returns a copy of the published state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// Reset starts a new session, e.g. after the device was re-seated.
// Accepted/rejected counters are kept.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.estimator.Reset()
	t.snap.Resets++
	t.snap.TimestampNs = 0
	t.refresh()
	if t.observer != nil {
		t.observer.ObserveReset()
	}
}
