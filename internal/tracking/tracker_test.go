// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package tracking

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gyro_bias/internal/bias"
	"github.com/relabs-tech/gyro_bias/internal/imu"
	"github.com/relabs-tech/gyro_bias/internal/vector"
)

const stepNs = int64(10_000_000)

type recordingObserver struct {
	samples  map[imu.Sensor]int
	rejected int
	resets   int
	last     Snapshot
}

func (o *recordingObserver) ObserveSample(sensor imu.Sensor, snap *Snapshot) {
	o.samples[sensor]++
	o.last = *snap
}
func (o *recordingObserver) ObserveRejected(imu.Sensor) { o.rejected++ }
func (o *recordingObserver) ObserveReset()              { o.resets++ }

func staticFrame(step int) []imu.Sample {
	ts := int64(step) * stepNs
	return []imu.Sample{
		{Sensor: imu.SensorAccel, TimestampNs: ts, Y: 9.8},
		{Sensor: imu.SensorGyro, TimestampNs: ts, X: 0.001, Y: 0.002, Z: -0.001},
	}
}

func TestTracker_EndToEnd(t *testing.T) {
	obs := &recordingObserver{samples: map[imu.Sensor]int{}}
	tr := New("left", bias.NewEstimator(), obs)

	for step := 1; step <= 200; step++ {
		for _, s := range staticFrame(step) {
			require.NoError(t, tr.Apply(s))
		}
	}

	snap := tr.Snapshot()
	assert.Equal(t, "left", snap.Source)
	assert.Equal(t, uint64(400), snap.Accepted)
	assert.Equal(t, 191, snap.BiasSamples)
	assert.Equal(t, 1.0, snap.Ramp)
	assert.True(t, snap.AccelStatic)
	assert.True(t, snap.GyroStatic)
	assert.Equal(t, 200*stepNs, snap.TimestampNs)
	assert.InDelta(t, 0.001, snap.Bias.X, 1e-9)
	assert.InDelta(t, 0.002, snap.Bias.Y, 1e-9)
	assert.InDelta(t, -0.001, snap.Bias.Z, 1e-9)

	assert.Equal(t, 200, obs.samples[imu.SensorAccel])
	assert.Equal(t, 200, obs.samples[imu.SensorGyro])
	assert.Equal(t, snap, obs.last)

	corrected := tr.Correct(vector.New(0.101, 0.002, -0.001))
	assert.InDelta(t, 0.1, corrected.X, 1e-9)
	assert.InDelta(t, 0, corrected.Y, 1e-9)
}

func TestTracker_RejectsBadSamples(t *testing.T) {
	obs := &recordingObserver{samples: map[imu.Sensor]int{}}
	tr := New("left", bias.NewEstimator(), obs)

	err := tr.Apply(imu.Sample{Sensor: imu.SensorGyro, X: math.NaN()})
	assert.ErrorIs(t, err, bias.ErrNonFiniteSample)

	err = tr.Apply(imu.Sample{Sensor: "mag"})
	assert.Error(t, err)

	snap := tr.Snapshot()
	assert.Equal(t, uint64(2), snap.Rejected)
	assert.Equal(t, uint64(0), snap.Accepted)
	assert.Equal(t, 2, obs.rejected)
}

func TestTracker_Reset(t *testing.T) {
	obs := &recordingObserver{samples: map[imu.Sensor]int{}}
	tr := New("left", bias.NewEstimator(), obs)
	for step := 1; step <= 200; step++ {
		for _, s := range staticFrame(step) {
			require.NoError(t, tr.Apply(s))
		}
	}

	tr.Reset()
	snap := tr.Snapshot()
	assert.True(t, snap.Bias.IsZero())
	assert.Equal(t, 0, snap.BiasSamples)
	assert.False(t, snap.AccelStatic)
	assert.Equal(t, uint64(1), snap.Resets)
	assert.Equal(t, uint64(400), snap.Accepted)
	assert.Equal(t, 1, obs.resets)

	var b vector.Vector3d
	tr.Bias(&b)
	assert.True(t, b.IsZero())
}

func TestTracker_ConcurrentReaders(t *testing.T) {
	tr := New("left", bias.NewEstimator(), nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					snap := tr.Snapshot()
					assert.GreaterOrEqual(t, snap.Ramp, 0.0)
				}
			}
		}()
	}

	for step := 1; step <= 300; step++ {
		for _, s := range staticFrame(step) {
			require.NoError(t, tr.Apply(s))
		}
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, 291, tr.Snapshot().BiasSamples)
}
