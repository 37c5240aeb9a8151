// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bias

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gyro_bias/internal/vector"
)

const stepNs = int64(10_000_000) // 100 Hz

var (
	gravity  = vector.New(0, 9.8, 0)
	trueBias = vector.New(0.001, 0.002, -0.001)
)

// feed pushes one synchronized accel+gyro frame.
func feed(t *testing.T, e *Estimator, accel, gyro vector.Vector3d, step int) {
	t.Helper()
	ts := int64(step) * stepNs
	require.NoError(t, e.ProcessAccelerometer(accel, ts))
	require.NoError(t, e.ProcessGyroscope(gyro, ts))
}

func gyroBias(e *Estimator) vector.Vector3d {
	var out vector.Vector3d
	e.GyroBias(&out)
	return out
}

func TestEstimator_ColdStart(t *testing.T) {
	e := NewEstimator()
	assert.True(t, gyroBias(e).IsZero())
	assert.Equal(t, 0, e.BiasSampleCount())

	for i := 0; i < 300; i++ {
		feed(t, e, gravity, trueBias, i)
	}
	require.False(t, gyroBias(e).IsZero())

	e.Reset()
	assert.True(t, gyroBias(e).IsZero())
	assert.Equal(t, 0, e.BiasSampleCount())
	assert.False(t, e.IsAccelStatic())
	assert.False(t, e.IsGyroStatic())
}

func TestEstimator_GyroBiasOverwritesOutput(t *testing.T) {
	e := NewEstimator()
	out := vector.New(5, 5, 5)
	e.GyroBias(&out)
	assert.True(t, out.IsZero())
}

func TestEstimator_ConfidenceGating(t *testing.T) {
	e := NewEstimator()
	large := vector.New(0.2, -0.1, 0.05) // static and well below the magnitude threshold

	step := 0
	for e.BiasSampleCount() < MinBiasSamples-1 {
		feed(t, e, gravity, large, step)
		step++
		assert.True(t, gyroBias(e).IsZero(), "step %d with %d bias samples", step, e.BiasSampleCount())
	}
	assert.Equal(t, MinBiasSamples-1, e.BiasSampleCount())
}

func TestEstimator_RampUp(t *testing.T) {
	e := NewEstimator()

	var prev float64
	seen := 0
	for step := 0; e.BiasSampleCount() < MinBiasSamples+RampSamples+50; step++ {
		feed(t, e, gravity, trueBias, step)
		n := e.BiasSampleCount()
		if n == 0 {
			continue
		}
		mag := gyroBias(e).Length()
		if n <= MinBiasSamples {
			assert.Equal(t, 0.0, mag, "bias sample %d", n)
		}
		assert.GreaterOrEqual(t, mag, prev, "bias sample %d", n)
		prev = mag
		seen++
	}
	require.Greater(t, seen, MinBiasSamples+RampSamples)

	got := gyroBias(e)
	assert.InDelta(t, trueBias.X, got.X, 1e-9)
	assert.InDelta(t, trueBias.Y, got.Y, 1e-9)
	assert.InDelta(t, trueBias.Z, got.Z, 1e-9)
	assert.Equal(t, 1.0, e.Ramp())
}

func TestEstimator_RampIsLinear(t *testing.T) {
	e := NewEstimator()
	for step := 0; e.BiasSampleCount() < MinBiasSamples+RampSamples/2; step++ {
		feed(t, e, gravity, trueBias, step)
	}
	assert.InDelta(t, 0.5, e.Ramp(), 1e-12)
	assert.InDelta(t, trueBias.Length()*0.5, gyroBias(e).Length(), 1e-12)
}

func TestEstimator_RejectsHighMagnitude(t *testing.T) {
	tests := []struct {
		name string
		gyro vector.Vector3d
	}{
		{"at threshold", vector.New(GyroMagnitudeThreshold, 0, 0)},
		{"above threshold", vector.New(0.3, 0.3, 0)},
		{"fast spin", vector.New(0, 0, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEstimator()
			for step := 0; step < 500; step++ {
				feed(t, e, gravity, tt.gyro, step)
			}
			assert.True(t, e.IsGyroStatic(), "constant input is static")
			assert.True(t, e.IsAccelStatic())
			assert.Equal(t, 0, e.BiasSampleCount())
			assert.True(t, gyroBias(e).IsZero())
		})
	}
}

func TestEstimator_BiasUpdateWeight(t *testing.T) {
	tests := []struct {
		name string
		gyro vector.Vector3d
	}{
		{"near zero", vector.New(0.007, 0, 0)},
		{"mid range", vector.New(0, 0.1, 0)},
		{"close to threshold", vector.New(0, 0, -0.3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEstimator()
			step := 0
			for ; e.BiasSampleCount() < 5; step++ {
				feed(t, e, gravity, vector.Vector3d{}, step)
			}
			lastBiasNs := int64(step-1) * stepNs

			// A long gap lets the gyro filter settle on the new reading.
			ts := int64(step+100) * stepNs
			require.NoError(t, e.ProcessAccelerometer(gravity, ts))
			require.NoError(t, e.ProcessGyroscope(tt.gyro, ts))
			require.Equal(t, 6, e.BiasSampleCount())

			w := 1 - tt.gyro.Length()/GyroMagnitudeThreshold
			w *= w
			alpha := e.biasLowPass.Alpha(ts-lastBiasNs) * w

			filtered := e.gyroLowPass.FilteredData()
			got := e.biasLowPass.FilteredData()
			assert.InDelta(t, alpha*filtered.X, got.X, 1e-15)
			assert.InDelta(t, alpha*filtered.Y, got.Y, 1e-15)
			assert.InDelta(t, alpha*filtered.Z, got.Z, 1e-15)
		})
	}
}

func TestEstimator_StaticHysteresis(t *testing.T) {
	e := NewEstimator()
	step := 0
	for ; e.BiasSampleCount() < 40; step++ {
		feed(t, e, gravity, trueBias, step)
	}

	before := e.BiasSampleCount()
	bump := vector.New(0, 9.8+5, 0) // one jolt on the accelerometer
	feed(t, e, bump, trueBias, step)
	step++
	assert.False(t, e.IsAccelStatic())
	assert.Equal(t, before, e.BiasSampleCount())

	for i := 1; i < StaticFramesThreshold; i++ {
		feed(t, e, gravity, trueBias, step)
		step++
		assert.Equal(t, before, e.BiasSampleCount(), "static frame %d after the jolt", i)
	}

	feed(t, e, gravity, trueBias, step)
	assert.True(t, e.IsAccelStatic())
	assert.Equal(t, before+1, e.BiasSampleCount())
}

func TestEstimator_GyroMotionBlocksUpdates(t *testing.T) {
	e := NewEstimator()
	step := 0
	for ; step < 20; step++ {
		feed(t, e, gravity, trueBias, step)
	}
	before := e.BiasSampleCount()
	require.Positive(t, before)

	// A rotation burst makes the residual large while it lasts.
	sign := 1.0
	for i := 0; i < 5; i++ {
		feed(t, e, gravity, vector.New(0.2*sign, 0, 0), step)
		sign = -sign
		step++
	}
	assert.False(t, e.IsGyroStatic())
	assert.Equal(t, before, e.BiasSampleCount())
}

func TestEstimator_EndToEnd(t *testing.T) {
	e := NewEstimator()

	var zeroUntil, firstUpdate int
	for step := 1; step <= 200; step++ {
		feed(t, e, gravity, trueBias, step)
		if firstUpdate == 0 && e.BiasSampleCount() > 0 {
			firstUpdate = step
		}
		if gyroBias(e).IsZero() {
			zeroUntil = e.BiasSampleCount()
		}
	}

	assert.Equal(t, StaticFramesThreshold, firstUpdate)
	assert.Equal(t, MinBiasSamples, zeroUntil)
	assert.Equal(t, 200-StaticFramesThreshold+1, e.BiasSampleCount())

	got := gyroBias(e)
	assert.InDelta(t, trueBias.X, got.X, 1e-9)
	assert.InDelta(t, trueBias.Y, got.Y, 1e-9)
	assert.InDelta(t, trueBias.Z, got.Z, 1e-9)
}

func TestEstimator_AccelNeverFeedsBias(t *testing.T) {
	e := NewEstimator()
	for step := 0; step < 200; step++ {
		require.NoError(t, e.ProcessAccelerometer(gravity, int64(step)*stepNs))
	}
	assert.True(t, e.IsAccelStatic())
	assert.Equal(t, 0, e.BiasSampleCount())
}

func TestEstimator_RejectsNonFinite(t *testing.T) {
	e := NewEstimator()
	feed(t, e, gravity, trueBias, 0)

	err := e.ProcessAccelerometer(vector.New(math.NaN(), 0, 0), stepNs)
	assert.ErrorIs(t, err, ErrNonFiniteSample)
	err = e.ProcessGyroscope(vector.New(0, math.Inf(1), 0), stepNs)
	assert.ErrorIs(t, err, ErrNonFiniteSample)

	assert.Equal(t, 1, e.AccelSampleCount())
	assert.Equal(t, 1, e.GyroSampleCount())
	assert.Equal(t, gravity, e.accelLowPass.FilteredData())
}

func TestNewEstimatorWithParams(t *testing.T) {
	p := DefaultParams()
	p.StaticFrames = 3
	p.MinBiasSamples = 5
	p.RampSamples = 10
	e, err := NewEstimatorWithParams(p)
	require.NoError(t, err)
	assert.Equal(t, p, e.Params())

	for step := 0; e.BiasSampleCount() < 15; step++ {
		feed(t, e, gravity, trueBias, step)
	}
	assert.InDelta(t, trueBias.Length(), gyroBias(e).Length(), 1e-12)

	bad := DefaultParams()
	bad.GyroCutoffHz = 0
	_, err = NewEstimatorWithParams(bad)
	assert.ErrorIs(t, err, ErrInvalidParams)

	bad = DefaultParams()
	bad.RampSamples = -1
	_, err = NewEstimatorWithParams(bad)
	assert.ErrorIs(t, err, ErrInvalidParams)

	bad = DefaultParams()
	bad.AccelStaticThreshold = math.NaN()
	_, err = NewEstimatorWithParams(bad)
	assert.ErrorIs(t, err, ErrInvalidParams)
}
