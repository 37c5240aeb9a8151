// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bias estimates the slowly varying offset of a gyroscope from
// the periods in which the device is at rest.
//
// The estimator low-pass filters both inertial streams, classifies every
// frame as static or moving from the residual between the raw and the
// filtered sample, and only while both streams have been static for a
// while folds the filtered gyro reading into a very slow bias filter.
// The reported bias stays at zero until enough evidence has been
// collected and then fades in linearly.
package bias

import (
	"errors"
	"fmt"
	"math"

	"github.com/relabs-tech/gyro_bias/internal/filter"
	"github.com/relabs-tech/gyro_bias/internal/vector"
)

var (
	// ErrNonFiniteSample is returned for samples with a NaN or Inf component.
	// Such samples are dropped without touching the estimator state.
	ErrNonFiniteSample = errors.New("non-finite sensor sample")

	// ErrInvalidParams is returned by NewEstimatorWithParams.
	ErrInvalidParams = errors.New("invalid estimator parameters")
)

// Estimator tracks the gyroscope bias of one device.
//
// Estimator is not safe for concurrent use. It is meant to be fed and
// read from the sensor thread; callers reading it elsewhere must
// synchronize externally (see tracking.Tracker).
type Estimator struct {
	params Params

	accelLowPass *filter.LowPassFilter
	gyroLowPass  *filter.LowPassFilter
	biasLowPass  *filter.LowPassFilter

	accelStatic StaticCounter
	gyroStatic  StaticCounter

	accelDiff vector.Vector3d
	gyroDiff  vector.Vector3d
}

// NewEstimator returns an estimator with DefaultParams.
func NewEstimator() *Estimator {
	e, err := NewEstimatorWithParams(DefaultParams())
	if err != nil {
		panic(err) // DefaultParams is always valid
	}
	return e
}

// NewEstimatorWithParams returns an estimator using p.
func NewEstimatorWithParams(p Params) (*Estimator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	e := &Estimator{
		params:       p,
		accelLowPass: filter.NewLowPassFilter(p.AccelCutoffHz),
		gyroLowPass:  filter.NewLowPassFilter(p.GyroCutoffHz),
		biasLowPass:  filter.NewLowPassFilter(p.BiasCutoffHz),
		accelStatic:  NewStaticCounter(p.StaticFrames),
		gyroStatic:   NewStaticCounter(p.StaticFrames),
	}
	return e, nil
}

// Params returns the tuning in use.
func (e *Estimator) Params() Params {
	return e.params
}

// Reset returns the estimator to its cold state. Call it whenever
// tracking restarts.
func (e *Estimator) Reset() {
	e.accelLowPass.Reset()
	e.gyroLowPass.Reset()
	e.biasLowPass.Reset()
	e.accelStatic.Reset()
	e.gyroStatic.Reset()
	e.accelDiff.SetZero()
	e.gyroDiff.SetZero()
}

// ProcessAccelerometer feeds one accelerometer sample (m/s^2). The
// accelerometer only gates bias updates; it never feeds the bias filter.
func (e *Estimator) ProcessAccelerometer(accel vector.Vector3d, timestampNs int64) error {
	if !accel.IsFinite() {
		return fmt.Errorf("%w: accel %+v at %d", ErrNonFiniteSample, accel, timestampNs)
	}

	e.accelLowPass.AddSample(accel, timestampNs)
	vector.Sub(accel, e.accelLowPass.FilteredData(), &e.accelDiff)
	e.accelStatic.AppendFrame(e.accelDiff.Length() < e.params.AccelStaticThreshold)
	return nil
}

// ProcessGyroscope feeds one gyroscope sample (rad/s) and, when both
// streams have been static long enough, updates the bias.
func (e *Estimator) ProcessGyroscope(gyro vector.Vector3d, timestampNs int64) error {
	if !gyro.IsFinite() {
		return fmt.Errorf("%w: gyro %+v at %d", ErrNonFiniteSample, gyro, timestampNs)
	}

	e.gyroLowPass.AddSample(gyro, timestampNs)
	vector.Sub(gyro, e.gyroLowPass.FilteredData(), &e.gyroDiff)
	e.gyroStatic.AppendFrame(e.gyroDiff.Length() < e.params.GyroStaticThreshold)

	if e.gyroStatic.IsRecentlyStatic() && e.accelStatic.IsRecentlyStatic() {
		e.updateBias(gyro, timestampNs)
	}
	return nil
}

func (e *Estimator) updateBias(gyro vector.Vector3d, timestampNs int64) {
	mag := gyro.Length()
	if mag >= e.params.GyroMagnitudeThreshold {
		return
	}

	// Confidence that this really is zero rotation drops quadratically.
	weight := math.Max(0, 1-mag/e.params.GyroMagnitudeThreshold)
	weight *= weight
	e.biasLowPass.AddWeightedSample(e.gyroLowPass.FilteredData(), timestampNs, weight)
}

// GyroBias writes the current bias estimate (rad/s) into out. The
// estimate is zero until MinBiasSamples bias updates were accepted and
// then ramps up over RampSamples further updates.
func (e *Estimator) GyroBias(out *vector.Vector3d) {
	if e.biasLowPass.NumSamples() < e.params.MinBiasSamples {
		out.SetZero()
		return
	}
	out.Set(e.biasLowPass.FilteredData())
	out.Scale(e.Ramp())
}

// Ramp returns the fade-in factor applied to the reported bias, in [0, 1].
func (e *Estimator) Ramp() float64 {
	n := e.biasLowPass.NumSamples() - e.params.MinBiasSamples
	if n <= 0 {
		return 0
	}
	return math.Min(1, float64(n)/float64(e.params.RampSamples))
}

// BiasSampleCount returns how many bias updates were accepted.
func (e *Estimator) BiasSampleCount() int {
	return e.biasLowPass.NumSamples()
}

// IsAccelStatic reports whether the accelerometer is recently static.
func (e *Estimator) IsAccelStatic() bool {
	return e.accelStatic.IsRecentlyStatic()
}

// IsGyroStatic reports whether the gyroscope is recently static.
func (e *Estimator) IsGyroStatic() bool {
	return e.gyroStatic.IsRecentlyStatic()
}

// AccelSampleCount and GyroSampleCount report samples seen by the input
// filters since the last reset.
func (e *Estimator) AccelSampleCount() int { return e.accelLowPass.NumSamples() }
func (e *Estimator) GyroSampleCount() int  { return e.gyroLowPass.NumSamples() }
