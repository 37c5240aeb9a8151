// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package filter implements the time-aware low-pass filter used to smooth
// accelerometer and gyroscope streams.
package filter

import (
	"math"

	"github.com/relabs-tech/gyro_bias/internal/vector"
)

const nanosToSeconds = 1e-9

// LowPassFilter is a first-order exponential filter over timestamped
// vectors. The smoothing coefficient is derived from a cutoff frequency
// and the elapsed time between samples, so irregular sample spacing
// does not change the filter's time response.
//
// A LowPassFilter is not safe for concurrent use.
type LowPassFilter struct {
	cutoffHz  float64
	omega     float64 // 2*pi*cutoff, rad/s
	filtered  vector.Vector3d
	lastNs    int64
	numSample int
	delta     vector.Vector3d
}

// NewLowPassFilter returns an empty filter with the given cutoff in Hz.
// Higher cutoffs track the input faster.
func NewLowPassFilter(cutoffHz float64) *LowPassFilter {
	f := &LowPassFilter{}
	f.init(cutoffHz)
	return f
}

func (f *LowPassFilter) init(cutoffHz float64) {
	f.cutoffHz = cutoffHz
	f.omega = 2 * math.Pi * cutoffHz
	f.Reset()
}

// CutoffHz returns the configured cutoff frequency.
func (f *LowPassFilter) CutoffHz() float64 {
	return f.cutoffHz
}

// Reset drops all samples. The cutoff is kept.
func (f *LowPassFilter) Reset() {
	f.filtered.SetZero()
	f.delta.SetZero()
	f.lastNs = 0
	f.numSample = 0
}

// AddSample folds v, observed at timestampNs, into the filter.
func (f *LowPassFilter) AddSample(v vector.Vector3d, timestampNs int64) {
	f.AddWeightedSample(v, timestampNs, 1)
}

// AddWeightedSample is AddSample with the mixing coefficient multiplied
// by weight, clamped to [0, 1]. A zero weight leaves the output untouched
// but still counts the sample and advances the timestamp.
func (f *LowPassFilter) AddWeightedSample(v vector.Vector3d, timestampNs int64, weight float64) {
	f.numSample++
	if f.numSample == 1 {
		f.filtered.Set(v)
		f.lastNs = timestampNs
		return
	}

	alpha := f.Alpha(timestampNs-f.lastNs) * clamp01(weight)
	f.lastNs = timestampNs

	vector.Sub(v, f.filtered, &f.delta)
	f.delta.Scale(alpha)
	vector.Add(f.filtered, f.delta, &f.filtered)
}

// Alpha returns the unweighted mixing coefficient for a step of dtNs.
// Non-positive steps (reordered samples, clock reset) give 0.
func (f *LowPassFilter) Alpha(dtNs int64) float64 {
	if dtNs <= 0 {
		return 0
	}
	dt := float64(dtNs) * nanosToSeconds
	return clamp01(1 - math.Exp(-f.omega*dt))
}

// FilteredData returns the current output. It is the zero vector until
// the first sample; gate on NumSamples.
func (f *LowPassFilter) FilteredData() vector.Vector3d {
	return f.filtered
}

// NumSamples returns how many samples were accepted since the last reset.
func (f *LowPassFilter) NumSamples() int {
	return f.numSample
}

// LastTimestampNs returns the timestamp of the last accepted sample.
func (f *LowPassFilter) LastTimestampNs() int64 {
	return f.lastNs
}

func clamp01(x float64) float64 {
	// NaN fails both comparisons and is mapped to 0.
	if x > 1 {
		return 1
	}
	if x > 0 {
		return x
	}
	return 0
}
