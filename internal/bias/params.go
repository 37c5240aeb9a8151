// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bias

import "fmt"

// Estimator tuning. Changing any of these changes the numerical output,
// so DefaultParams must stay in sync with them.
const (
	AccelCutoffHz = 1.0
	GyroCutoffHz  = 10.0
	BiasCutoffHz  = 0.15

	// Residual length (m/s^2) below which an accel frame is static.
	AccelStaticThreshold = 0.5
	// Residual length (rad/s) below which a gyro frame is static.
	GyroStaticThreshold = 0.008

	StaticFramesThreshold = 10

	// Gyro magnitude (rad/s) at and above which no bias update is tried.
	GyroMagnitudeThreshold = 0.35

	// Bias-filter samples needed before any non-zero bias is reported.
	MinBiasSamples = 30
	// Samples over which the reported bias fades in after MinBiasSamples.
	RampSamples = 100
)

// Params groups the estimator tuning.
type Params struct {
	AccelCutoffHz          float64 `json:"accel_cutoff_hz"`
	GyroCutoffHz           float64 `json:"gyro_cutoff_hz"`
	BiasCutoffHz           float64 `json:"bias_cutoff_hz"`
	AccelStaticThreshold   float64 `json:"accel_static_threshold"`
	GyroStaticThreshold    float64 `json:"gyro_static_threshold"`
	StaticFrames           int     `json:"static_frames"`
	GyroMagnitudeThreshold float64 `json:"gyro_magnitude_threshold"`
	MinBiasSamples         int     `json:"min_bias_samples"`
	RampSamples            int     `json:"ramp_samples"`
}

// DefaultParams returns the production tuning.
func DefaultParams() Params {
	return Params{
		AccelCutoffHz:          AccelCutoffHz,
		GyroCutoffHz:           GyroCutoffHz,
		BiasCutoffHz:           BiasCutoffHz,
		AccelStaticThreshold:   AccelStaticThreshold,
		GyroStaticThreshold:    GyroStaticThreshold,
		StaticFrames:           StaticFramesThreshold,
		GyroMagnitudeThreshold: GyroMagnitudeThreshold,
		MinBiasSamples:         MinBiasSamples,
		RampSamples:            RampSamples,
	}
}

// Validate checks that every parameter is positive.
func (p Params) Validate() error {
	floats := []struct {
		name string
		val  float64
	}{
		{"accel cutoff", p.AccelCutoffHz},
		{"gyro cutoff", p.GyroCutoffHz},
		{"bias cutoff", p.BiasCutoffHz},
		{"accel static threshold", p.AccelStaticThreshold},
		{"gyro static threshold", p.GyroStaticThreshold},
		{"gyro magnitude threshold", p.GyroMagnitudeThreshold},
	}
	for _, f := range floats {
		if !(f.val > 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidParams, f.name, f.val)
		}
	}
	if p.StaticFrames <= 0 {
		return fmt.Errorf("%w: static frames must be positive, got %d", ErrInvalidParams, p.StaticFrames)
	}
	if p.MinBiasSamples <= 0 {
		return fmt.Errorf("%w: min bias samples must be positive, got %d", ErrInvalidParams, p.MinBiasSamples)
	}
	if p.RampSamples <= 0 {
		return fmt.Errorf("%w: ramp samples must be positive, got %d", ErrInvalidParams, p.RampSamples)
	}
	return nil
}
