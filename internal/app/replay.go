// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/gyro_bias/internal/bias"
	"github.com/relabs-tech/gyro_bias/internal/imu"
	"github.com/relabs-tech/gyro_bias/internal/sensors"
	"github.com/relabs-tech/gyro_bias/internal/tracking"
	"github.com/relabs-tech/gyro_bias/internal/vector"
)

// ReplayOptions configures a replay run.
type ReplayOptions struct {
	Source string
	Params bias.Params
	// CSV, when set, receives one row per gyro sample.
	CSV io.Writer
}

// ReplayReport summarizes a replay run.
type ReplayReport struct {
	Final     tracking.Snapshot
	Malformed int
	// Gyro statistics over frames where both sensors were static.
	StaticFrames int
	StaticMean   vector.Vector3d
	StaticStdDev vector.Vector3d
}

var csvHeader = []string{
	"timestamp_ns", "bias_x", "bias_y", "bias_z",
	"bias_samples", "ramp", "accel_static", "gyro_static",
}

// Replay runs a recorded sentence log through a fresh estimator.
func Replay(r io.Reader, opts ReplayOptions, log *slog.Logger) (ReplayReport, error) {
	estimator, err := bias.NewEstimatorWithParams(opts.Params)
	if err != nil {
		return ReplayReport{}, err
	}
	tracker := tracking.New(opts.Source, estimator, nil)
	src := sensors.NewLineSource(opts.Source, r, log)

	var cw *csv.Writer
	if opts.CSV != nil {
		cw = csv.NewWriter(opts.CSV)
		if err := cw.Write(csvHeader); err != nil {
			return ReplayReport{}, fmt.Errorf("csv: %w", err)
		}
	}

	var xs, ys, zs []float64
	for {
		samples, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ReplayReport{}, fmt.Errorf("replay read error: %w", err)
		}
		for _, s := range samples {
			if err := tracker.Apply(s); err != nil {
				log.Debug("sample rejected", "err", err)
				continue
			}
			if s.Sensor != imu.SensorGyro {
				continue
			}
			snap := tracker.Snapshot()
			if snap.AccelStatic && snap.GyroStatic {
				xs = append(xs, s.X)
				ys = append(ys, s.Y)
				zs = append(zs, s.Z)
			}
			if cw != nil {
				if err := cw.Write(csvRow(snap)); err != nil {
					return ReplayReport{}, fmt.Errorf("csv: %w", err)
				}
			}
		}
	}
	if cw != nil {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return ReplayReport{}, fmt.Errorf("csv: %w", err)
		}
	}

	report := ReplayReport{
		Final:        tracker.Snapshot(),
		Malformed:    src.Malformed(),
		StaticFrames: len(xs),
	}
	report.StaticMean, report.StaticStdDev = meanStdDev(xs, ys, zs)
	return report, nil
}

// meanStdDev returns per-axis statistics, NaN when fewer than two
// samples are available.
func meanStdDev(xs, ys, zs []float64) (mean, std vector.Vector3d) {
	if len(xs) < 2 {
		nan := math.NaN()
		return vector.New(nan, nan, nan), vector.New(nan, nan, nan)
	}
	mean.X, std.X = stat.MeanStdDev(xs, nil)
	mean.Y, std.Y = stat.MeanStdDev(ys, nil)
	mean.Z, std.Z = stat.MeanStdDev(zs, nil)
	return mean, std
}

func csvRow(s tracking.Snapshot) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return []string{
		strconv.FormatInt(s.TimestampNs, 10),
		f(s.Bias.X), f(s.Bias.Y), f(s.Bias.Z),
		strconv.Itoa(s.BiasSamples),
		f(s.Ramp),
		strconv.FormatBool(s.AccelStatic),
		strconv.FormatBool(s.GyroStatic),
	}
}

// WriteReport prints a human readable replay summary.
func WriteReport(w io.Writer, r ReplayReport) {
	fmt.Fprintf(w, "samples:        %d accepted, %d rejected, %d malformed\n",
		r.Final.Accepted, r.Final.Rejected, r.Malformed)
	fmt.Fprintf(w, "bias samples:   %d (ramp %.2f)\n", r.Final.BiasSamples, r.Final.Ramp)
	fmt.Fprintf(w, "final bias:     x=%+.6f y=%+.6f z=%+.6f rad/s\n",
		r.Final.Bias.X, r.Final.Bias.Y, r.Final.Bias.Z)
	fmt.Fprintf(w, "static frames:  %d\n", r.StaticFrames)
	fmt.Fprintf(w, "static mean:    x=%+.6f y=%+.6f z=%+.6f rad/s\n",
		r.StaticMean.X, r.StaticMean.Y, r.StaticMean.Z)
	fmt.Fprintf(w, "static stddev:  x=%.6f y=%.6f z=%.6f rad/s\n",
		r.StaticStdDev.X, r.StaticStdDev.Y, r.StaticStdDev.Z)
}
