// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package metrics exports the bias-estimation session to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/relabs-tech/gyro_bias/internal/imu"
	"github.com/relabs-tech/gyro_bias/internal/tracking"
)

const namespace = "gyro_bias"

// Collector implements tracking.Observer on top of Prometheus metrics.
type Collector struct {
	Estimate *prometheus.GaugeVec
	Samples  prometheus.Gauge
	Ramp     prometheus.Gauge
	Static   *prometheus.GaugeVec
	Inputs   *prometheus.CounterVec
	Rejected *prometheus.CounterVec
	Resets   prometheus.Counter
}

var _ tracking.Observer = (*Collector)(nil)

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Estimate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "estimate_rad_per_sec",
			Help:      "Reported gyroscope bias per axis (after ramp-up).",
		}, []string{"axis"}),
		Samples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "samples",
			Help:      "Samples accepted by the bias filter since the last reset.",
		}),
		Ramp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ramp_ratio",
			Help:      "Fade-in factor applied to the reported bias.",
		}),
		Static: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "static",
			Help:      "1 while the sensor has been static for enough consecutive frames.",
		}, []string{"sensor"}),
		Inputs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_samples_total",
			Help:      "Sensor samples accepted by the estimator.",
		}, []string{"sensor"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_samples_total",
			Help:      "Sensor samples dropped as malformed.",
		}, []string{"sensor"}),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Tracking session resets.",
		}),
	}
	reg.MustRegister(c.Estimate, c.Samples, c.Ramp, c.Static, c.Inputs, c.Rejected, c.Resets)
	return c
}

func (c *Collector) ObserveSample(sensor imu.Sensor, snap *tracking.Snapshot) {
	c.Inputs.WithLabelValues(string(sensor)).Inc()
	c.publish(snap)
}

func (c *Collector) ObserveRejected(sensor imu.Sensor) {
	c.Rejected.WithLabelValues(string(sensor)).Inc()
}

func (c *Collector) ObserveReset() {
	c.Resets.Inc()
	c.Estimate.WithLabelValues("x").Set(0)
	c.Estimate.WithLabelValues("y").Set(0)
	c.Estimate.WithLabelValues("z").Set(0)
	c.Samples.Set(0)
	c.Ramp.Set(0)
	c.Static.WithLabelValues(string(imu.SensorAccel)).Set(0)
	c.Static.WithLabelValues(string(imu.SensorGyro)).Set(0)
}

func (c *Collector) publish(snap *tracking.Snapshot) {
	c.Estimate.WithLabelValues("x").Set(snap.Bias.X)
	c.Estimate.WithLabelValues("y").Set(snap.Bias.Y)
	c.Estimate.WithLabelValues("z").Set(snap.Bias.Z)
	c.Samples.Set(float64(snap.BiasSamples))
	c.Ramp.Set(snap.Ramp)
	c.Static.WithLabelValues(string(imu.SensorAccel)).Set(boolToFloat(snap.AccelStatic))
	c.Static.WithLabelValues(string(imu.SensorGyro)).Set(boolToFloat(snap.GyroStatic))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
