// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package clock provides the monotonic nanosecond time base shared by
// the accelerometer and gyroscope streams.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock returns monotonic nanosecond ticks.
type Clock interface {
	NanoTime() int64
}

// System is a Clock backed by the runtime's monotonic clock. Ticks count
// from construction.
type System struct {
	start time.Time
}

// NewSystem returns a System clock starting at zero.
func NewSystem() *System {
	return &System{start: time.Now()}
}

func (c *System) NanoTime() int64 {
	return int64(time.Since(c.start))
}

// Manual is a Clock that only moves when told to. Safe for concurrent use.
type Manual struct {
	now atomic.Int64
}

// NewManual returns a Manual clock at startNs.
func NewManual(startNs int64) *Manual {
	m := &Manual{}
	m.now.Store(startNs)
	return m
}

func (m *Manual) NanoTime() int64 {
	return m.now.Load()
}

// Advance moves the clock forward by d and returns the new time.
func (m *Manual) Advance(d time.Duration) int64 {
	return m.now.Add(int64(d))
}
