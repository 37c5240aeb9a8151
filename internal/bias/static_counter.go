// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bias

// StaticCounter debounces a per-frame "looks static" signal: the device
// counts as recently static only after minStaticFrames consecutive
// static frames, and a single moving frame starts the run over.
type StaticCounter struct {
	minStaticFrames int
	consecutive     int
}

// NewStaticCounter returns a counter requiring minStaticFrames
// consecutive static frames.
func NewStaticCounter(minStaticFrames int) StaticCounter {
	return StaticCounter{minStaticFrames: minStaticFrames}
}

// AppendFrame records one frame.
func (c *StaticCounter) AppendFrame(isStatic bool) {
	if !isStatic {
		c.consecutive = 0
		return
	}
	c.consecutive++
}

// IsRecentlyStatic reports whether the current run reached the threshold.
func (c *StaticCounter) IsRecentlyStatic() bool {
	return c.consecutive >= c.minStaticFrames
}

// Consecutive returns the length of the current static run.
func (c *StaticCounter) Consecutive() int {
	return c.consecutive
}

// Reset clears the current run.
func (c *StaticCounter) Reset() {
	c.consecutive = 0
}
