// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package vector holds the 3-component value type shared by the filters
// and the bias estimator.
package vector

import "math"

// Vector3d is a 3D vector in the sensor frame (x, y, z).
// The zero value is the zero vector.
type Vector3d struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// New returns the vector (x, y, z).
func New(x, y, z float64) Vector3d {
	return Vector3d{X: x, Y: y, Z: z}
}

// Set copies o into v.
func (v *Vector3d) Set(o Vector3d) {
	v.X = o.X
	v.Y = o.Y
	v.Z = o.Z
}

// SetComponents assigns all three components.
func (v *Vector3d) SetComponents(x, y, z float64) {
	v.X = x
	v.Y = y
	v.Z = z
}

// SetZero resets v to (0, 0, 0).
func (v *Vector3d) SetZero() {
	v.X = 0
	v.Y = 0
	v.Z = 0
}

// Scale multiplies every component by s.
func (v *Vector3d) Scale(s float64) {
	v.X *= s
	v.Y *= s
	v.Z *= s
}

// Length returns the Euclidean norm.
func (v Vector3d) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// IsFinite reports whether no component is NaN or ±Inf.
func (v Vector3d) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// IsZero reports whether all components are exactly zero.
func (v Vector3d) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Add writes a + b into out. out may alias a or b.
func Add(a, b Vector3d, out *Vector3d) {
	out.X = a.X + b.X
	out.Y = a.Y + b.Y
	out.Z = a.Z + b.Z
}

// Sub writes a - b into out. out may alias a or b.
//
// The caller owns out so the sensor path stays allocation free.
func Sub(a, b Vector3d, out *Vector3d) {
	out.X = a.X - b.X
	out.Y = a.Y - b.Y
	out.Z = a.Z - b.Z
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
