// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package geom defines the value types used for layer geometry.
//
// The compositor only moves these values between the logical and render
// trees; projecting or clipping them is the job of the draw-property
// calculation, which lives outside this module.
package geom

import (
	"image"

	"golang.org/x/image/math/f64"
)

// Size is an integer extent in layer space.
type Size struct {
	Width, Height int
}

// IsEmpty reports whether s has no area.
func (s Size) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Rect returns the rectangle of size s anchored at the origin.
func (s Size) Rect() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

// PointF is a floating point position.
type PointF f64.Vec2

// Pt returns the point (x, y).
func Pt(x, y float64) PointF { return PointF{x, y} }

// X returns the horizontal component.
func (p PointF) X() float64 { return p[0] }

// Y returns the vertical component.
func (p PointF) Y() float64 { return p[1] }

// VectorF is a floating point displacement, used for scroll deltas.
type VectorF f64.Vec2

// Vec returns the vector (x, y).
func Vec(x, y float64) VectorF { return VectorF{x, y} }

// X returns the horizontal component.
func (v VectorF) X() float64 { return v[0] }

// Y returns the vertical component.
func (v VectorF) Y() float64 { return v[1] }

// Add returns v+o.
func (v VectorF) Add(o VectorF) VectorF { return VectorF{v[0] + o[0], v[1] + o[1]} }

// Sub returns v-o.
func (v VectorF) Sub(o VectorF) VectorF { return VectorF{v[0] - o[0], v[1] - o[1]} }

// IsZero reports whether both components are zero.
func (v VectorF) IsZero() bool { return v[0] == 0 && v[1] == 0 }

// Clamp limits each component of v to [lo, hi].
func (v VectorF) Clamp(lo, hi VectorF) VectorF {
	for i := range v {
		if v[i] < lo[i] {
			v[i] = lo[i]
		}
		if v[i] > hi[i] {
			v[i] = hi[i]
		}
	}
	return v
}

// FromPoint converts an integer offset to a VectorF.
func FromPoint(p image.Point) VectorF {
	return VectorF{float64(p.X), float64(p.Y)}
}

// Transform is a 4x4 row-major homogeneous matrix.
type Transform f64.Mat4

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns a transform that translates by (x, y).
func Translation(x, y float64) Transform {
	t := Identity()
	t[3] = x
	t[7] = y
	return t
}

// IsIdentity reports whether t is exactly the identity.
func (t Transform) IsIdentity() bool {
	return t == Identity()
}

// Region is a union of rectangles, used for event handler regions.
type Region []image.Rectangle

// IsEmpty reports whether the region covers no pixels.
func (r Region) IsEmpty() bool {
	for _, rect := range r {
		if !rect.Empty() {
			return false
		}
	}
	return true
}

// Contains reports whether p lies inside any rectangle of the region.
func (r Region) Contains(p image.Point) bool {
	for _, rect := range r {
		if p.In(rect) {
			return true
		}
	}
	return false
}

// Equal reports whether r and o hold the same rectangles in the same order.
func (r Region) Equal(o Region) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of r that does not share storage.
func (r Region) Clone() Region {
	if r == nil {
		return nil
	}
	out := make(Region, len(r))
	copy(out, r)
	return out
}
