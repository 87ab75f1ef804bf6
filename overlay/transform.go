// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package overlay

import "math"

// identityMatrix returns a row-major 4x4 identity.
func identityMatrix() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// scaleMatrix returns a row-major 4x4 non-uniform scale.
func scaleMatrix(sx, sy, sz float32) [16]float32 {
	m := identityMatrix()
	m[0], m[5], m[10] = sx, sy, sz
	return m
}

// translationMatrix returns a row-major 4x4 translation.
func translationMatrix(tx, ty, tz float32) [16]float32 {
	m := identityMatrix()
	m[3], m[7], m[11] = tx, ty, tz
	return m
}

// rotationMatrix builds a row-major 4x4 rotation from an axis-angle
// pair via Rodrigues' formula. axis need not be normalized; angle is
// in radians.
func rotationMatrix(axisX, axisY, axisZ, angle float32) [16]float32 {
	length := math.Sqrt(float64(axisX*axisX + axisY*axisY + axisZ*axisZ))
	if length == 0 {
		return identityMatrix()
	}
	x := float64(axisX) / length
	y := float64(axisY) / length
	z := float64(axisZ) / length

	c := math.Cos(float64(angle))
	s := math.Sin(float64(angle))
	t := 1 - c

	m := identityMatrix()
	m[0] = float32(t*x*x + c)
	m[1] = float32(t*x*y - s*z)
	m[2] = float32(t*x*z + s*y)
	m[4] = float32(t*x*y + s*z)
	m[5] = float32(t*y*y + c)
	m[6] = float32(t*y*z - s*x)
	m[8] = float32(t*x*z - s*y)
	m[9] = float32(t*y*z + s*x)
	m[10] = float32(t*z*z + c)
	return m
}

// applyAffine transforms a 3-float position by treating it as a
// homogeneous point with w = 1, using only the matrix's affine part
// (translation included).
func applyAffine(m [16]float32, x, y, z float32) (float32, float32, float32) {
	nx := m[0]*x + m[1]*y + m[2]*z + m[3]
	ny := m[4]*x + m[5]*y + m[6]*z + m[7]
	nz := m[8]*x + m[9]*y + m[10]*z + m[11]
	return nx, ny, nz
}

// applyLinear transforms a 3-float direction by the matrix's upper-left
// 3x3 linear part only, ignoring translation, then renormalizes — the
// policy this package uses for normals under a geometry transform.
func applyLinear(m [16]float32, x, y, z float32) (float32, float32, float32) {
	nx := m[0]*x + m[1]*y + m[2]*z
	ny := m[4]*x + m[5]*y + m[6]*z
	nz := m[8]*x + m[9]*y + m[10]*z
	return normalize3(nx, ny, nz)
}

func normalize3(x, y, z float32) (float32, float32, float32) {
	length := math.Sqrt(float64(x*x + y*y + z*z))
	if length == 0 {
		return 0, 0, 0
	}
	return float32(float64(x) / length), float32(float64(y) / length), float32(float64(z) / length)
}
