// Package imgutil provides the shared raster primitives used by the
// processing engine: conversion to the run-owned NRGBA working buffer,
// channel clamping, and the engine-wide luminance definition.
package imgutil

import (
	"image"

	"github.com/disintegration/imaging"
)

// Rec. 601 luma weights. Every luminance computation in the engine uses
// these coefficients so tone and selective passes agree on what "bright"
// means for a given pixel.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// CloneNRGBA copies src into a fresh *image.NRGBA with zero-origin bounds.
// The caller's image is never written to; processing runs grade the clone.
func CloneNRGBA(src image.Image) *image.NRGBA {
	return imaging.Clone(src)
}

// Clamp8 rounds v to the nearest integer and clamps it to the [0, 255]
// range of an 8-bit channel.
func Clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Luminance returns the Rec. 601 luma of an 8-bit RGB triple, in [0, 255].
func Luminance(r, g, b uint8) float64 {
	return lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)
}

// LuminanceF returns the Rec. 601 luma of channel values already in float
// form. Used mid-pass, where intermediate channel values may sit outside
// [0, 255] before the final clamp.
func LuminanceF(r, g, b float64) float64 {
	return lumaR*r + lumaG*g + lumaB*b
}
