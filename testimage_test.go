// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package watermark

import (
	"image"
	"image/color"
)

// gradientImage builds a smooth, natural-ish synthetic test image: a
// diagonal RGB gradient with a gentle sinusoidal ripple, avoiding the
// sharp edges a checkerboard would introduce into the HL subband.
// Generated in-test rather than checked in as a binary fixture, per
// the budget note on accepting negligible edge artifacts.
func gradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			b := uint8(((x + y) * 255 / (width + height)))
			img.Set(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}
