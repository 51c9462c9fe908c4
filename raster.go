// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package watermark

import (
	"image"
	"image/draw"

	"github.com/sgp-io/watermark/internal/transform"
)

// rasterPlanes is a decoded image split into per-channel float64
// planes (for the transform pipeline) plus the raw alpha bytes, which
// the codec never touches and copies through unchanged.
type rasterPlanes struct {
	b, g, r transform.Plane
	alpha   [][]uint8
	width   int
	height  int
}

// toPlanes normalizes any image.Image to NRGBA via draw.Draw and
// splits it into float64 BGR planes and an alpha byte plane.
func toPlanes(img image.Image) rasterPlanes {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	nrgba := image.NewNRGBA(bounds)
	draw.Draw(nrgba, bounds, img, bounds.Min, draw.Src)

	b := transform.NewPlane(height, width)
	g := transform.NewPlane(height, width)
	r := transform.NewPlane(height, width)
	alpha := make([][]uint8, height)

	for y := 0; y < height; y++ {
		alpha[y] = make([]uint8, width)
		for x := 0; x < width; x++ {
			i := nrgba.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			r[y][x] = float64(nrgba.Pix[i])
			g[y][x] = float64(nrgba.Pix[i+1])
			b[y][x] = float64(nrgba.Pix[i+2])
			alpha[y][x] = nrgba.Pix[i+3]
		}
	}

	return rasterPlanes{b: b, g: g, r: r, alpha: alpha, width: width, height: height}
}

// fromPlanes reassembles BGR float64 planes and an alpha byte plane
// into an *image.NRGBA, clipping each color sample to [0, 255].
func fromPlanes(b, g, r transform.Plane, alpha [][]uint8) *image.NRGBA {
	height := r.Rows()
	width := r.Cols()

	rb := transform.ClipToByte(r)
	gb := transform.ClipToByte(g)
	bb := transform.ClipToByte(b)

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := out.PixOffset(x, y)
			out.Pix[i] = rb[y][x]
			out.Pix[i+1] = gb[y][x]
			out.Pix[i+2] = bb[y][x]
			out.Pix[i+3] = alpha[y][x]
		}
	}
	return out
}
