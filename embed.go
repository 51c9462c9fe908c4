// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package watermark

import (
	"image"

	"github.com/sgp-io/watermark/internal/transform"
)

// Embed writes payload into img's luminance HL subband and returns the
// reconstructed image. It never mutates img; the returned *image.NRGBA
// is a fresh raster the same size as img with the same alpha channel.
//
// Embed is a pure function of (img, payload, cfg): two concurrent
// calls with identical inputs produce byte-identical output, since it
// allocates its own RNG and transform buffers per call and consults no
// package-level state.
func Embed(img image.Image, payload Payload, cfg Config) (*image.NRGBA, error) {
	planes := toPlanes(img)

	y, cr, cb := transform.BGRToYCrCb(planes.b, planes.g, planes.r)
	subbands := decomposeLuma(y)
	hl := subbands.blockAlignedHL()

	seq := selectEmbedSequence(hl, cfg.Key(), planes.width, planes.height)
	writeBits(hl, seq, payload.Encode(), cfg.QIMStep())

	reconY := subbands.reconstructLuma(hl, planes.height, planes.width)
	b, g, r := transform.YCrCbToBGR(reconY, cr, cb)

	return fromPlanes(b, g, r, planes.alpha), nil
}

// writeBits modulates one payload bit into each block of seq, in
// order, wrapping the 256-bit payload stream modulo its length across
// the (generally longer) block list — the redundancy that lets
// Extract recover a bit by majority vote across repeated writes.
func writeBits(hl transform.Plane, seq embedSequence, encoded [payloadLength]byte, step float64) {
	bits := bitsFromPayload(encoded)

	for i, coord := range seq.blocks {
		block := readBlock(hl, coord)
		coeffs := transform.DCT2D(block)

		pos := midFrequencyPositions[seq.positions[i]]
		bit := int(bits[i%len(bits)])
		coeffs[pos[0]][pos[1]] = transform.QIMEmbed(coeffs[pos[0]][pos[1]], bit, step)

		writeBlock(hl, coord, transform.IDCT2D(coeffs))
	}
}

// readBlock copies the 8x8 block at coord out of hl.
func readBlock(hl transform.Plane, coord BlockCoord) transform.Plane {
	size := transform.BlockSize
	startRow := coord.Row * size
	startCol := coord.Col * size

	block := transform.NewPlane(size, size)
	for i := 0; i < size; i++ {
		copy(block[i], hl[startRow+i][startCol:startCol+size])
	}
	return block
}

// writeBlock copies an 8x8 block back into hl at coord.
func writeBlock(hl transform.Plane, coord BlockCoord, block transform.Plane) {
	size := transform.BlockSize
	startRow := coord.Row * size
	startCol := coord.Col * size

	for i := 0; i < size; i++ {
		copy(hl[startRow+i][startCol:startCol+size], block[i])
	}
}
