// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package watermark

import "github.com/sgp-io/watermark/internal/transform"

// lumaSubbands holds a one-level Haar decomposition of a (possibly
// edge-padded-to-even) luminance plane, plus the HL subband's
// dimensions before any further block-alignment padding — needed to
// strip that padding again after reconstruction.
type lumaSubbands struct {
	ll, lh, hl, hh transform.Plane
	hlRows, hlCols int
}

// decomposeLuma edge-replicate pads y to even dimensions (Haar2D
// requires an even-sized input) and runs the one-level 2-D Haar DWT.
func decomposeLuma(y transform.Plane) lumaSubbands {
	evenY := transform.PadToMultiple(y, 2)
	ll, lh, hl, hh := transform.Haar2D(evenY)
	return lumaSubbands{ll: ll, lh: lh, hl: hl, hh: hh, hlRows: hl.Rows(), hlCols: hl.Cols()}
}

// blockAlignedHL returns the HL subband edge-replicate padded to a
// multiple of the transform block size, ready for block selection and
// per-block DCT.
func (s lumaSubbands) blockAlignedHL() transform.Plane {
	return transform.PadToMultiple(s.hl, transform.BlockSize)
}

// reconstructLuma strips hl's block-alignment padding back to the
// subband's original dimensions, runs the inverse Haar DWT against the
// untouched LL/LH/HH subbands, and crops the even-padded result back
// to (origHeight, origWidth).
func (s lumaSubbands) reconstructLuma(hl transform.Plane, origHeight, origWidth int) transform.Plane {
	hlFinal := transform.Unpad(hl, s.hlRows, s.hlCols)
	evenY := transform.InverseHaar2D(s.ll, s.lh, hlFinal, s.hh)
	return transform.Unpad(evenY, origHeight, origWidth)
}
