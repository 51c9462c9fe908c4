// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package imageio decodes rasters in any format the ecosystem's image
// packages register, normalizes them to *image.NRGBA for the transform
// pipeline, and re-encodes PNG output with ancillary text metadata
// preserved via internal/pngmeta. It is the only package in this
// module that touches bytes on the wire; everything upstream of it
// works in decoded color planes.
//
// The decode-by-extension-with-auto-detect-fallback shape follows
// loadImageNRGBA-style helpers common to Go image-watermarking tools,
// generalized here to also register the BMP and TIFF decoders
// golang.org/x/image provides, since this pipeline is not guaranteed a
// pre-converted JPEG/PNG input.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/sgp-io/watermark/internal/pngmeta"
)

// Decoded holds a normalized raster plus whatever PNG ancillary text
// metadata the source carried, ready to be spliced back into output.
type Decoded struct {
	// Image is the source raster normalized to NRGBA.
	Image *image.NRGBA

	// Metadata is the set of tEXt/zTXt/iTXt chunks found in a PNG
	// source. Always empty for non-PNG sources.
	Metadata []pngmeta.Chunk

	// Format names the decoder that was used: "png", "jpeg", "gif",
	// "bmp", "tiff", or, when auto-detection resolved it, the format
	// name image.Decode reported.
	Format string
}

// DecodeFile decodes raw image bytes, dispatching on the hinted file
// extension first and falling back to format auto-detection (via
// image.Decode's registered-format sniffing) for anything else.
func DecodeFile(name string, data []byte) (Decoded, error) {
	ext := strings.ToLower(filepath.Ext(name))

	var (
		decoded image.Image
		format  string
		err     error
		meta    []pngmeta.Chunk
	)

	switch ext {
	case ".png":
		decoded, err = png.Decode(bytes.NewReader(data))
		format = "png"
		if err == nil {
			meta, _ = pngmeta.ExtractTextChunks(data)
		}
	case ".jpg", ".jpeg":
		decoded, err = jpeg.Decode(bytes.NewReader(data))
		format = "jpeg"
	case ".gif":
		decoded, err = gif.Decode(bytes.NewReader(data))
		format = "gif"
	case ".bmp":
		decoded, err = bmp.Decode(bytes.NewReader(data))
		format = "bmp"
	case ".tif", ".tiff":
		decoded, err = tiff.Decode(bytes.NewReader(data))
		format = "tiff"
	default:
		decoded, format, err = image.Decode(bytes.NewReader(data))
		if err == nil && format == "png" {
			meta, _ = pngmeta.ExtractTextChunks(data)
		}
	}
	if err != nil {
		return Decoded{}, fmt.Errorf("imageio: decode %s: %w", name, err)
	}

	bounds := decoded.Bounds()
	nrgba := image.NewNRGBA(bounds)
	draw.Draw(nrgba, bounds, decoded, bounds.Min, draw.Src)

	return Decoded{Image: nrgba, Metadata: meta, Format: format}, nil
}

// EncodePNG encodes img as PNG into w, splicing meta's ancillary text
// chunks back in immediately before the IEND chunk. A nil or empty
// meta produces a plain image/png.Encode output.
func EncodePNG(w io.Writer, img image.Image, meta []pngmeta.Chunk) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("imageio: encode png: %w", err)
	}
	if len(meta) == 0 {
		_, err := w.Write(buf.Bytes())
		return err
	}

	out, err := pngmeta.InjectChunks(buf.Bytes(), meta)
	if err != nil {
		return fmt.Errorf("imageio: inject metadata: %w", err)
	}
	_, err = w.Write(out)
	return err
}
