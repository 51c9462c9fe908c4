// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package watermark

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	ximagedraw "golang.org/x/image/draw"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtractSurvivesUpscale covers scenario S2: the embedded image
// resized up to 1024x1024 still recovers the payload via the
// multi-scale ladder with confidence at least 0.8.
func TestExtractSurvivesUpscale(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cfg, err := NewConfig("s2-key")
	require.NoError(t, err)

	payload := Payload{OriginalUID: 11, CurrentUID: 0}
	marked, err := Embed(gradientImage(512, 512), payload, cfg)
	require.NoError(t, err)

	upscaled := image.NewNRGBA(image.Rect(0, 0, 1024, 1024))
	ximagedraw.CatmullRom.Scale(upscaled, upscaled.Bounds(), marked, marked.Bounds(), ximagedraw.Over, nil)

	extracted, err := Extract(upscaled, cfg)
	require.NoError(t, err)
	require.NotNil(t, extracted.Payload)
	is.Equal(payload, *extracted.Payload)
	is.GreaterOrEqual(extracted.Confidence, 0.8)
}

// TestExtractSurvivesJPEGRecompression covers scenario S3: a JPEG
// round trip at quality 90 still recovers the payload with confidence
// at least 0.6.
func TestExtractSurvivesJPEGRecompression(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cfg, err := NewConfig("s3-key")
	require.NoError(t, err)

	payload := Payload{OriginalUID: 21, CurrentUID: 0}
	marked, err := Embed(gradientImage(512, 512), payload, cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, marked, &jpeg.Options{Quality: 90}))
	recompressed, err := jpeg.Decode(&buf)
	require.NoError(t, err)

	extracted, err := Extract(recompressed, cfg)
	require.NoError(t, err)
	require.NotNil(t, extracted.Payload)
	is.Equal(payload, *extracted.Payload)
	is.GreaterOrEqual(extracted.Confidence, 0.6)
}

func TestExtractOnUnmarkedImageFindsNothing(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cfg, err := NewConfig("unmarked-key")
	require.NoError(t, err)

	extracted, err := Extract(gradientImage(512, 512), cfg)
	require.NoError(t, err)
	is.Nil(extracted.Payload)
}

func TestWithinTenPercent(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	is.True(withinTenPercent(1024, 1000))
	is.True(withinTenPercent(900, 1000))
	is.False(withinTenPercent(1200, 1000))
	is.False(withinTenPercent(700, 1000))
}

func TestResizeLongEdgePreservesAspectRatio(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	img := gradientImage(400, 200)
	resized := resizeLongEdge(img, 800)
	bounds := resized.Bounds()

	is.Equal(800, bounds.Dx())
	is.Equal(400, bounds.Dy())
}

func TestMajorityVotePayloadTieRoundsUp(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	const bitsPerCopy = payloadLength * 8
	bits := make([]byte, bitsPerCopy*2)
	// Column 0: one vote for 1, one for 0 -> tie, rounds up to 1.
	bits[0] = 1
	bits[bitsPerCopy] = 0

	voted, copies := majorityVotePayload(bits)
	is.Equal(2, copies)
	is.Equal(byte(1), voted[0]>>7)
}
