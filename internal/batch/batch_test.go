// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package batch

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgp-io/watermark"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestRunAuditReportsUnwatermarkedImages(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	dir := t.TempDir()
	writePNG(t, dir, "a.png")
	writePNG(t, dir, "b.png")
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644)

	cfg, err := watermark.NewConfig("test-key")
	require.NoError(t, err)

	report, err := RunAudit(dir, cfg)
	is.NoError(err)
	is.Equal(2, report.Total)
	is.Equal(2, report.WithoutWatermark)
	is.Len(report.Entries, 2)
}

func TestRunAuditFindsEmbeddedWatermark(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	dir := t.TempDir()
	cfg, err := watermark.NewConfig("test-key")
	require.NoError(t, err)

	base := image.NewNRGBA(image.Rect(0, 0, 512, 512))
	for y := 0; y < 512; y++ {
		for x := 0; x < 512; x++ {
			base.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}

	marked, err := watermark.Embed(base, watermark.Payload{OriginalUID: 7}, cfg)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, marked))
	path := filepath.Join(dir, "marked.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	report, err := RunAudit(dir, cfg)
	is.NoError(err)
	is.Equal(1, report.Total)
	is.Equal(1, report.WithWatermark)
	is.Equal(1, report.MasterCopies)
	is.Equal(uint64(7), report.Entries[0].OriginalUID)
}

func TestRunAuditWithMultipleWorkers(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	dir := t.TempDir()
	for i := 0; i < 6; i++ {
		writePNG(t, dir, filepath.Base(dir)+string(rune('a'+i))+".png")
	}

	cfg, err := watermark.NewConfig("test-key")
	require.NoError(t, err)

	report, err := RunAudit(dir, cfg, WithWorkers(4))
	is.NoError(err)
	is.Equal(6, report.Total)
}

func TestRunAuditRejectsMissingDirectory(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cfg, err := watermark.NewConfig("test-key")
	require.NoError(t, err)

	_, err = RunAudit(filepath.Join(t.TempDir(), "does-not-exist"), cfg)
	is.Error(err)
}

func TestNewDistributionRecordGeneratesSuffix(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	now := time.Now()
	a, err := NewDistributionRecord(42, 7, "dist/a.png", now)
	require.NoError(t, err)
	is.Len(a.SuffixID, suffixIDBytes*2)
	is.Equal(uint64(42), a.UID)
	is.Equal(uint64(7), a.OriginalUID)

	b, err := NewDistributionRecord(42, 7, "dist/a.png", now)
	require.NoError(t, err)
	is.NotEqual(a.SuffixID, b.SuffixID)
}

func TestRecordStringers(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	m := MasterRecord{UID: 1, Path: "m.png"}
	is.Contains(m.String(), "master uid=1")

	d := DistributionRecord{UID: 2, OriginalUID: 1, SuffixID: "deadbeef", Path: "d.png"}
	is.Contains(d.String(), "suffix=deadbeef")

	e := AuditEntry{Path: "x.png", HasWatermark: true, OriginalUID: 1, CurrentUID: 2}
	is.Contains(e.String(), "distribution copy")
}
