// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package batch carries the data-only record types a host application
// (CLI, bot, or relational store) needs to round-trip watermark state,
// plus a bounded-concurrency directory audit helper. None of these
// types change the core codec's semantics; Embed, Extract,
// CreateMaster, MintDistribution, and UpdateMasterFlags never import
// this package.
//
// MasterRecord, DistributionRecord, and AuditEntry mirror the columns
// and audit-report rows a relational store and report generator for
// this provenance model would produce. RunAudit walks a directory of
// images and classifies each one (master, distribution, or unmarked)
// using a bounded worker pool: a channel of paths drained by a fixed
// goroutine count, ordinary idiomatic Go concurrency.
package batch

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sgp-io/watermark"
	"github.com/sgp-io/watermark/internal/imageio"
)

// suffixIDBytes is the number of random bytes drawn per distribution
// filename suffix, hex encoded into an 8-character ID such as
// cover_a1b2c3d4.png.
const suffixIDBytes = 4

// newSuffixID draws a random filename suffix for a distribution copy.
// This is filesystem housekeeping, not a security-relevant entropy
// need, so crypto/rand is read directly rather than through a
// configurable generator.
func newSuffixID() (string, error) {
	buf := make([]byte, suffixIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("batch: generate suffix id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// MasterRecord mirrors one row of the relational store's masters
// table: the canonical author and the permission flags a master
// currently carries.
type MasterRecord struct {
	UID       uint64
	Flags     watermark.Flags
	Path      string
	CreatedAt time.Time
}

// String renders a MasterRecord as a single log line.
func (r MasterRecord) String() string {
	return fmt.Sprintf("master uid=%d path=%s reprint=%t derivative=%t created=%s",
		r.UID, r.Path, r.Flags.AllowReprint(), r.Flags.AllowDerivative(),
		r.CreatedAt.Format(time.RFC3339))
}

// DistributionRecord mirrors one row of the distributions table: a
// minted copy, its holder, the master it traces back to, and the
// random filename suffix generated for it.
type DistributionRecord struct {
	UID         uint64
	OriginalUID uint64
	SuffixID    string
	Path        string
	MintedAt    time.Time
}

// NewDistributionRecord builds a DistributionRecord for a copy just
// minted via watermark.MintDistribution, drawing a fresh random
// filename suffix for it (e.g. "a1b2c3d4" for cover_a1b2c3d4.png).
func NewDistributionRecord(uid, originalUID uint64, path string, mintedAt time.Time) (DistributionRecord, error) {
	suffix, err := newSuffixID()
	if err != nil {
		return DistributionRecord{}, err
	}
	return DistributionRecord{
		UID:         uid,
		OriginalUID: originalUID,
		SuffixID:    suffix,
		Path:        path,
		MintedAt:    mintedAt,
	}, nil
}

// String renders a DistributionRecord as a single log line.
func (r DistributionRecord) String() string {
	return fmt.Sprintf("distribution uid=%d original_uid=%d suffix=%s path=%s minted=%s",
		r.UID, r.OriginalUID, r.SuffixID, r.Path, r.MintedAt.Format(time.RFC3339))
}

// AuditEntry is one row of an audit report: the result of running
// Extract against a single file.
type AuditEntry struct {
	Path            string
	HasWatermark    bool
	Confidence      float64
	OriginalUID     uint64
	CurrentUID      uint64
	IsMaster        bool
	AllowReprint    bool
	AllowDerivative bool
	Err             error
}

// String renders an AuditEntry as a human-readable report line.
func (e AuditEntry) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: error: %v", e.Path, e.Err)
	}
	if !e.HasWatermark {
		return fmt.Sprintf("%s: no watermark detected (confidence %.2f%%)", e.Path, e.Confidence*100)
	}
	kind := "distribution"
	if e.IsMaster {
		kind = "master"
	}
	return fmt.Sprintf("%s: %s copy, original_uid=%d current_uid=%d confidence=%.2f%% reprint=%t derivative=%t",
		e.Path, kind, e.OriginalUID, e.CurrentUID, e.Confidence*100, e.AllowReprint, e.AllowDerivative)
}

// AuditReport aggregates the result of auditing every supported image
// file in a directory.
type AuditReport struct {
	Total              int
	WithWatermark      int
	WithoutWatermark   int
	MasterCopies       int
	DistributionCopies int
	Entries            []AuditEntry
}

// supportedExtensions lists the raster formats RunAudit will attempt
// to decode; anything else in the directory is skipped.
var supportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
}

// Option configures RunAudit via the functional-options pattern.
type Option func(*auditOptions)

type auditOptions struct {
	workers int
}

// WithWorkers sets the number of concurrent audit workers. The
// default is 1 (sequential); a host application processing a large
// directory can raise this.
func WithWorkers(n int) Option {
	return func(o *auditOptions) {
		o.workers = n
	}
}

// RunAudit walks dir (non-recursively) for supported image files, runs
// Extract against each with cfg, and returns the aggregated report. A
// per-file decode or extraction failure is recorded in that file's
// AuditEntry.Err rather than aborting the run.
func RunAudit(dir string, cfg watermark.Config, opts ...Option) (AuditReport, error) {
	o := &auditOptions{workers: 1}
	for _, opt := range opts {
		opt(o)
	}
	if o.workers < 1 {
		o.workers = 1
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return AuditReport{}, fmt.Errorf("batch: read directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	results := make([]AuditEntry, len(paths))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = auditOne(paths[i], cfg)
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	report := AuditReport{Total: len(results), Entries: results}
	for _, r := range results {
		if r.Err != nil || !r.HasWatermark {
			report.WithoutWatermark++
			continue
		}
		report.WithWatermark++
		if r.IsMaster {
			report.MasterCopies++
		} else {
			report.DistributionCopies++
		}
	}
	return report, nil
}

func auditOne(path string, cfg watermark.Config) AuditEntry {
	data, err := os.ReadFile(path)
	if err != nil {
		return AuditEntry{Path: path, Err: err}
	}

	decoded, err := imageio.DecodeFile(path, data)
	if err != nil {
		return AuditEntry{Path: path, Err: err}
	}

	extracted, err := watermark.Extract(decoded.Image, cfg)
	if err != nil {
		return AuditEntry{Path: path, Err: err}
	}

	entry := AuditEntry{Path: path, Confidence: extracted.Confidence}
	if extracted.Payload != nil {
		entry.HasWatermark = true
		entry.OriginalUID = extracted.Payload.OriginalUID
		entry.CurrentUID = extracted.Payload.CurrentUID
		entry.IsMaster = extracted.Payload.IsMaster()
		entry.AllowReprint = extracted.Payload.Flags.AllowReprint()
		entry.AllowDerivative = extracted.Payload.Flags.AllowDerivative()
	}
	return entry
}
