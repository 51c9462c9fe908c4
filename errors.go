// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package watermark

import "errors"

// Sentinel errors returned by this package. Integrity failures inside
// Extract are never returned as errors — they collapse into an Extracted
// value with a nil Payload and the confidence reached so far. The errors
// below are reserved for failures a caller must act on: a decode boundary
// violation surfaced explicitly by DecodePayload, a policy decision in the
// provenance state machine, or an I/O/decode failure from a collaborator.
var (
	// ErrBadMagic is returned by DecodePayload when the first two bytes of a
	// 32-byte buffer do not match the protocol magic 0x53 0x47.
	ErrBadMagic = errors.New("watermark: bad magic")

	// ErrBadCRC is returned by DecodePayload when the trailing CRC-32 does
	// not match the recomputed checksum of the 25-byte body.
	ErrBadCRC = errors.New("watermark: bad crc32")

	// ErrBadLength is returned by DecodePayload when the input is not
	// exactly 32 bytes long.
	ErrBadLength = errors.New("watermark: bad payload length")

	// ErrUnrecoverable is returned by MintDistribution and
	// UpdateMasterFlags when no scale in the extraction ladder produced a
	// payload that passed both the magic and CRC checks.
	ErrUnrecoverable = errors.New("watermark: no watermark recoverable from image")

	// ErrNotAMaster is returned by MintDistribution and
	// UpdateMasterFlags when the recovered payload's CurrentUID is
	// non-zero, i.e. the image is a distribution, not a master.
	ErrNotAMaster = errors.New("watermark: image is not a master copy")

	// ErrPermissionDenied is returned by CreateMaster when the caller is
	// not the original author and the existing payload's AllowDerivative
	// flag is false.
	ErrPermissionDenied = errors.New("watermark: permission denied: derivative works not allowed")

	// ErrImageDecode is the sentinel for source bytes that cannot be
	// decoded as a supported raster image. No function in this module
	// returns it: internal/imageio reports decode failures by wrapping the
	// underlying decoder's error.
	ErrImageDecode = errors.New("watermark: image decode error")

	// ErrIO is the sentinel for filesystem failures while reading or
	// writing image bytes. No function in this module returns it:
	// internal/batch records the os error itself.
	ErrIO = errors.New("watermark: io error")
)
