// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package watermark

import (
	"fmt"
	"image"
)

// CreateMaster admits img as a new master under caller's authorship:
//
//   - Unmarked: admitted outright.
//   - Master/Distribution with OriginalUID == caller: re-admitted,
//     refreshing flags.
//   - Master/Distribution with OriginalUID != caller and
//     AllowDerivative: admitted as a forked master, OriginalUID
//     overwritten to caller.
//   - Master/Distribution with OriginalUID != caller and
//     !AllowDerivative: rejected with ErrPermissionDenied.
func CreateMaster(img image.Image, caller uint64, flags Flags, cfg Config) (*image.NRGBA, error) {
	extracted, err := Extract(img, cfg)
	if err != nil {
		return nil, fmt.Errorf("watermark: create master: %w", err)
	}

	if extracted.Payload != nil {
		existing := extracted.Payload
		if existing.OriginalUID != caller && !existing.Flags.AllowDerivative() {
			return nil, ErrPermissionDenied
		}
	}

	newPayload := Payload{OriginalUID: caller, CurrentUID: 0, Flags: flags}
	out, err := Embed(img, newPayload, cfg)
	if err != nil {
		return nil, fmt.Errorf("watermark: create master: %w", err)
	}
	return out, nil
}

// MintDistribution extracts master's payload, requires it to be in
// master state, and re-embeds a new payload identical to it except for
// CurrentUID, which is set to holder. It never mutates master itself;
// the caller is responsible for writing the returned image wherever
// distributions are stored.
func MintDistribution(master image.Image, holder uint64, cfg Config) (*image.NRGBA, error) {
	existing, err := requireMaster(master, cfg, "mint distribution")
	if err != nil {
		return nil, err
	}

	newPayload := Payload{
		OriginalUID: existing.OriginalUID,
		CurrentUID:  holder,
		Flags:       existing.Flags,
	}
	out, err := Embed(master, newPayload, cfg)
	if err != nil {
		return nil, fmt.Errorf("watermark: mint distribution: %w", err)
	}
	return out, nil
}

// UpdateMasterFlags extracts master's payload, requires it to be in
// master state, and re-embeds a payload with identical identifiers and
// the new flags.
func UpdateMasterFlags(master image.Image, flags Flags, cfg Config) (*image.NRGBA, error) {
	existing, err := requireMaster(master, cfg, "update master flags")
	if err != nil {
		return nil, err
	}

	newPayload := Payload{OriginalUID: existing.OriginalUID, CurrentUID: 0, Flags: flags}
	out, err := Embed(master, newPayload, cfg)
	if err != nil {
		return nil, fmt.Errorf("watermark: update master flags: %w", err)
	}
	return out, nil
}

// requireMaster extracts img's payload and returns it only if
// extraction succeeded and the payload is in master state, wrapping
// ErrUnrecoverable or ErrNotAMaster with op for context otherwise.
func requireMaster(img image.Image, cfg Config, op string) (*Payload, error) {
	extracted, err := Extract(img, cfg)
	if err != nil {
		return nil, fmt.Errorf("watermark: %s: %w", op, err)
	}
	if extracted.Payload == nil {
		return nil, fmt.Errorf("watermark: %s: %w", op, ErrUnrecoverable)
	}
	if !extracted.Payload.IsMaster() {
		return nil, fmt.Errorf("watermark: %s: %w", op, ErrNotAMaster)
	}
	return extracted.Payload, nil
}
