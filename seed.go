// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package watermark

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// seedFor derives the 32-bit Mersenne Twister seed for a given key and
// image dimensions: the first four bytes, big-endian, of
// SHA-256("{key}_{width}_{height}"). This lives here rather than in
// internal/mt19937 because it is a format concern (the exact string to
// hash) layered on top of a general-purpose RNG, not part of the RNG
// itself.
func seedFor(key string, width, height int) uint32 {
	digest := sha256.Sum256([]byte(fmt.Sprintf("%s_%d_%d", key, width, height)))
	return binary.BigEndian.Uint32(digest[:4])
}
