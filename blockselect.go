// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package watermark

import (
	"sort"

	"github.com/sgp-io/watermark/internal/mt19937"
	"github.com/sgp-io/watermark/internal/transform"
)

const (
	// minBlocks is the number of blocks a payload is spread across:
	// 256 bits × 5-fold redundancy.
	minBlocks = 1280

	// bufferPoolSize is the 2x buffer over minBlocks the variance
	// ranking draws from, absorbing rank churn near the pool boundary.
	bufferPoolSize = minBlocks * 2

	// redundancy is minBlocks / 256: the number of blocks carrying
	// each payload bit.
	redundancy = minBlocks / 256
)

// midFrequencyPositions is the fixed table of seven mid-frequency DCT
// coefficient coordinates the QIM modulator picks from, one per block.
var midFrequencyPositions = [7][2]int{
	{2, 1}, {1, 2}, {2, 2}, {3, 1}, {1, 3}, {3, 2}, {2, 3},
}

// BlockCoord identifies an 8x8 block's position in a subband's block
// grid, in (row, col) units of blocks, not pixels.
type BlockCoord struct {
	Row int
	Col int
}

type blockVariance struct {
	coord    BlockCoord
	variance float64
}

// selectBlockPool computes the coordinate-anchored buffer pool (B_pool)
// over hl's block grid: rank every full 8x8 block by descending sample
// variance (ties broken by row-major order), keep the top
// bufferPoolSize, then re-sort the survivors ascending by (row, col) so
// the downstream shuffle has a reproducible starting order.
func selectBlockPool(hl transform.Plane) []BlockCoord {
	rows := hl.Rows() / transform.BlockSize
	cols := hl.Cols() / transform.BlockSize

	candidates := make([]blockVariance, 0, rows*cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			candidates = append(candidates, blockVariance{
				coord:    BlockCoord{Row: row, Col: col},
				variance: blockSampleVariance(hl, row, col),
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.variance != b.variance {
			return a.variance > b.variance
		}
		if a.coord.Row != b.coord.Row {
			return a.coord.Row < b.coord.Row
		}
		return a.coord.Col < b.coord.Col
	})

	poolSize := bufferPoolSize
	if poolSize > len(candidates) {
		poolSize = len(candidates)
	}

	pool := make([]BlockCoord, poolSize)
	for i := 0; i < poolSize; i++ {
		pool[i] = candidates[i].coord
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].Row != pool[j].Row {
			return pool[i].Row < pool[j].Row
		}
		return pool[i].Col < pool[j].Col
	})

	return pool
}

// blockSampleVariance computes the population variance of the 64
// samples in the 8x8 block at (blockRow, blockCol) of hl.
func blockSampleVariance(hl transform.Plane, blockRow, blockCol int) float64 {
	size := transform.BlockSize
	startRow := blockRow * size
	startCol := blockCol * size

	sum := 0.0
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			sum += hl[startRow+i][startCol+j]
		}
	}
	mean := sum / float64(size*size)

	variance := 0.0
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			d := hl[startRow+i][startCol+j] - mean
			variance += d * d
		}
	}
	return variance / float64(size*size)
}

// embedSequence pairs the ordered block coordinates a payload is
// written into with the mid-frequency position index drawn for each
// one. Embed and Extract both call selectEmbedSequence to rebuild this
// exact sequence from (hl, key, width, height) alone.
type embedSequence struct {
	blocks    []BlockCoord
	positions []int
}

// selectEmbedSequence rebuilds the block selection, shuffle, and
// per-block position draw: build the candidate pool, seed the RNG from
// (key, width, height), Fisher-Yates shuffle the pool in place, take
// the first minBlocks coordinates as the embed set, then draw one
// position index in [0, 7) per embedded block. Embed and Extract both
// call this so their sequences can never drift apart.
func selectEmbedSequence(hl transform.Plane, key string, width, height int) embedSequence {
	pool := selectBlockPool(hl)

	src := mt19937.New(seedFor(key, width, height))
	src.ShuffleN(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	n := minBlocks
	if n > len(pool) {
		n = len(pool)
	}
	blocks := append([]BlockCoord(nil), pool[:n]...)

	positions := make([]int, n)
	for i := range positions {
		positions[i] = src.RandInt(7)
	}

	return embedSequence{blocks: blocks, positions: positions}
}
