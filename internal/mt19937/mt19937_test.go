// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package mt19937

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewDeterministic verifies that two Sources built from the same
// seed produce an identical output stream, which is the property the
// whole watermark format's reproducibility depends on.
func TestNewDeterministic(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	a := New(12345)
	b := New(12345)

	for i := 0; i < 1000; i++ {
		is.Equal(a.nextUint32(), b.nextUint32(), "stream %d diverged", i)
	}
}

// TestNewDifferentSeedsDiverge is a coarse sanity check that distinct
// seeds do not produce the same stream, which the package's
// key-sensitivity guarantee rests on at a higher level.
func TestNewDifferentSeedsDiverge(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	a := New(1)
	b := New(2)

	same := true
	for i := 0; i < 16; i++ {
		if a.nextUint32() != b.nextUint32() {
			same = false
			break
		}
	}
	is.False(same, "streams from different seeds should diverge within 16 draws")
}

// TestShuffleIsPermutation ensures Shuffle never drops or duplicates
// elements, only reorders them.
func TestShuffleIsPermutation(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	x := make([]int, 300)
	for i := range x {
		x[i] = i
	}

	New(7).Shuffle(x)

	seen := make(map[int]bool, len(x))
	for _, v := range x {
		is.False(seen[v], "value %d seen twice after shuffle", v)
		seen[v] = true
	}
	is.Len(seen, 300)
}

// TestShuffleDeterministic ensures the same seed reproduces the same
// permutation, which embedding and extraction both depend on.
func TestShuffleDeterministic(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	mk := func() []int {
		x := make([]int, 64)
		for i := range x {
			x[i] = i
		}
		return x
	}

	a := mk()
	b := mk()
	New(99).Shuffle(a)
	New(99).Shuffle(b)

	is.Equal(a, b)
}

// TestRandIntBounds checks that RandInt never returns a value outside
// [0, bound).
func TestRandIntBounds(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	s := New(42)
	for i := 0; i < 10000; i++ {
		v := s.RandInt(7)
		is.GreaterOrEqual(v, 0)
		is.Less(v, 7)
	}
}

// TestRandIntPanicsOnNonPositiveBound documents that RandInt requires a
// positive bound, matching the 7-entry position table it is always
// called with in this format.
func TestRandIntPanicsOnNonPositiveBound(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	is.Panics(func() {
		New(1).RandInt(0)
	})
}

// TestSourceMatchesNumPyGoldenVector cross-validates New's raw tempered
// output against the published MT19937 reference vector for seed 5489
// (Matsumoto & Nishimura's mt19937ar.c demo output, reproduced
// bit-for-bit by numpy.random.RandomState(5489) since NumPy's
// integer-seed path, mt19937_seed, is the same init_genrand recurrence
// New implements — unlike the array-seed path, which runs init_by_array
// and is not exercised here). A bound of 1<<32 drives boundedUint32's
// mask to all-ones, so every draw returns the raw tempered word
// unmodified; this isolates seeding, twist, and tempering from the
// mask-and-reject logic the other tests already cover.
func TestSourceMatchesNumPyGoldenVector(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	want := []uint32{
		3499211612, 581869302, 3890346734, 3586334585, 545404204,
		4161255391, 3922919429, 949333985, 2715962298, 1323567403,
	}

	s := New(5489)
	for i, w := range want {
		got := s.RandInt(1 << 32)
		is.Equal(int(w), got, "raw word %d diverged from NumPy reference", i)
	}
}
