package engine

import "math/rand"

// RNG wraps math/rand.Rand with deterministic position tracking.
// Position increments with every draw so a saved game replays the same
// random branches after load. A single draw may take more than one value
// from the source (Intn rejects values that would bias the result), so the
// source's own count is what a restore replays.
type RNG struct {
	seed int64
	cs   *countingSource
	src  *rand.Rand
	pos  int64
}

// countingSource counts the values taken from the underlying source.
type countingSource struct {
	src rand.Source64
	n   int64
}

func (s *countingSource) Int63() int64 {
	s.n++
	return s.src.Int63()
}

func (s *countingSource) Uint64() uint64 {
	s.n++
	return s.src.Uint64()
}

func (s *countingSource) Seed(seed int64) {
	s.src.Seed(seed)
	s.n = 0
}

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	cs := &countingSource{src: rand.NewSource(seed).(rand.Source64)}
	return &RNG{
		seed: seed,
		cs:   cs,
		src:  rand.New(cs),
	}
}

// Roll returns a random integer in [1, sides].
func (r *RNG) Roll(sides int) int {
	r.pos++
	return r.src.Intn(sides) + 1
}

// Pick returns a uniformly chosen index in [0, n).
func (r *RNG) Pick(n int) int {
	return r.Roll(n) - 1
}

// Chance returns true with the given percent probability. Percentages at
// or above 100 always succeed and at or below 0 always fail; a draw is
// consumed either way so replay positions do not depend on the outcome.
func (r *RNG) Chance(percent int) bool {
	return r.Roll(100) <= percent
}

// WeightedSelect returns an index chosen by weighted random selection.
// weights must be non-empty with all positive values.
func (r *RNG) WeightedSelect(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	r.pos++
	roll := r.src.Intn(total)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// Seed returns the seed the RNG was created from.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of draws made since creation.
func (r *RNG) Position() int64 {
	return r.pos
}

// Draws returns the number of values taken from the source since creation.
func (r *RNG) Draws() int64 {
	return r.cs.n
}

// RestoreRNG creates an RNG at the given position by replaying draws source
// values. Saves that predate draw counting carry draws == 0 and replay one
// value per position.
func RestoreRNG(seed, position, draws int64) *RNG {
	rng := NewRNG(seed)
	if draws <= 0 {
		draws = position
	}
	for i := int64(0); i < draws; i++ {
		rng.cs.Int63()
	}
	rng.pos = position
	return rng
}
