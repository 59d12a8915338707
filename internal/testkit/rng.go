package testkit

import (
	"context"
	"math/rand/v2"
)

// RNGAdapter implements ports.RNGPort with PCG streams
type RNGAdapter struct{}

// NewRNGAdapter creates an RNG adapter
func NewRNGAdapter() *RNGAdapter {
	return &RNGAdapter{}
}

// SeededStream creates a deterministic random number generator for a named
// operation. The same (name, seed) pair always yields the same stream, and
// different names under one seed yield independent streams.
func (r *RNGAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewRand(name, seed), nil
}

// NewRand is SeededStream without the port plumbing, for tests and fixtures
func NewRand(name string, seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(hashString(name))))
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2
	}
	return hash
}
