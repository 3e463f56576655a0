// Package rng provides the seeded random streams used for multi-start draws
// and synthetic data.
package rng

import (
	"context"
	"math/rand"

	"goreplicate/ports"
)

// Adapter implements ports.RNGPort. Every stream is derived from the
// stream name and the base seed only, so draws do not depend on the order
// in which streams are requested.
type Adapter struct{}

// New returns a stream adapter
func New() *Adapter {
	return &Adapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(StreamSeed(name, seed))), nil
}

// StreamSeed combines the base seed with a djb2 hash of the stream name.
func StreamSeed(name string, seed int64) int64 {
	if name == "" {
		return seed
	}
	return int64(hashString(name)) + seed
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2
	}
	return hash
}

var _ ports.RNGPort = (*Adapter)(nil)
