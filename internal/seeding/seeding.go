// Package seeding derives independent, reproducible RNG streams for
// simulation trials from a single master seed. Sub-seeds are pre-derived
// from the trial index alone, so dispatch order (sequential or
// parallel) never affects which stream a given trial draws from.
package seeding

import "math/rand/v2"

// ForTrial returns a fresh RNG for the given trial index, deterministic
// given masterSeed. PCG is a counter-based generator: seeding it with
// (masterSeed, trial) directly, rather than drawing trial seeds from a
// shared stream, is what makes pre-dispatch derivation possible.
func ForTrial(masterSeed uint64, trial int) *rand.Rand {
	return rand.New(rand.NewPCG(masterSeed, uint64(trial)))
}

// ForPeer derives a peer-specific stream within a trial, so that a
// cohort's sampled peers don't all draw from one shared source and
// remain reproducible independent of how many peers precede them in the
// build order.
// The fixed salt keeps every peer stream distinct from every ForTrial
// stream of the same master seed.
func ForPeer(masterSeed uint64, trial int, peer int) *rand.Rand {
	const peerSalt = 0x9e3779b97f4a7c15
	return rand.New(rand.NewPCG(masterSeed^uint64(trial)<<32^peerSalt, uint64(peer)))
}
