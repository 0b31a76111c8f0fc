// Package codec provides the payload transport implementations: the
// time-rotating substitution codec, the RSA codec and the hash binding.
package codec

import "math"

// LCG parameters. These are a cross-implementation portability contract:
// every verifier rebuilding a rotation table must produce the exact same
// sequence for the same seed, so the constants, the 32-bit modulus and the
// truncation behavior may never change.
const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
	lcgModulus    = 1 << 32
)

// seededRandom is a linear-congruential generator with reproducible output
// across implementations. It drives table shuffles only and must never be
// used where real randomness matters.
type seededRandom struct {
	state uint32
}

// newSeededRandom truncates the seed to 32 bits, matching the unsigned
// shift used by verifier implementations.
func newSeededRandom(seed int64) *seededRandom {
	return &seededRandom{state: uint32(seed)}
}

// nextDouble advances the state and returns a value in [0, 1).
func (r *seededRandom) nextDouble() float64 {
	r.state = r.state*lcgMultiplier + lcgIncrement

	return float64(r.state) / float64(lcgModulus)
}

// nextInt returns a value in [0, n), truncating toward zero.
func (r *seededRandom) nextInt(n int) int {
	return int(math.Floor(r.nextDouble() * float64(n)))
}
