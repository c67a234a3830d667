package signal

import (
	"math/rand/v2"
	"time"
)

// Rand is the source of the random gap and direction draws.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	// IntN returns a uniform integer in [0, n).
	IntN(n int) int
}

// NewRand returns a deterministic source for the given seed.
// A zero seed draws one from the wall clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Gap draws a spacing in [MinGap, MaxGap] minutes.
func Gap(rnd Rand) int {
	return MinGap + rnd.IntN(MaxGap-MinGap+1)
}

// drawDirection picks CALL or PUT with equal probability.
func drawDirection(rnd Rand) bool {
	return rnd.IntN(2) == 0
}
