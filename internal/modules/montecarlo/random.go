package montecarlo

import (
	"encoding/binary"
	"math/rand/v2"
	"time"
)

// NewSource returns a deterministic PCG source for seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, 0)
}

// NewStream returns the source for one of many independent streams sharing a
// seed. Each (seed, stream) pair keys its own ChaCha8 generator, so workers
// can own a stream each without coordinating.
func NewStream(seed, stream uint64) rand.Source {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[0:8], seed)
	binary.LittleEndian.PutUint64(key[8:16], stream)
	return rand.NewChaCha8(key)
}

// TimeSeed returns a non-zero seed derived from the wall clock.
func TimeSeed() uint64 {
	seed := uint64(time.Now().UnixNano())
	if seed == 0 {
		seed = 1
	}
	return seed
}
