package room

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
)

// shuffle performs the classical Fisher-Yates shuffle in place, using a
// ChaCha8 stream RNG. When seed is non-nil the RNG is deterministically
// derived from it, so the same seed and the same player-join order
// reproduce the same turn_order across runs (§4.2, §9).
func shuffle(ids []string, seed *uint64) {
	var key [32]byte
	if seed != nil {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], *seed)
		for i := 0; i < len(key); i += 8 {
			copy(key[i:], buf[:])
		}
	} else {
		if _, err := rand.Read(key[:]); err != nil {
			// crypto/rand.Read on a fixed-size buffer only fails if the OS
			// entropy source itself is broken; there is no sane fallback.
			panic("room: failed to read OS entropy for turn-order shuffle: " + err.Error())
		}
	}

	rng := mrand.New(mrand.NewChaCha8(key))
	for i := len(ids) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}
