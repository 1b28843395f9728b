package hash

import "github.com/cespare/xxhash/v2"

// Sum64 computes the xxHash64 digest of a message's segments, in order.
//
// Two messages with identical segment contents and boundaries produce the
// same digest, so the value serves as a cheap content fingerprint for
// deduplication and cache keys.
func Sum64(segments [][]byte) uint64 {
	d := xxhash.New()
	for _, seg := range segments {
		_, _ = d.Write(seg)
	}

	return d.Sum64()
}

// Sum64Bytes computes the xxHash64 digest of a single byte slice.
func Sum64Bytes(data []byte) uint64 {
	return xxhash.Sum64(data)
}
