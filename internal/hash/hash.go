package hash

import (
	"hash"
	"hash/crc32"
)

// crc32cTable is pre-computed for CRC32-Castagnoli polynomial.
// Computing this once avoids repeated MakeTable calls.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
// Uses hardware acceleration when available (SSE4.2, ARM CRC).
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a new CRC32-Castagnoli hash.Hash32.
// Uses hardware acceleration when available.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}

// coordPrime is the multiplier of the classic permutohedral coordinate hash.
// Chosen for good dispersion of small signed integer keys.
const coordPrime = 2531011

// Coords hashes an integer lattice coordinate vector.
//
// The input is the full (pd+1)-length key of a lattice vertex. Since the
// coordinates sum to zero, the last entry carries no extra information, but
// hashing it is harmless and keeps callers simple.
func Coords(key []int16) uint64 {
	var h uint64
	for _, k := range key {
		h += uint64(uint16(k))
		h *= coordPrime
	}
	return h
}
