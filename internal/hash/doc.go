// Package hash provides the hashing primitives used across permgo.
//
// # Coordinate hashing
//
// Lattice vertices are keyed by small signed integer vectors. Coords uses the
// classic multiplicative permutohedral hash, which disperses the narrow value
// range of simplex coordinates well and is cheap enough to recompute per
// probe. Collisions are expected and resolved by the caller through full
// coordinate comparison; the hash is a routing hint, never an identity.
//
// # CRC32-Castagnoli (CRC32C)
//
// Tensor frames written by the codec package carry a CRC32C checksum.
// CRC32C is hardware accelerated on x86 (SSE4.2) and ARM (CRC extension) and
// is the industry standard for storage framing (iSCSI, RocksDB, LevelDB).
package hash
