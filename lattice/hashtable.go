package lattice

import (
	"math/bits"

	"github.com/hupe1980/permgo/internal/hash"
)

// emptySlot marks an unoccupied probe position in the index.
const emptySlot = -1

// hashTable maps integer lattice coordinates to dense vertex slots.
//
// The index is an open-addressing table with linear probing; collisions are
// resolved by full coordinate comparison, never by hash equality alone.
// Vertex records live in two flat slabs addressed by slot number: keys
// (filled*kd int16 coordinates) and values (filled*stride float32
// accumulators). Dense slots keep the blur pass cache-friendly and avoid
// per-vertex heap allocation.
type hashTable struct {
	kd     int // key length, pd+1
	stride int // accumulator channels per vertex, vd+1

	capacity int // power of two
	mask     uint64
	index    []int32 // capacity entries, emptySlot or slot number

	keys   []int16
	values []float32
	filled int
}

// newHashTable creates a table sized for capacityHint vertices.
// The index is kept under 3/4 load so probe chains stay short.
func newHashTable(kd, stride, capacityHint int) *hashTable {
	if capacityHint < 16 {
		capacityHint = 16
	}

	// Smallest power of two holding the hint below 3/4 load.
	capacity := 1 << bits.Len(uint(capacityHint*4/3))

	t := &hashTable{
		kd:       kd,
		stride:   stride,
		capacity: capacity,
		mask:     uint64(capacity - 1),
		index:    make([]int32, capacity),
		keys:     make([]int16, 0, capacityHint*kd),
		values:   make([]float32, 0, capacityHint*stride),
	}
	for i := range t.index {
		t.index[i] = emptySlot
	}

	return t
}

// findOrCreate returns the slot for key, inserting a zeroed vertex if the
// key is not present yet.
func (t *hashTable) findOrCreate(key []int16) int {
	h := hash.Coords(key) & t.mask
	for {
		slot := t.index[h]
		if slot == emptySlot {
			return t.insert(h, key)
		}
		if t.keyEqual(int(slot), key) {
			return int(slot)
		}
		h = (h + 1) & t.mask
	}
}

// find returns the slot for key, or false if the key was never splatted.
// It is a pure lookup and never mutates the table.
func (t *hashTable) find(key []int16) (int, bool) {
	h := hash.Coords(key) & t.mask
	for {
		slot := t.index[h]
		if slot == emptySlot {
			return 0, false
		}
		if t.keyEqual(int(slot), key) {
			return int(slot), true
		}
		h = (h + 1) & t.mask
	}
}

func (t *hashTable) insert(h uint64, key []int16) int {
	slot := t.filled
	t.index[h] = int32(slot)
	t.keys = append(t.keys, key...)
	for i := 0; i < t.stride; i++ {
		t.values = append(t.values, 0)
	}
	t.filled++

	if t.filled*4 >= t.capacity*3 {
		t.grow()
	}

	return slot
}

// grow doubles the index and reinserts all keys. Vertex slabs are untouched;
// slot numbers remain stable across growth.
func (t *hashTable) grow() {
	t.capacity *= 2
	t.mask = uint64(t.capacity - 1)
	t.index = make([]int32, t.capacity)
	for i := range t.index {
		t.index[i] = emptySlot
	}

	for slot := 0; slot < t.filled; slot++ {
		h := hash.Coords(t.key(slot)) & t.mask
		for t.index[h] != emptySlot {
			h = (h + 1) & t.mask
		}
		t.index[h] = int32(slot)
	}
}

func (t *hashTable) keyEqual(slot int, key []int16) bool {
	stored := t.keys[slot*t.kd : slot*t.kd+t.kd]
	for i, k := range key {
		if stored[i] != k {
			return false
		}
	}
	return true
}

// key returns the coordinate vector of a slot. The slice aliases table
// storage and must not be mutated.
func (t *hashTable) key(slot int) []int16 {
	return t.keys[slot*t.kd : slot*t.kd+t.kd]
}

// value returns the accumulator of a slot. The slice aliases table storage.
func (t *hashTable) value(slot int) []float32 {
	return t.values[slot*t.stride : slot*t.stride+t.stride]
}
