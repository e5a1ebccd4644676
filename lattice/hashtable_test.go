package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashTableFindOrCreate(t *testing.T) {
	ht := newHashTable(3, 2, 16)

	a := ht.findOrCreate([]int16{1, 0, -1})
	b := ht.findOrCreate([]int16{2, -1, -1})
	assert.NotEqual(t, a, b)

	// Same coordinate resolves to the same slot.
	assert.Equal(t, a, ht.findOrCreate([]int16{1, 0, -1}))
	assert.Equal(t, 2, ht.filled)
}

func TestHashTableFindIsPure(t *testing.T) {
	ht := newHashTable(3, 2, 16)
	ht.findOrCreate([]int16{1, 0, -1})

	_, ok := ht.find([]int16{5, -5, 0})
	assert.False(t, ok)
	assert.Equal(t, 1, ht.filled, "find must not insert")

	slot, ok := ht.find([]int16{1, 0, -1})
	assert.True(t, ok)
	assert.Equal(t, 0, slot)
}

func TestHashTableAccumulators(t *testing.T) {
	ht := newHashTable(2, 3, 16)

	slot := ht.findOrCreate([]int16{4, -4})
	acc := ht.value(slot)
	require.Len(t, acc, 3)

	acc[0] += 1.5
	acc[2] += 0.5

	// Accumulators alias table storage.
	again := ht.value(slot)
	assert.InDelta(t, 1.5, again[0], 1e-6)
	assert.InDelta(t, 0.5, again[2], 1e-6)
}

func TestHashTableGrowth(t *testing.T) {
	// Start far below the number of inserted keys to force several
	// doublings, then verify every key still resolves to its slot.
	ht := newHashTable(3, 1, 4)
	initial := ht.capacity

	type entry struct {
		key  []int16
		slot int
	}
	var entries []entry

	for a := int16(-15); a <= 15; a++ {
		for b := int16(-15); b <= 15; b++ {
			key := []int16{a, b, -a - b}
			slot := ht.findOrCreate(key)
			entries = append(entries, entry{key: append([]int16(nil), key...), slot: slot})
		}
	}

	assert.Greater(t, ht.capacity, initial)
	assert.Equal(t, len(entries), ht.filled)

	for _, e := range entries {
		slot, ok := ht.find(e.key)
		require.True(t, ok, "key %v lost after growth", e.key)
		assert.Equal(t, e.slot, slot, "slot moved for key %v", e.key)
	}
}

func TestHashTableKeyCopyOnInsert(t *testing.T) {
	ht := newHashTable(2, 1, 16)

	scratch := []int16{7, -7}
	slot := ht.findOrCreate(scratch)

	// Mutating caller scratch must not corrupt the stored key.
	scratch[0] = 99
	got, ok := ht.find([]int16{7, -7})
	assert.True(t, ok)
	assert.Equal(t, slot, got)
}
