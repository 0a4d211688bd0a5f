// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Records iterates in ascending key order regardless of insertion order.
func TestCollectionRecordsOrdered(t *testing.T) {
	c := NewCollection()
	for _, seq := range []int32{4, 1, 7, 2} {
		c.Put(newTestRecord(seq))
	}

	if diff := cmp.Diff(recordsFor(1, 2, 4, 7), c.Records()); diff != "" {
		t.Fatalf("Records() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int32{1, 2, 4, 7}, c.Keys())
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, int32(7), c.Max())
}

// Put overwrites an existing key.
func TestCollectionPutOverwrites(t *testing.T) {
	c := NewCollection()
	c.Put(NewRecord("OLD", SideBuy, 1, 1, 3))
	c.Put(NewRecord("NEW", SideSell, 2, 2, 3))

	require.Equal(t, 1, c.Len())
	got, ok := c.Get(3)
	require.True(t, ok)
	assert.Equal(t, "NEW", got.SymbolString())
}

// An empty collection has Max 0 and renders as an empty, non-nil list.
func TestCollectionEmpty(t *testing.T) {
	c := NewCollection()

	assert.Equal(t, int32(0), c.Max())
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Has(1))
	_, ok := c.Get(1)
	assert.False(t, ok)

	records := c.Records()
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

// Max tracks the largest key, including negative-only collections.
func TestCollectionMax(t *testing.T) {
	c := NewCollection()
	c.Put(newTestRecord(-5))
	assert.Equal(t, int32(-5), c.Max())

	c.Put(newTestRecord(-9))
	assert.Equal(t, int32(-5), c.Max())

	c.Put(newTestRecord(3))
	assert.Equal(t, int32(3), c.Max())
}

// MissingSequences returns [1, max] minus the stored keys, ascending.
func TestMissingSequences(t *testing.T) {
	tests := []struct {
		// name describes what this test case verifies.
		name string

		// keys are the stored sequence numbers.
		keys []int32

		// want is the expected missing set.
		want []int32
	}{
		{name: "empty collection", keys: nil, want: nil},
		{name: "complete set", keys: []int32{1, 2, 3, 4, 5}, want: nil},
		{name: "single gap", keys: []int32{1, 2, 4}, want: []int32{3}},
		{name: "leading gaps", keys: []int32{5}, want: []int32{1, 2, 3, 4}},
		{name: "scattered gaps", keys: []int32{9, 2, 5, 1}, want: []int32{3, 4, 6, 7, 8}},
		{name: "only non positive keys", keys: []int32{0, -3}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollection()
			for _, seq := range tt.keys {
				c.Put(newTestRecord(seq))
			}
			got := MissingSequences(c)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// Inserting the missing keys closes every gap.
func TestMissingSequencesComplement(t *testing.T) {
	c := NewCollection()
	for _, seq := range []int32{1, 3, 6, 10} {
		c.Put(newTestRecord(seq))
	}
	for _, seq := range MissingSequences(c) {
		assert.False(t, c.Has(seq))
		c.Put(newTestRecord(seq))
	}
	assert.Empty(t, MissingSequences(c))
	assert.Equal(t, 10, c.Len())
}
