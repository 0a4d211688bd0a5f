// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"maps"
	"slices"
)

// Collection holds records keyed by sequence number.
//
// Inserting an existing key overwrites the previous record. Records are
// never removed. Iteration order is ascending by key regardless of the
// insertion order. The zero value is not usable; call [NewCollection].
type Collection struct {
	records map[int32]Record
	max     int32
}

// NewCollection returns an empty [*Collection].
func NewCollection() *Collection {
	return &Collection{records: make(map[int32]Record)}
}

// Put stores r under its own sequence number.
func (c *Collection) Put(r Record) {
	c.records[r.Sequence] = r
	if len(c.records) == 1 || r.Sequence > c.max {
		c.max = r.Sequence
	}
}

// Get returns the record stored under seq, if any.
func (c *Collection) Get(seq int32) (Record, bool) {
	r, ok := c.records[seq]
	return r, ok
}

// Has returns whether a record is stored under seq.
func (c *Collection) Has(seq int32) bool {
	_, ok := c.records[seq]
	return ok
}

// Len returns the number of stored records.
func (c *Collection) Len() int {
	return len(c.records)
}

// Max returns the largest stored sequence number, or 0 when empty.
func (c *Collection) Max() int32 {
	if len(c.records) == 0 {
		return 0
	}
	return c.max
}

// Keys returns the stored sequence numbers in ascending order.
func (c *Collection) Keys() []int32 {
	return slices.Sorted(maps.Keys(c.records))
}

// Records returns the stored records in ascending sequence order.
//
// The result is never nil, so an empty collection renders as an empty
// list rather than as a missing one.
func (c *Collection) Records() []Record {
	out := make([]Record, 0, len(c.records))
	for _, seq := range c.Keys() {
		out = append(out, c.records[seq])
	}
	return out
}

// MissingSequences returns, in ascending order, every i in [1, c.Max()]
// with no record in c.
func MissingSequences(c *Collection) []int32 {
	var missing []int32
	for seq := int64(1); seq <= int64(c.Max()); seq++ {
		if !c.Has(int32(seq)) {
			missing = append(missing, int32(seq))
		}
	}
	return missing
}
