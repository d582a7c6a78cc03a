// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tlv

import "bytes"

// Cache remembers the last value sent for each record type, so a
// publisher can omit unchanged fields from most packets and send a full
// dump only periodically.
type Cache struct {
	length [256]int
	value  [256][]byte
}

// NewCache returns an empty Cache; the first Compact call with force
// false will still emit every record, since nothing has been seen yet.
func NewCache() *Cache { return &Cache{} }

// Compact rewrites records into a packet consisting of lead (the
// command/response byte), only the records that changed since the last
// call (or all of them if force is true), and a terminating EOL.
func (c *Cache) Compact(lead byte, records []Record, force bool) []byte {
	buf := make([]byte, 0, 2+len(records)*4)
	buf = append(buf, lead)
	for _, r := range records {
		idx := r.Type
		if force || c.length[idx] != len(r.Value) || !bytes.Equal(c.value[idx], r.Value) {
			c.length[idx] = len(r.Value)
			c.value[idx] = append([]byte(nil), r.Value...)
			buf = append(buf, byte(r.Type), byte(len(r.Value)))
			buf = append(buf, r.Value...)
		}
	}
	buf = append(buf, byte(EOL))
	return buf
}

// Reset clears the cache so the next Compact call resends every record
// regardless of force, as if starting fresh.
func (c *Cache) Reset() {
	for i := range c.length {
		c.length[i] = 0
		c.value[i] = nil
	}
}
