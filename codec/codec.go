// Package codec implements the page-level byte encodings shared by every
// B-tree node: big-endian fixed-width integers, node-origin placement
// within a page, and a standalone variable-length varint32 codec that no
// node or cell code calls (cell fields are fixed 4-byte integers).
package codec

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrVarintTooShort is returned when a buffer is too small to hold a
// complete varint32.
var ErrVarintTooShort = errors.New("codec: buffer too short for varint32")

// ReadU16BE reads a big-endian uint16 from the first two bytes of b.
func ReadU16BE(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// WriteU16BE writes v as a big-endian uint16 into the first two bytes of b.
func WriteU16BE(b []byte, v uint16) {
	binary.BigEndian.PutUint16(b, v)
}

// ReadU32BE reads a big-endian uint32 from the first four bytes of b.
func ReadU32BE(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

// WriteU32BE writes v as a big-endian uint32 into the first four bytes of b.
func WriteU32BE(b []byte, v uint32) {
	binary.BigEndian.PutUint32(b, v)
}

// VarintLen32 returns the number of bytes WriteVarint32 would use to encode v.
func VarintLen32(v uint32) int {
	switch {
	case v < 1<<7:
		return 1
	case v < 1<<14:
		return 2
	case v < 1<<21:
		return 3
	case v < 1<<28:
		return 4
	default:
		return 5
	}
}

// ReadVarint32 decodes a one-to-five-byte MSB-continuation varint from b,
// returning the value and the number of bytes consumed. Each of the first
// four bytes contributes 7 bits, high bit set meaning "more follows"; if
// all four set their continuation bit, a fifth byte contributes its full 8
// bits. This is the general L1 codec contract of the file format; it is
// capped at five bytes because every value it is asked to carry fits in 32
// bits.
func ReadVarint32(b []byte) (uint32, int, error) {
	var acc uint32
	for i := 0; i < 4; i++ {
		if i >= len(b) {
			return 0, 0, ErrVarintTooShort
		}
		c := b[i]
		acc = (acc << 7) | uint32(c&0x7f)
		if c&0x80 == 0 {
			return acc, i + 1, nil
		}
	}
	if len(b) < 5 {
		return 0, 0, ErrVarintTooShort
	}
	acc = (acc << 8) | uint32(b[4])
	return acc, 5, nil
}

// WriteVarint32 encodes v into b using the minimal number of bytes and
// returns that count. b must have enough room for VarintLen32(v) bytes.
func WriteVarint32(b []byte, v uint32) (int, error) {
	n := VarintLen32(v)
	if len(b) < n {
		return 0, ErrVarintTooShort
	}
	if n < 5 {
		for i := 0; i < n; i++ {
			shift := uint(7 * (n - 1 - i))
			c := byte((v >> shift) & 0x7f)
			if i != n-1 {
				c |= 0x80
			}
			b[i] = c
		}
		return n, nil
	}
	top := v >> 8
	b[0] = byte((top>>21)&0x7f) | 0x80
	b[1] = byte((top>>14)&0x7f) | 0x80
	b[2] = byte((top>>7)&0x7f) | 0x80
	b[3] = byte(top&0x7f) | 0x80
	b[4] = byte(v)
	return 5, nil
}

// HeaderSize is the width of the database header occupying the start of page 1.
const HeaderSize = 100

// NodeOrigin returns the byte offset within a page at which a node's header
// begins: 100 for page 1 (past the database header), 0 for every other page.
func NodeOrigin(pageNo uint32) int {
	if pageNo == 1 {
		return HeaderSize
	}
	return 0
}
