// Package rangeintern provides a shared, concurrency-safe intern table for
// source ranges. Analyzers and resolvers produce large numbers of
// structurally identical ranges (the same call-site token, the same
// definition header); interning collapses these to one allocation per
// distinct value so a ConsolidatedRelationship can carry a Range by value
// without repeated heap pressure.
package rangeintern

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Range is a half-open byte span plus its line/column projection, all
// zero-based. Two Ranges are equal, and intern to the same value, when
// every field matches.
type Range struct {
	StartByte uint32
	EndByte   uint32
	StartLine uint32
	StartCol  uint32
	EndLine   uint32
	EndCol    uint32
}

// Empty is the canonical zero range, used when an attribute has no
// applicable source location (e.g. FileDefines edges, whose source is the
// file itself rather than a token).
var Empty = Range{}

// IsEmpty reports whether r is the canonical empty range.
func (r Range) IsEmpty() bool {
	return r == Empty
}

func (r Range) hash() uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint32(buf[0:4], r.StartByte)
	binary.LittleEndian.PutUint32(buf[4:8], r.EndByte)
	binary.LittleEndian.PutUint32(buf[8:12], r.StartLine)
	binary.LittleEndian.PutUint32(buf[12:16], r.StartCol)
	binary.LittleEndian.PutUint32(buf[16:20], r.EndLine)
	binary.LittleEndian.PutUint32(buf[20:24], r.EndCol)
	return xxhash.Sum64(buf[:])
}
