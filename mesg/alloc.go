package mesg

import (
	"github.com/avsm/capnwire/errs"
)

// maxAllocBytes bounds a single allocation. Object payloads are limited to
// well under this by the pointer encoding; anything larger is corruption or
// a caller bug.
const maxAllocBytes = 1 << 30

func roundWordBytes(nbytes uint32) uint32 {
	return (nbytes + WordSize - 1) &^ (WordSize - 1)
}

// Alloc allocates nbytes (rounded up to a multiple of 8) from the last
// segment's reserve, returning a zero-filled writable slice.
//
// When the last segment has no room, a fresh segment sized
// max(nbytes, defaultSegmentWords*8) is appended and the allocation lands
// there. Existing segments never move or resize, so previously returned
// slices stay valid.
func (b *MessageBuilder) Alloc(nbytes uint32) (MutSlice, error) {
	if nbytes > maxAllocBytes {
		return MutSlice{}, errs.InvalidMessagef("allocation of %d bytes exceeds limit", nbytes)
	}
	n := roundWordBytes(nbytes)

	last := uint32(len(b.segments) - 1)
	if s, ok := b.allocIn(last, n); ok {
		return s, nil
	}

	segBytes := b.defaultWords * WordSize
	if n > segBytes {
		segBytes = n
	}
	b.segments = append(b.segments, &segment{data: make([]byte, segBytes)})

	s, ok := b.allocIn(uint32(len(b.segments)-1), n)
	if !ok {
		panic("capnwire: fresh segment cannot satisfy its own allocation")
	}

	return s, nil
}

// AllocInSegment allocates nbytes (rounded up to a multiple of 8) from the
// identified segment only.
//
// It reports false, without allocating, when the segment's reserve is too
// small. Callers use this to decide between a landing pad in the content
// segment (single far pointer) and a double-far pad elsewhere.
func (b *MessageBuilder) AllocInSegment(seg uint32, nbytes uint32) (MutSlice, bool) {
	if seg >= uint32(len(b.segments)) || nbytes > maxAllocBytes {
		return MutSlice{}, false
	}

	return b.allocIn(seg, roundWordBytes(nbytes))
}

func (b *MessageBuilder) allocIn(seg uint32, n uint32) (MutSlice, bool) {
	s := b.segments[seg]
	if uint64(s.used)+uint64(n) > uint64(len(s.data)) {
		return MutSlice{}, false
	}
	start := s.used
	s.used += n

	return MutSlice{
		Slice: Slice{m: b, seg: seg, start: start, length: n},
		b:     b,
	}, true
}
