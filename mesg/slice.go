package mesg

import (
	"github.com/avsm/capnwire/endian"
	"github.com/avsm/capnwire/errs"
)

var engine = endian.Little()

// Slice is a bounds-checked window (message, segment, start, length) over
// segment bytes. Slices are cheap to copy and do not own storage; their
// validity lifetime is the message's.
//
// All multi-byte accessors use little-endian byte order. Every indexed
// access is checked against the slice bounds and fails with an
// ErrInvalidMessage-classified error rather than panicking, since a bad
// index usually means a corrupt pointer led us here.
type Slice struct {
	m      view
	seg    uint32
	start  uint32
	length uint32
}

func makeSlice(m view, seg, start, length uint32) (Slice, error) {
	data, err := m.segmentBytes(seg)
	if err != nil {
		return Slice{}, err
	}
	if uint64(start)+uint64(length) > uint64(len(data)) {
		return Slice{}, errs.ErrOutOfBounds
	}

	return Slice{m: m, seg: seg, start: start, length: length}, nil
}

// Len returns the slice length in bytes.
func (s Slice) Len() uint32 {
	return s.length
}

// SegmentID returns the id of the segment the slice windows.
func (s Slice) SegmentID() uint32 {
	return s.seg
}

// Start returns the slice's byte offset within its segment.
func (s Slice) Start() uint32 {
	return s.start
}

// Sub narrows the slice to the window [off, off+length).
func (s Slice) Sub(off, length uint32) (Slice, error) {
	if uint64(off)+uint64(length) > uint64(s.length) {
		return Slice{}, errs.ErrOutOfBounds
	}

	return Slice{m: s.m, seg: s.seg, start: s.start + off, length: length}, nil
}

// Sibling constructs a slice over any segment of the same message. It is the
// hop primitive used when following far pointers.
func (s Slice) Sibling(seg, start, length uint32) (Slice, error) {
	return makeSlice(s.m, seg, start, length)
}

// window resolves the backing bytes for [off, off+width).
func (s Slice) window(off, width uint32) ([]byte, error) {
	if uint64(off)+uint64(width) > uint64(s.length) {
		return nil, errs.ErrOutOfBounds
	}
	data, err := s.m.segmentBytes(s.seg)
	if err != nil {
		return nil, err
	}

	return data[s.start+off : s.start+off+width], nil
}

// Bytes returns the backing bytes of the whole slice.
//
// The result aliases message storage; callers must not modify it.
func (s Slice) Bytes() ([]byte, error) {
	return s.window(0, s.length)
}

func (s Slice) Uint8(off uint32) (uint8, error) {
	b, err := s.window(off, 1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (s Slice) Uint16(off uint32) (uint16, error) {
	b, err := s.window(off, 2)
	if err != nil {
		return 0, err
	}

	return engine.Uint16(b), nil
}

func (s Slice) Uint32(off uint32) (uint32, error) {
	b, err := s.window(off, 4)
	if err != nil {
		return 0, err
	}

	return engine.Uint32(b), nil
}

func (s Slice) Uint64(off uint32) (uint64, error) {
	b, err := s.window(off, 8)
	if err != nil {
		return 0, err
	}

	return engine.Uint64(b), nil
}

func (s Slice) Int8(off uint32) (int8, error) {
	v, err := s.Uint8(off)
	return int8(v), err
}

func (s Slice) Int16(off uint32) (int16, error) {
	v, err := s.Uint16(off)
	return int16(v), err
}

func (s Slice) Int32(off uint32) (int32, error) {
	v, err := s.Uint32(off)
	return int32(v), err
}

func (s Slice) Int64(off uint32) (int64, error) {
	v, err := s.Uint64(off)
	return int64(v), err
}

// MutSlice is a Slice whose storage is owned by a MessageBuilder. It adds
// the mutating accessors; everything read-only is inherited from Slice.
type MutSlice struct {
	Slice
	b *MessageBuilder
}

// Builder returns the builder owning the slice's storage.
func (s MutSlice) Builder() *MessageBuilder {
	return s.b
}

// Sub narrows the slice, preserving writability.
func (s MutSlice) Sub(off, length uint32) (MutSlice, error) {
	sub, err := s.Slice.Sub(off, length)
	if err != nil {
		return MutSlice{}, err
	}

	return MutSlice{Slice: sub, b: s.b}, nil
}

// Sibling constructs a writable slice over any segment of the same builder.
func (s MutSlice) Sibling(seg, start, length uint32) (MutSlice, error) {
	sib, err := s.Slice.Sibling(seg, start, length)
	if err != nil {
		return MutSlice{}, err
	}

	return MutSlice{Slice: sib, b: s.b}, nil
}

// mutWindow resolves writable backing bytes for [off, off+width).
func (s MutSlice) mutWindow(off, width uint32) ([]byte, error) {
	return s.window(off, width)
}

func (s MutSlice) SetUint8(off uint32, v uint8) error {
	b, err := s.mutWindow(off, 1)
	if err != nil {
		return err
	}
	b[0] = v

	return nil
}

func (s MutSlice) SetUint16(off uint32, v uint16) error {
	b, err := s.mutWindow(off, 2)
	if err != nil {
		return err
	}
	engine.PutUint16(b, v)

	return nil
}

func (s MutSlice) SetUint32(off uint32, v uint32) error {
	b, err := s.mutWindow(off, 4)
	if err != nil {
		return err
	}
	engine.PutUint32(b, v)

	return nil
}

func (s MutSlice) SetUint64(off uint32, v uint64) error {
	b, err := s.mutWindow(off, 8)
	if err != nil {
		return err
	}
	engine.PutUint64(b, v)

	return nil
}

func (s MutSlice) SetInt8(off uint32, v int8) error {
	return s.SetUint8(off, uint8(v))
}

func (s MutSlice) SetInt16(off uint32, v int16) error {
	return s.SetUint16(off, uint16(v))
}

func (s MutSlice) SetInt32(off uint32, v int32) error {
	return s.SetUint32(off, uint32(v))
}

func (s MutSlice) SetInt64(off uint32, v int64) error {
	return s.SetUint64(off, uint64(v))
}

// SetBytes copies data into the slice starting at off.
func (s MutSlice) SetBytes(off uint32, data []byte) error {
	b, err := s.mutWindow(off, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(b, data)

	return nil
}

// Blit copies n bytes from src[srcOff:] into the slice at dstOff. Source and
// destination may live in different messages.
func (s MutSlice) Blit(src Slice, srcOff, dstOff, n uint32) error {
	from, err := src.window(srcOff, n)
	if err != nil {
		return err
	}
	to, err := s.mutWindow(dstOff, n)
	if err != nil {
		return err
	}
	copy(to, from)

	return nil
}

// Zero clears n bytes starting at off.
func (s MutSlice) Zero(off, n uint32) error {
	b, err := s.mutWindow(off, n)
	if err != nil {
		return err
	}
	clear(b)

	return nil
}
